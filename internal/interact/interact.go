// Package interact locates semantically-described UI elements and acts on
// them. Structural selectors are tried first; when a site has drifted, the
// layer falls back to querying a vision model for click coordinates.
package interact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/vision"
)

// ErrFallbackExhausted is returned when neither structural selectors nor the
// vision fallback could complete the interaction within the attempt budget.
// Callers decide per call-site whether that is skippable.
var ErrFallbackExhausted = errors.New("interaction fallback attempts exhausted")

// Page is the slice of the browser session the interaction layer needs.
// *browser.Session satisfies it; tests substitute fakes.
type Page interface {
	FindFirst(selectors []string) (string, bool)
	Click(selector string) error
	ClickXY(x, y float64) error
	Screenshot() ([]byte, error)
	Location() (string, error)
	Text(selector string) (string, error)
}

// Target describes one semantic UI element. The selector list is ordered
// configuration data: site churn is absorbed by editing it, not by code.
type Target struct {
	Name        string
	Selectors   []string
	Description string
	PageContext string
}

// VerifyFunc confirms an observable state change after a coordinate click.
// A nil VerifyFunc falls back to comparing before/after snapshots.
type VerifyFunc func(p Page) (bool, error)

type Config struct {
	MaxAttempts         int
	ConfidenceThreshold float64
	MinActionDelay      time.Duration
	MaxActionDelay      time.Duration
}

type Actor struct {
	vision vision.Locator
	cfg    Config
	logger *log.Logger
}

func NewActor(v vision.Locator, cfg Config, logger *log.Logger) *Actor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.6
	}
	return &Actor{vision: v, cfg: cfg, logger: logger}
}

type state int

const (
	stateAttemptStructural state = iota
	stateCaptureSnapshot
	stateQueryVision
	stateCoordinateInteract
	stateVerify
	stateRetry
	stateDone
	stateFail
)

// Click drives the fallback state machine for a single click on the target.
// Structural match wins outright; otherwise snapshot → vision → coordinate
// click → verify, bounded by the configured attempt budget.
func (a *Actor) Click(ctx context.Context, p Page, t Target, verify VerifyFunc) error {
	if a == nil || p == nil {
		return errors.New("nil actor/page")
	}

	var (
		snapshot []byte
		point    vision.Point
		attempts int
	)

	st := stateAttemptStructural
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch st {
		case stateAttemptStructural:
			sel, ok := p.FindFirst(t.Selectors)
			if !ok {
				a.logf("[Interact] %s: no structural match, falling back to vision", t.Name)
				st = stateCaptureSnapshot
				break
			}
			a.pause(ctx)
			if err := p.Click(sel); err != nil {
				a.logf("[Interact] %s: structural click failed selector=%q: %v", t.Name, sel, err)
				st = stateCaptureSnapshot
				break
			}
			st = stateDone

		case stateCaptureSnapshot:
			shot, err := p.Screenshot()
			if err != nil {
				a.logf("[Interact] %s: snapshot failed: %v", t.Name, err)
				st = stateRetry
				break
			}
			snapshot = shot
			st = stateQueryVision

		case stateQueryVision:
			if a.vision == nil {
				st = stateRetry
				break
			}
			pt, found, err := a.vision.Locate(ctx, snapshot, t.Description, t.PageContext)
			if err != nil {
				a.logf("[Interact] %s: vision query failed: %v", t.Name, err)
				st = stateRetry
				break
			}
			if !found || pt.Confidence < a.cfg.ConfidenceThreshold {
				a.logf("[Interact] %s: vision result unusable found=%t confidence=%.2f", t.Name, found, pt.Confidence)
				st = stateRetry
				break
			}
			point = pt
			st = stateCoordinateInteract

		case stateCoordinateInteract:
			a.pause(ctx)
			if err := p.ClickXY(point.X, point.Y); err != nil {
				a.logf("[Interact] %s: coordinate click failed: %v", t.Name, err)
				st = stateRetry
				break
			}
			st = stateVerify

		case stateVerify:
			ok, err := a.verifyChange(p, snapshot, verify)
			if err != nil {
				a.logf("[Interact] %s: verification failed: %v", t.Name, err)
				st = stateRetry
				break
			}
			if !ok {
				a.logf("[Interact] %s: no observable change after coordinate click", t.Name)
				st = stateRetry
				break
			}
			st = stateDone

		case stateRetry:
			attempts++
			if attempts >= a.cfg.MaxAttempts {
				st = stateFail
				break
			}
			a.pause(ctx)
			st = stateCaptureSnapshot

		case stateDone:
			return nil

		case stateFail:
			return fmt.Errorf("%s: %w", t.Name, ErrFallbackExhausted)
		}
	}
}

// ReadText reads the text of the first structurally-matching candidate.
// There is no coordinate fallback for reads: a bare coordinate cannot yield
// element text, so a structural miss surfaces as ErrFallbackExhausted.
func (a *Actor) ReadText(ctx context.Context, p Page, t Target) (string, error) {
	if a == nil || p == nil {
		return "", errors.New("nil actor/page")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sel, ok := p.FindFirst(t.Selectors)
	if !ok {
		return "", fmt.Errorf("%s: %w", t.Name, ErrFallbackExhausted)
	}
	return p.Text(sel)
}

func (a *Actor) verifyChange(p Page, before []byte, verify VerifyFunc) (bool, error) {
	if verify != nil {
		return verify(p)
	}
	after, err := p.Screenshot()
	if err != nil {
		return false, err
	}
	return !bytes.Equal(before, after), nil
}

// VerifyLocationChanged is a ready-made verifier for interactions expected
// to alter the page URL (e.g. a filter toggling a query parameter).
func VerifyLocationChanged(before string) VerifyFunc {
	return func(p Page) (bool, error) {
		loc, err := p.Location()
		if err != nil {
			return false, err
		}
		return loc != before, nil
	}
}

// VerifySelectorVisible is a ready-made verifier for interactions expected
// to reveal a new element (e.g. an active filter chip).
func VerifySelectorVisible(selectors ...string) VerifyFunc {
	return func(p Page) (bool, error) {
		_, ok := p.FindFirst(selectors)
		return ok, nil
	}
}

// pause sleeps a randomized human-like delay between actions.
func (a *Actor) pause(ctx context.Context) {
	min := a.cfg.MinActionDelay
	max := a.cfg.MaxActionDelay
	if max <= 0 || max < min {
		return
	}
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (a *Actor) logf(format string, args ...any) {
	if a != nil && a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
