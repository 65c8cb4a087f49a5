package scraper

import (
	"context"
	"errors"
	"net"

	"github.com/Hemanthmaddila/AI-agent/internal/interact"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// ErrorKind classifies adapter failures for the per-source diagnostics
// report. Structural selector misses are not represented here: they are
// handled inside the interaction layer and only surface as
// ErrKindVisionExhausted once the fallback budget runs out.
type ErrorKind string

const (
	ErrKindNone             ErrorKind = ""
	ErrKindTransientNetwork ErrorKind = "transient_network"
	ErrKindAuthRequired     ErrorKind = "authentication_required"
	ErrKindBlocked          ErrorKind = "blocked_or_challenge"
	ErrKindVisionExhausted  ErrorKind = "vision_fallback_exhausted"
	ErrKindTimeout          ErrorKind = "timeout"
	ErrKindInternal         ErrorKind = "internal"
)

var (
	// ErrAuthRequired means the source needs a login and no valid session
	// state was available.
	ErrAuthRequired = errors.New("authentication required")

	// ErrBlocked means the source presented an anti-automation challenge.
	ErrBlocked = errors.New("anti-automation challenge detected")
)

// Classify maps an arbitrary adapter error onto the diagnostic taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrKindNone
	case errors.Is(err, context.DeadlineExceeded):
		return ErrKindTimeout
	case errors.Is(err, ErrAuthRequired):
		return ErrKindAuthRequired
	case errors.Is(err, ErrBlocked):
		return ErrKindBlocked
	case errors.Is(err, interact.ErrFallbackExhausted):
		return ErrKindVisionExhausted
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrKindTransientNetwork
	}
	return ErrKindInternal
}
