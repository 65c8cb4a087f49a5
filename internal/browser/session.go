// Package browser wraps a chromedp-driven Chrome session. One Session is
// exclusively owned by a single adapter run; all element interactions go
// through it sequentially.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

type Config struct {
	Headless      bool
	UserAgent     string
	ActionTimeout time.Duration
}

type Session struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	actionTimeout time.Duration
	logger        *log.Logger
}

// New launches a browser owned by the caller. The session context is derived
// from ctx, so cancelling the adapter run tears the browser down too.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Session, error) {
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(ua),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a broken Chrome install fails here, not
	// in the middle of a scrape.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	timeout := cfg.ActionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Session{
		ctx:           browserCtx,
		cancelBrowser: browserCancel,
		cancelAlloc:   allocCancel,
		actionTimeout: timeout,
		logger:        logger,
	}, nil
}

func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.cancelBrowser != nil {
		s.cancelBrowser()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	if s == nil || s.ctx == nil {
		return errors.New("nil browser session")
	}
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

func (s *Session) Navigate(url string) error {
	return s.run(30*time.Second,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500*time.Millisecond),
	)
}

// FindFirst tries the candidate selectors in order and returns the first one
// matching at least one visible node.
func (s *Session) FindFirst(selectors []string) (string, bool) {
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		var nodes []*cdp.Node
		err := s.run(s.actionTimeout,
			chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("[Browser] selector probe failed selector=%q: %v", sel, err)
			}
			continue
		}
		if len(nodes) > 0 {
			return sel, true
		}
	}
	return "", false
}

func (s *Session) Click(selector string) error {
	return s.run(s.actionTimeout,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
}

func (s *Session) ClickXY(x, y float64) error {
	return s.run(s.actionTimeout, chromedp.MouseClickXY(x, y))
}

func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := s.run(s.actionTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Session) Location() (string, error) {
	var loc string
	if err := s.run(s.actionTimeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (s *Session) Text(selector string) (string, error) {
	var out string
	err := s.run(s.actionTimeout,
		chromedp.Text(selector, &out, chromedp.ByQuery, chromedp.NodeVisible),
	)
	return strings.TrimSpace(out), err
}

// Evaluate runs js in the page and decodes the result into out.
func (s *Session) Evaluate(js string, out any) error {
	return s.run(s.actionTimeout, chromedp.EvaluateAsDevTools(js, out))
}

func (s *Session) Sleep(d time.Duration) {
	if s == nil || d <= 0 {
		return
	}
	_ = s.run(d+time.Second, chromedp.Sleep(d))
}

// Cookies serializes the browser's cookie jar to JSON. The payload is opaque
// to callers; the session store persists it as-is.
func (s *Session) Cookies() ([]byte, error) {
	var cookies []*network.Cookie
	err := s.run(s.actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return json.Marshal(cookies)
}

// SetCookies restores a cookie jar previously produced by Cookies.
func (s *Session) SetCookies(payload []byte) error {
	var cookies []*network.Cookie
	if err := json.Unmarshal(payload, &cookies); err != nil {
		return fmt.Errorf("decode cookie payload: %w", err)
	}

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || strings.TrimSpace(c.Name) == "" {
			continue
		}
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return errors.New("no cookies in payload")
	}

	return s.run(s.actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
}
