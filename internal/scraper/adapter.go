// Package scraper contains the site adapters, the orchestrator that runs
// them concurrently, and the cross-source deduplicator.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

// ScrapeResult is one adapter's outcome for a single search run. Once
// returned it is owned exclusively by the orchestrator.
type ScrapeResult struct {
	Source    string        `json:"source"`
	Postings  []job.Posting `json:"postings"`
	Status    Status        `json:"status"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SiteAdapter is the uniform contract every external source implements.
// Search must never let a fault escape: all failures come back as a
// ScrapeResult with a populated classification.
type SiteAdapter interface {
	Source() string
	Search(ctx context.Context, req job.SearchRequest) ScrapeResult
	ExtractDetail(ctx context.Context, url string) (job.Posting, error)
}

// guardSearch converts panics inside an adapter's search body into a
// classified error result, so a broken adapter can never take its siblings
// down with it.
func guardSearch(source string, started time.Time, logger *log.Logger, fn func() ScrapeResult) (res ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ScrapeResult{
				Source:    source,
				Status:    StatusError,
				ErrorKind: ErrKindInternal,
				Message:   fmt.Sprintf("panic: %v", r),
				Elapsed:   time.Since(started),
			}
			if logger != nil {
				logger.Printf("[Scraper] %s panic recovered: %v\n%s", source, r, debug.Stack())
			}
		}
	}()
	return fn()
}

func errorResult(source string, started time.Time, err error) ScrapeResult {
	return ScrapeResult{
		Source:    source,
		Status:    StatusError,
		ErrorKind: Classify(err),
		Message:   err.Error(),
		Elapsed:   time.Since(started),
	}
}

func httpGetWithRetry(ctx context.Context, client *http.Client, url string, userAgent string, attempts int) ([]byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var body []byte
	var lastErr error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			sleepBackoff(ctx, i)
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("status %d", resp.StatusCode)
				return
			}
			b, err := readAllLimit(resp.Body, 5<<20)
			if err != nil {
				lastErr = err
				return
			}
			lastErr = nil
			body = b
		}()
		if lastErr == nil {
			return body, nil
		}
		sleepBackoff(ctx, i)
	}
	return nil, lastErr
}

func sleepBackoff(ctx context.Context, attempt int) {
	d := time.Duration(300*(attempt+1)) * time.Millisecond
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func readAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: max}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("response too large")
	}
	return b, nil
}

func pickNonEmpty(a, b string) string {
	a = strings.TrimSpace(a)
	if a != "" {
		return a
	}
	return strings.TrimSpace(b)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
