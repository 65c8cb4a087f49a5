package scraper

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

// Notifier receives per-source scrape lifecycle events. The websocket hub
// implements it; a nil notifier is fine.
type Notifier interface {
	ScrapeStarted(source string)
	ScrapeFinished(source string, status Status, postings int)
}

// Report is the aggregate outcome of one orchestrated search.
type Report struct {
	Postings          []job.Posting  `json:"postings"`
	Results           []ScrapeResult `json:"results"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	Elapsed           time.Duration  `json:"elapsed"`
}

// Succeeded reports whether at least one source returned data.
func (r Report) Succeeded() bool {
	for _, res := range r.Results {
		if res.Status == StatusSuccess || res.Status == StatusPartial {
			return true
		}
	}
	return false
}

type OrchestratorConfig struct {
	MaxParallel    int
	AdapterTimeout time.Duration
}

// Orchestrator fans a search request out to the registered site adapters,
// bounded by MaxParallel, with one timeout per adapter run. An adapter
// failing, panicking or hanging never affects its siblings; the worst total
// outcome is an empty posting list with populated diagnostics.
type Orchestrator struct {
	mu       sync.RWMutex
	order    []string
	adapters map[string]SiteAdapter
	disabled map[string]bool

	cfg      OrchestratorConfig
	dedup    *Deduplicator
	notifier Notifier
	logger   *log.Logger
}

func NewOrchestrator(cfg OrchestratorConfig, logger *log.Logger) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 1
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 120 * time.Second
	}
	return &Orchestrator{
		adapters: make(map[string]SiteAdapter),
		disabled: make(map[string]bool),
		cfg:      cfg,
		dedup:    NewDeduplicator(),
		logger:   logger,
	}
}

func (o *Orchestrator) SetNotifier(n Notifier) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.notifier = n
	o.mu.Unlock()
}

// Register adds an adapter. Registration order is preserved: it decides the
// order postings are fed to the deduplicator, which keeps merge outcomes
// reproducible across runs.
func (o *Orchestrator) Register(a SiteAdapter) {
	if o == nil || a == nil {
		return
	}
	name := strings.ToLower(strings.TrimSpace(a.Source()))
	if name == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.adapters[name]; !exists {
		o.order = append(o.order, name)
	}
	o.adapters[name] = a
}

func (o *Orchestrator) Enable(source string) {
	o.setDisabled(source, false)
}

func (o *Orchestrator) Disable(source string) {
	o.setDisabled(source, true)
}

func (o *Orchestrator) setDisabled(source string, disabled bool) {
	if o == nil {
		return
	}
	source = strings.ToLower(strings.TrimSpace(source))
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.adapters[source]; ok {
		o.disabled[source] = disabled
	}
}

// SourceInfo describes one registered adapter for the API surface.
type SourceInfo struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func (o *Orchestrator) Sources() []SourceInfo {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]SourceInfo, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, SourceInfo{Name: name, Enabled: !o.disabled[name]})
	}
	return out
}

// Run executes the search across all enabled adapters and merges the
// results. It never returns an error: total failure yields an empty posting
// list plus per-source diagnostics.
func (o *Orchestrator) Run(ctx context.Context, req job.SearchRequest) Report {
	started := time.Now()
	req = req.Normalized()

	type slot struct {
		name    string
		adapter SiteAdapter
	}

	o.mu.RLock()
	slots := make([]slot, 0, len(o.order))
	for _, name := range o.order {
		if o.disabled[name] || !req.WantsSource(name) {
			continue
		}
		slots = append(slots, slot{name: name, adapter: o.adapters[name]})
	}
	notifier := o.notifier
	o.mu.RUnlock()

	results := make([]ScrapeResult, len(slots))
	sem := semaphore.NewWeighted(int64(o.cfg.MaxParallel))
	var wg sync.WaitGroup

	for i, s := range slots {
		wg.Add(1)
		go func(i int, s slot) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = ScrapeResult{
					Source:    s.name,
					Status:    StatusError,
					ErrorKind: ErrKindInternal,
					Message:   err.Error(),
				}
				return
			}
			defer sem.Release(1)

			if notifier != nil {
				notifier.ScrapeStarted(s.name)
			}
			res := o.runAdapter(ctx, s.adapter, req)
			results[i] = res
			if notifier != nil {
				notifier.ScrapeFinished(s.name, res.Status, len(res.Postings))
			}
		}(i, s)
	}
	wg.Wait()

	// Union in registration order so dedup input is deterministic.
	var union []job.Posting
	for _, res := range results {
		if res.Status == StatusSuccess || res.Status == StatusPartial {
			union = append(union, res.Postings...)
		}
	}
	merged, removed := o.dedup.Merge(union)

	report := Report{
		Postings:          merged,
		Results:           results,
		DuplicatesRemoved: removed,
		Elapsed:           time.Since(started),
	}

	if o.logger != nil {
		o.logger.Printf("[Orchestrator] search done sources=%d postings=%d duplicates_removed=%d elapsed=%s",
			len(slots), len(merged), removed, report.Elapsed.Round(time.Millisecond))
	}
	return report
}

// runAdapter executes one adapter under its own timeout. A hung adapter is
// abandoned at the deadline: its context is cancelled, a timeout result is
// recorded, and the aggregate wait moves on.
func (o *Orchestrator) runAdapter(ctx context.Context, a SiteAdapter, req job.SearchRequest) ScrapeResult {
	started := time.Now()
	source := a.Source()

	actx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	defer cancel()

	done := make(chan ScrapeResult, 1)
	go func() {
		done <- guardSearch(source, started, o.logger, func() ScrapeResult {
			return a.Search(actx, req)
		})
	}()

	select {
	case res := <-done:
		if res.Elapsed == 0 {
			res.Elapsed = time.Since(started)
		}
		return res
	case <-actx.Done():
		if o.logger != nil {
			o.logger.Printf("[Orchestrator] adapter %s: %v after %s", source, actx.Err(), time.Since(started).Round(time.Millisecond))
		}
		status, kind := StatusTimeout, ErrKindTimeout
		if !errors.Is(actx.Err(), context.DeadlineExceeded) {
			// Parent cancellation, not this adapter overrunning its budget.
			status, kind = StatusError, ErrKindInternal
		}
		return ScrapeResult{
			Source:    source,
			Status:    status,
			ErrorKind: kind,
			Message:   actx.Err().Error(),
			Elapsed:   time.Since(started),
		}
	}
}
