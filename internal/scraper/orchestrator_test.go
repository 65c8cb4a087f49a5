package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

type stubAdapter struct {
	source string
	search func(ctx context.Context, req job.SearchRequest) ScrapeResult

	mu    sync.Mutex
	calls int
}

func (a *stubAdapter) Source() string { return a.source }

func (a *stubAdapter) Search(ctx context.Context, req job.SearchRequest) ScrapeResult {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.search(ctx, req)
}

func (a *stubAdapter) ExtractDetail(ctx context.Context, url string) (job.Posting, error) {
	return job.Posting{}, fmt.Errorf("not implemented")
}

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func okAdapter(source string, postings ...job.Posting) *stubAdapter {
	return &stubAdapter{
		source: source,
		search: func(ctx context.Context, req job.SearchRequest) ScrapeResult {
			return ScrapeResult{Source: source, Postings: postings, Status: StatusSuccess}
		},
	}
}

func posting(title, company, url string) job.Posting {
	return job.Posting{Title: title, Company: company, URL: url}
}

func newTestOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return NewOrchestrator(cfg, nil)
}

func TestRunMergesAcrossSources(t *testing.T) {
	o := newTestOrchestrator(OrchestratorConfig{MaxParallel: 3, AdapterTimeout: time.Second})
	o.Register(okAdapter("alpha", posting("Engineer", "Acme", "https://a.example.com/j/1")))
	o.Register(okAdapter("beta", posting("Engineer", "Acme", "https://a.example.com/j/1?src=beta")))

	report := o.Run(context.Background(), job.SearchRequest{Keywords: "engineer"})
	if len(report.Postings) != 1 {
		t.Fatalf("expected cross-source duplicate to merge, got %d postings", len(report.Postings))
	}
	if report.DuplicatesRemoved != 1 {
		t.Fatalf("expected 1 duplicate removed, got %d", report.DuplicatesRemoved)
	}
	if !report.Succeeded() {
		t.Fatalf("report should be marked successful")
	}
}

func TestRunIsolatesPanickingAdapter(t *testing.T) {
	var logs bytes.Buffer
	o := NewOrchestrator(OrchestratorConfig{MaxParallel: 2, AdapterTimeout: time.Second}, log.New(&logs, "", 0))
	o.Register(&stubAdapter{
		source: "broken",
		search: func(ctx context.Context, req job.SearchRequest) ScrapeResult {
			panic("adapter bug")
		},
	})
	o.Register(okAdapter("healthy", posting("Engineer", "Acme", "https://h.example.com/j/1")))

	report := o.Run(context.Background(), job.SearchRequest{Keywords: "engineer"})

	if len(report.Postings) != 1 {
		t.Fatalf("healthy adapter's postings must survive, got %d", len(report.Postings))
	}
	var brokenRes *ScrapeResult
	for i := range report.Results {
		if report.Results[i].Source == "broken" {
			brokenRes = &report.Results[i]
		}
	}
	if brokenRes == nil {
		t.Fatalf("panicking adapter must still report a result")
	}
	if brokenRes.Status != StatusError || brokenRes.ErrorKind != ErrKindInternal {
		t.Fatalf("expected internal error classification, got %s/%s", brokenRes.Status, brokenRes.ErrorKind)
	}
	if !strings.Contains(logs.String(), "panic recovered") || !strings.Contains(logs.String(), "goroutine") {
		t.Fatalf("recovered panic should be logged with its stack, got: %s", logs.String())
	}
}

func TestRunAbandonsHungAdapter(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	o := newTestOrchestrator(OrchestratorConfig{MaxParallel: 2, AdapterTimeout: 100 * time.Millisecond})
	o.Register(okAdapter("a", posting("Engineer", "Acme", "https://a.example.com/j/1")))
	o.Register(okAdapter("b", posting("Engineer", "Beta", "https://b.example.com/j/1")))
	o.Register(&stubAdapter{
		source: "hung",
		search: func(ctx context.Context, req job.SearchRequest) ScrapeResult {
			// Ignores its context on purpose.
			<-release
			return ScrapeResult{Source: "hung", Status: StatusSuccess}
		},
	})

	start := time.Now()
	report := o.Run(context.Background(), job.SearchRequest{Keywords: "engineer"})
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("run did not abandon the hung adapter, took %s", elapsed)
	}

	bySource := map[string]ScrapeResult{}
	for _, res := range report.Results {
		bySource[res.Source] = res
	}
	if bySource["a"].Status != StatusSuccess || bySource["b"].Status != StatusSuccess {
		t.Fatalf("completed adapters must report success: %+v", bySource)
	}
	if bySource["hung"].Status != StatusTimeout || bySource["hung"].ErrorKind != ErrKindTimeout {
		t.Fatalf("hung adapter must be marked timeout, got %s/%s",
			bySource["hung"].Status, bySource["hung"].ErrorKind)
	}
	if len(report.Postings) != 2 {
		t.Fatalf("expected postings from the two live sources, got %d", len(report.Postings))
	}
}

func TestRunHonorsBoundedParallelism(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	slow := func(source string) *stubAdapter {
		return &stubAdapter{
			source: source,
			search: func(ctx context.Context, req job.SearchRequest) ScrapeResult {
				mu.Lock()
				running++
				if running > peak {
					peak = running
				}
				mu.Unlock()

				time.Sleep(50 * time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return ScrapeResult{Source: source, Status: StatusSuccess}
			},
		}
	}

	o := newTestOrchestrator(OrchestratorConfig{MaxParallel: 2, AdapterTimeout: time.Second})
	for i := 0; i < 5; i++ {
		o.Register(slow(fmt.Sprintf("s%d", i)))
	}

	o.Run(context.Background(), job.SearchRequest{Keywords: "x"})

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Fatalf("parallelism bound violated: peak %d", peak)
	}
}

func TestRunSourceFilterAndDisable(t *testing.T) {
	a := okAdapter("alpha", posting("E", "A", "https://a.example.com/1"))
	b := okAdapter("beta", posting("E", "B", "https://b.example.com/1"))
	c := okAdapter("gamma", posting("E", "C", "https://c.example.com/1"))

	o := newTestOrchestrator(OrchestratorConfig{MaxParallel: 3, AdapterTimeout: time.Second})
	o.Register(a)
	o.Register(b)
	o.Register(c)
	o.Disable("beta")

	report := o.Run(context.Background(), job.SearchRequest{
		Keywords:       "e",
		EnabledSources: []string{"alpha", "beta"},
	})

	if a.callCount() != 1 {
		t.Fatalf("alpha should run once, ran %d", a.callCount())
	}
	if b.callCount() != 0 {
		t.Fatalf("disabled beta must not run")
	}
	if c.callCount() != 0 {
		t.Fatalf("gamma excluded by request filter must not run")
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected a single result slot, got %d", len(report.Results))
	}
}

func TestSourcesReflectEnableDisable(t *testing.T) {
	o := newTestOrchestrator(OrchestratorConfig{MaxParallel: 1, AdapterTimeout: time.Second})
	o.Register(okAdapter("alpha"))
	o.Register(okAdapter("beta"))

	o.Disable("alpha")
	infos := o.Sources()
	if len(infos) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(infos))
	}
	if infos[0].Name != "alpha" || infos[0].Enabled {
		t.Fatalf("alpha should be listed first and disabled: %+v", infos[0])
	}

	o.Enable("alpha")
	infos = o.Sources()
	if !infos[0].Enabled {
		t.Fatalf("alpha should be re-enabled")
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	started  []string
	finished []string
}

func (n *recordingNotifier) ScrapeStarted(source string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, source)
}

func (n *recordingNotifier) ScrapeFinished(source string, status Status, postings int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finished = append(n.finished, fmt.Sprintf("%s:%s:%d", source, status, postings))
}

func TestRunNotifiesLifecycle(t *testing.T) {
	o := newTestOrchestrator(OrchestratorConfig{MaxParallel: 1, AdapterTimeout: time.Second})
	o.Register(okAdapter("alpha", posting("E", "A", "https://a.example.com/1")))

	n := &recordingNotifier{}
	o.SetNotifier(n)
	o.Run(context.Background(), job.SearchRequest{Keywords: "e"})

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.started) != 1 || n.started[0] != "alpha" {
		t.Fatalf("expected start event for alpha, got %v", n.started)
	}
	if len(n.finished) != 1 || n.finished[0] != "alpha:success:1" {
		t.Fatalf("expected finish event, got %v", n.finished)
	}
}
