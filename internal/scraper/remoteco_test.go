package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

const remotecoListingHTML = `<!DOCTYPE html>
<html><body>
<ul>
	<li class="job_listing"><a href="/job/101"><h3>Senior Go Engineer</h3><span class="company">Acme Remote</span></a></li>
	<li class="job_listing"><a href="/job/102"><h3>Backend Engineer</h3><span class="company">Initech</span></a></li>
	<li class="job_listing"><a href="/job/103"><h3>Gardener</h3><span class="company">GreenCo</span></a></li>
</ul>
</body></html>`

const remotecoDetailHTML = `<!DOCTYPE html>
<html><body>
<h1>Senior Go Engineer</h1>
<p class="m-0"><strong>Acme Remote</strong></p>
<div class="job_description">Build and operate our scraping infrastructure. Salary $150k.</div>
</body></html>`

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		UserAgent: "test-agent",
	}
}

func newRemotecoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/remote-jobs/search/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(remotecoListingHTML))
	})
	mux.HandleFunc("/job/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(remotecoDetailHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteCoSearchFiltersByKeyword(t *testing.T) {
	srv := newRemotecoServer(t)
	a := NewRemoteCoAdapterWithBaseURL(testScraperConfig(), nil, srv.URL)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "engineer", LimitPerSource: 10}.Normalized())

	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", res.Status, res.Message)
	}
	if len(res.Postings) != 2 {
		t.Fatalf("expected keyword filter to keep 2 postings, got %d", len(res.Postings))
	}
	for _, p := range res.Postings {
		if p.Source != "remote.co" {
			t.Fatalf("posting source mislabeled: %q", p.Source)
		}
		if p.Location != "Remote" {
			t.Fatalf("remote.co postings should be remote, got %q", p.Location)
		}
		if p.IsSynthetic {
			t.Fatalf("live postings must not be flagged synthetic")
		}
	}
}

func TestRemoteCoSearchRespectsLimit(t *testing.T) {
	srv := newRemotecoServer(t)
	a := NewRemoteCoAdapterWithBaseURL(testScraperConfig(), nil, srv.URL)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "", LimitPerSource: 1}.Normalized())
	if len(res.Postings) > 1 {
		t.Fatalf("limit per source violated: %d postings", len(res.Postings))
	}
}

func TestRemoteCoSearchUnreachableServer(t *testing.T) {
	a := NewRemoteCoAdapterWithBaseURL(testScraperConfig(), nil, "http://127.0.0.1:1")

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "engineer"}.Normalized())
	if res.Status != StatusError {
		t.Fatalf("expected error status, got %s", res.Status)
	}
	if res.ErrorKind != ErrKindTransientNetwork && res.ErrorKind != ErrKindInternal {
		t.Fatalf("unexpected error kind %s", res.ErrorKind)
	}
}

func TestRemoteCoSyntheticFallbackOnFailure(t *testing.T) {
	cfg := testScraperConfig()
	cfg.SyntheticFallback = true
	a := NewRemoteCoAdapterWithBaseURL(cfg, nil, "http://127.0.0.1:1")

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "engineer", LimitPerSource: 5}.Normalized())
	if res.Status != StatusPartial {
		t.Fatalf("fallback results must be partial, got %s", res.Status)
	}
	if len(res.Postings) == 0 {
		t.Fatalf("expected synthetic fallback postings")
	}
	for _, p := range res.Postings {
		if !p.IsSynthetic {
			t.Fatalf("fallback postings must be flagged synthetic")
		}
	}
}

func TestRemoteCoExtractDetail(t *testing.T) {
	srv := newRemotecoServer(t)
	a := NewRemoteCoAdapterWithBaseURL(testScraperConfig(), nil, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := a.ExtractDetail(ctx, srv.URL+"/job/101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Senior Go Engineer" {
		t.Fatalf("unexpected title %q", p.Title)
	}
	if p.Description == "" {
		t.Fatalf("expected description text")
	}
}
