package scraper

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/interact"
)

func newTestStackOverflow(t *testing.T, fb *fakeBrowser, synthetic bool) *StackOverflowAdapter {
	t.Helper()
	logger := log.New(testWriter{t}, "", 0)
	cfg := config.ScraperConfig{SyntheticFallback: synthetic}
	actor := interact.NewActor(noVision{}, interact.Config{MaxAttempts: 1}, logger)
	a := NewStackOverflowAdapter(cfg, actor, logger)
	a.newSession = func(ctx context.Context) (browserSession, error) { return fb, nil }
	return a
}

func TestStackOverflowCollectsCards(t *testing.T) {
	fb := &fakeBrowser{
		location: "https://stackoverflow.com/jobs?q=go&l=Remote&sort=p",
		title:    "go jobs - Stack Overflow",
		cards: []jobCard{
			{Title: "Go Backend Developer", Company: "Initech", Location: "Remote", URL: "https://stackoverflow.com/jobs/1", Salary: "$130k - $160k"},
			{Title: "Platform Engineer", Company: "Hooli", Location: "Austin, TX", URL: "https://stackoverflow.com/jobs/2"},
			{Title: "Untitled", Company: "NoLink Inc", URL: ""},
		},
	}
	a := newTestStackOverflow(t, fb, false)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "go"}.Normalized())

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s: %s), want %s", res.Status, res.ErrorKind, res.Message, StatusSuccess)
	}
	if len(res.Postings) != 2 {
		t.Fatalf("got %d postings, want 2 (linkless card dropped)", len(res.Postings))
	}
	if res.Postings[0].SalaryRange != "$130k - $160k" {
		t.Fatalf("salary = %q, want the card salary", res.Postings[0].SalaryRange)
	}
	if res.Postings[0].Source != "stackoverflow" {
		t.Fatalf("source = %q, want stackoverflow", res.Postings[0].Source)
	}
	if !fb.closed {
		t.Fatal("browser session was not closed")
	}
}

func TestStackOverflowSyntheticFallbackOnEmptyResults(t *testing.T) {
	fb := &fakeBrowser{
		location: "https://stackoverflow.com/jobs?q=fortran&l=Remote&sort=p",
		title:    "fortran jobs - Stack Overflow",
	}
	a := newTestStackOverflow(t, fb, true)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "fortran", LimitPerSource: 2}.Normalized())

	if res.Status != StatusPartial {
		t.Fatalf("status = %s, want %s", res.Status, StatusPartial)
	}
	if len(res.Postings) == 0 {
		t.Fatal("expected synthetic fallback postings")
	}
	for _, p := range res.Postings {
		if !p.IsSynthetic {
			t.Fatalf("fallback posting %q is not tagged synthetic", p.URL)
		}
	}
}

func TestStackOverflowNavigationFailure(t *testing.T) {
	fb := &fakeBrowser{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	a := newTestStackOverflow(t, fb, false)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "go"}.Normalized())

	if res.Status != StatusError {
		t.Fatalf("status = %s, want %s", res.Status, StatusError)
	}
	if len(res.Postings) != 0 {
		t.Fatalf("failed search must not fabricate postings, got %d", len(res.Postings))
	}
}
