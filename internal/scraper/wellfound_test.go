package scraper

import (
	"context"
	"log"
	"strings"
	"testing"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/interact"
)

func newTestWellfound(t *testing.T, fb *fakeBrowser, synthetic bool) *WellfoundAdapter {
	t.Helper()
	logger := log.New(testWriter{t}, "", 0)
	cfg := config.ScraperConfig{SyntheticFallback: synthetic}
	actor := interact.NewActor(noVision{}, interact.Config{MaxAttempts: 1}, logger)
	a := NewWellfoundAdapter(cfg, actor, logger)
	a.newSession = func(ctx context.Context) (browserSession, error) { return fb, nil }
	return a
}

func TestWellfoundExtractsEquityAndFundingFromCardText(t *testing.T) {
	fb := &fakeBrowser{
		location: "https://wellfound.com/jobs?q=go",
		title:    "Go Jobs | Wellfound",
		cards: []jobCard{
			{
				Title:   "Founding Engineer",
				Company: "TechFlow AI",
				URL:     "https://wellfound.com/jobs/1-founding-engineer",
				Text:    "Founding Engineer\nTechFlow AI\nSeries A\n$140,000 - $180,000\n0.5% - 1.5% equity\nRemote",
			},
			{
				Title:   "Backend Engineer",
				Company: "DataRise Labs",
				URL:     "https://wellfound.com/jobs/2-backend-engineer",
				Text:    "Backend Engineer\nDataRise Labs\nSeed stage startup\n$120k - $150k\nNew York",
			},
		},
	}
	a := newTestWellfound(t, fb, false)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "go"}.Normalized())

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s: %s), want %s", res.Status, res.ErrorKind, res.Message, StatusSuccess)
	}
	if len(res.Postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(res.Postings))
	}

	first := res.Postings[0]
	if first.SalaryRange != "$140,000 - $180,000" {
		t.Fatalf("salary = %q, want the dollar range from the card text", first.SalaryRange)
	}
	if first.EquityRange != "0.5% - 1.5%" {
		t.Fatalf("equity = %q, want the percent range from the card text", first.EquityRange)
	}
	if first.FundingStage != "Series A" {
		t.Fatalf("funding stage = %q, want Series A", first.FundingStage)
	}

	second := res.Postings[1]
	if second.SalaryRange != "$120k - $150k" {
		t.Fatalf("salary = %q, want the k-suffixed range", second.SalaryRange)
	}
	if second.EquityRange != "" {
		t.Fatalf("equity = %q, card text never mentions equity", second.EquityRange)
	}
	if second.FundingStage != "Seed" {
		t.Fatalf("funding stage = %q, want Seed", second.FundingStage)
	}
}

func TestWellfoundLoginRedirectReportsAuthRequired(t *testing.T) {
	fb := &fakeBrowser{
		location: "https://wellfound.com/login?next=/jobs",
		title:    "Sign in | Wellfound",
	}
	a := newTestWellfound(t, fb, false)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "go"}.Normalized())

	if res.Status != StatusError {
		t.Fatalf("status = %s, want %s with fallback disabled", res.Status, StatusError)
	}
	if res.ErrorKind != ErrKindAuthRequired {
		t.Fatalf("error kind = %s, want %s", res.ErrorKind, ErrKindAuthRequired)
	}
}

func TestWellfoundLoginRedirectWithFallbackTagsSynthetic(t *testing.T) {
	fb := &fakeBrowser{
		location: "https://wellfound.com/login?next=/jobs",
		title:    "Sign in | Wellfound",
	}
	a := newTestWellfound(t, fb, true)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "go", LimitPerSource: 3}.Normalized())

	if res.Status != StatusPartial {
		t.Fatalf("status = %s, want %s", res.Status, StatusPartial)
	}
	if res.ErrorKind != ErrKindAuthRequired {
		t.Fatalf("error kind = %s, want %s", res.ErrorKind, ErrKindAuthRequired)
	}
	if len(res.Postings) == 0 {
		t.Fatal("expected synthetic fallback postings")
	}
	for _, p := range res.Postings {
		if !p.IsSynthetic {
			t.Fatalf("fallback posting %q is not tagged synthetic", p.URL)
		}
		if p.EquityRange == "" || p.FundingStage == "" {
			t.Fatalf("startup fallback posting should carry equity and funding placeholders: %+v", p)
		}
	}
}

func TestWellfoundDetectsProtectionWall(t *testing.T) {
	fb := &fakeBrowser{
		location: "https://wellfound.com/jobs?q=go",
		title:    "Wellfound",
		bodyText: "Please complete this CAPTCHA to continue.",
	}
	a := newTestWellfound(t, fb, false)

	res := a.Search(context.Background(), job.SearchRequest{Keywords: "go"}.Normalized())

	if res.Status != StatusPartial {
		t.Fatalf("status = %s, want %s", res.Status, StatusPartial)
	}
	if res.ErrorKind != ErrKindBlocked {
		t.Fatalf("error kind = %s, want %s", res.ErrorKind, ErrKindBlocked)
	}
	if !strings.Contains(res.Message, "captcha") {
		t.Fatalf("message %q does not name the protection marker", res.Message)
	}
}

func TestExtractCompensationFromText(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		salary  string
		equity  string
		funding string
	}{
		{
			name:    "full startup card",
			text:    "Staff Engineer at a Series B company. $160,000 - $200,000, 0.1% - 0.5% equity.",
			salary:  "$160,000 - $200,000",
			equity:  "0.1% - 0.5%",
			funding: "Series B",
		},
		{
			name:   "k suffix salary only",
			text:   "Pay: $90k - $120k depending on experience.",
			salary: "$90k - $120k",
		},
		{
			name:    "pre-seed without equity keyword",
			text:    "Join our pre-seed team. Growth of 20% - 30% last quarter.",
			funding: "Pre-Seed",
		},
		{
			name: "plain prose",
			text: "We ship Go services and value ownership.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractSalaryRange(tc.text); got != tc.salary {
				t.Fatalf("salary = %q, want %q", got, tc.salary)
			}
			if got := extractEquityRange(tc.text); got != tc.equity {
				t.Fatalf("equity = %q, want %q", got, tc.equity)
			}
			if got := extractFundingStage(tc.text); got != tc.funding {
				t.Fatalf("funding = %q, want %q", got, tc.funding)
			}
		})
	}
}
