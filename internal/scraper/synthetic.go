package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

// SyntheticProvider generates placeholder postings for runs where a source
// produced nothing and the operator opted into fallback data. Its output is
// always tagged IsSynthetic, and the tag survives deduplication and
// persistence; untagged placeholder data must never reach a caller.
type SyntheticProvider struct {
	now func() time.Time
}

func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{now: time.Now}
}

func (p *SyntheticProvider) Generate(req job.SearchRequest, source string, n int) []job.Posting {
	if p == nil || n <= 0 {
		return nil
	}
	if n > 3 {
		n = 3
	}

	keywords := strings.TrimSpace(req.Keywords)
	if keywords == "" {
		keywords = "Software Engineer"
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = "Remote"
	}

	now := p.now().UTC()
	out := make([]job.Posting, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, job.Posting{
			ID:          uuid.New(),
			Title:       fmt.Sprintf("%s (sample %d)", keywords, i),
			Company:     fmt.Sprintf("Placeholder Company %d", i),
			Location:    location,
			URL:         fmt.Sprintf("https://synthetic.invalid/%s/job/%d", strings.ToLower(source), i),
			Description: fmt.Sprintf("Placeholder %s posting generated because the %s scrape returned no live data.", keywords, source),
			Source:      source,
			ScrapedAt:   now,
			IsSynthetic: true,
		})
	}
	return out
}
