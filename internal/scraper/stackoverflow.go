package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/interact"
)

const stackoverflowSource = "stackoverflow"

const stackoverflowCardsJS = `Array.from(document.querySelectorAll('div.js-result, div[data-jobid], .listResults .result')).map(card => {
	const title = card.querySelector('h2 a.s-link, h2 a[href*="/jobs/"], .job-title a');
	const company = card.querySelector('h3.fc-black-700 > span:first-child, .job-company-name, h3 > span:first-child');
	const location = card.querySelector('h3.fc-black-700 > span.fc-black-500, .job-location, h3 > span:nth-child(2)');
	const salary = card.querySelector('.salary, [data-salary], .compensation');
	const posted = card.querySelector('ul.horizontal-list span[title], .job-posted-date, time');
	return {
		title: title ? title.innerText.trim() : '',
		company: company ? company.innerText.trim() : '',
		location: location ? location.innerText.trim().replace(/^[-\s]+/, '') : '',
		url: title && title.href ? title.href : '',
		salary: salary ? salary.innerText.trim() : '',
		posted: posted ? posted.innerText.trim() : '',
		text: ''
	};
}).filter(c => c.url)`

// StackOverflowAdapter drives the Stack Overflow job board. No auth and no
// challenge wall to speak of; the failure modes are plain navigation errors
// and empty result pages.
type StackOverflowAdapter struct {
	cfg        config.ScraperConfig
	actor      *interact.Actor
	synthetic  *SyntheticProvider
	logger     *log.Logger
	baseURL    string
	newSession sessionFactory
}

func NewStackOverflowAdapter(cfg config.ScraperConfig, actor *interact.Actor, logger *log.Logger) *StackOverflowAdapter {
	a := &StackOverflowAdapter{
		cfg:     cfg,
		actor:   actor,
		logger:  logger,
		baseURL: "https://stackoverflow.com",
	}
	if cfg.SyntheticFallback {
		a.synthetic = NewSyntheticProvider()
	}
	a.newSession = newBrowserFactory(cfg, logger)
	return a
}

func (a *StackOverflowAdapter) Source() string { return stackoverflowSource }

func (a *StackOverflowAdapter) Search(ctx context.Context, req job.SearchRequest) ScrapeResult {
	started := time.Now()
	return guardSearch(stackoverflowSource, started, a.logger, func() ScrapeResult {
		return a.search(ctx, req, started)
	})
}

func (a *StackOverflowAdapter) search(ctx context.Context, req job.SearchRequest, started time.Time) ScrapeResult {
	sess, err := a.newSession(ctx)
	if err != nil {
		return errorResult(stackoverflowSource, started, fmt.Errorf("open browser: %w", err))
	}
	defer sess.Close()

	if err := sess.Navigate(a.searchURL(req)); err != nil {
		return errorResult(stackoverflowSource, started, err)
	}

	postings, err := a.collectCards(sess, req)
	if err != nil {
		return errorResult(stackoverflowSource, started, err)
	}

	res := ScrapeResult{
		Source:   stackoverflowSource,
		Postings: postings,
		Status:   StatusSuccess,
		Elapsed:  time.Since(started),
	}
	if len(postings) == 0 && a.synthetic != nil {
		res.Postings = a.synthetic.Generate(req, stackoverflowSource, req.LimitPerSource)
		res.Status = StatusPartial
		res.Message = "no live results, synthetic fallback data returned"
	}
	return res
}

func (a *StackOverflowAdapter) collectCards(sess browserSession, req job.SearchRequest) ([]job.Posting, error) {
	var cards []jobCard
	if err := sess.Evaluate(stackoverflowCardsJS, &cards); err != nil {
		return nil, fmt.Errorf("extract job cards: %w", err)
	}

	now := time.Now().UTC()
	out := make([]job.Posting, 0, len(cards))
	for _, c := range cards {
		if len(out) >= req.LimitPerSource {
			break
		}
		if strings.TrimSpace(c.URL) == "" || strings.TrimSpace(c.Title) == "" {
			continue
		}
		out = append(out, job.Posting{
			ID:          uuid.New(),
			Title:       cleanText(c.Title),
			Company:     cleanText(c.Company),
			Location:    cleanText(c.Location),
			URL:         strings.TrimSpace(c.URL),
			SalaryRange: cleanText(c.Salary),
			Source:      stackoverflowSource,
			ScrapedAt:   now,
		})
	}
	return out, nil
}

func (a *StackOverflowAdapter) ExtractDetail(ctx context.Context, postingURL string) (job.Posting, error) {
	sess, err := a.newSession(ctx)
	if err != nil {
		return job.Posting{}, fmt.Errorf("open browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(postingURL); err != nil {
		return job.Posting{}, err
	}

	desc, err := a.actor.ReadText(ctx, sess, interact.Target{
		Name: "stackoverflow job description",
		Selectors: []string{
			"#overview-items .s-prose",
			".job-details__content",
			"section.fs-body2",
		},
		Description: "the job description body text",
	})
	if err != nil {
		return job.Posting{}, err
	}

	title, _ := sess.Text("h1")
	return job.Posting{
		ID:          uuid.New(),
		Title:       cleanText(title),
		URL:         postingURL,
		Description: cleanText(desc),
		Source:      stackoverflowSource,
		ScrapedAt:   time.Now().UTC(),
	}, nil
}

func (a *StackOverflowAdapter) searchURL(req job.SearchRequest) string {
	q := url.Values{}
	q.Set("q", req.Keywords)
	if req.Location != "" {
		q.Set("l", req.Location)
	} else {
		q.Set("l", "Remote")
	}
	q.Set("sort", "p")
	return a.baseURL + "/jobs?" + q.Encode()
}
