package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

const remotecoSource = "remote.co"

// RemoteCoAdapter scrapes remote.co's static listing pages. The site is plain
// server-rendered HTML, so no browser session is involved: colly walks the
// listing, goquery parses detail pages fetched over plain HTTP.
type RemoteCoAdapter struct {
	cfg         config.ScraperConfig
	client      *http.Client
	synthetic   *SyntheticProvider
	logger      *log.Logger
	baseURL     string
	allowedHost string
}

func NewRemoteCoAdapter(cfg config.ScraperConfig, logger *log.Logger) *RemoteCoAdapter {
	a := &RemoteCoAdapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: 20 * time.Second},
		logger:  logger,
		baseURL: "https://remote.co",
	}
	a.allowedHost = remotecoHost(a.baseURL)
	if cfg.SyntheticFallback {
		a.synthetic = NewSyntheticProvider()
	}
	return a
}

// NewRemoteCoAdapterWithBaseURL exists for tests against a local server.
func NewRemoteCoAdapterWithBaseURL(cfg config.ScraperConfig, logger *log.Logger, baseURL string) *RemoteCoAdapter {
	a := NewRemoteCoAdapter(cfg, logger)
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		a.baseURL = strings.TrimRight(baseURL, "/")
		a.allowedHost = remotecoHost(a.baseURL)
	}
	return a
}

func (a *RemoteCoAdapter) Source() string { return remotecoSource }

func (a *RemoteCoAdapter) Search(ctx context.Context, req job.SearchRequest) ScrapeResult {
	started := time.Now()
	return guardSearch(remotecoSource, started, a.logger, func() ScrapeResult {
		return a.search(ctx, req, started)
	})
}

func (a *RemoteCoAdapter) search(ctx context.Context, req job.SearchRequest, started time.Time) ScrapeResult {
	postings, err := a.scrapeListing(ctx, req)
	if err != nil {
		res := errorResult(remotecoSource, started, err)
		if a.synthetic != nil {
			res.Postings = a.synthetic.Generate(req, remotecoSource, req.LimitPerSource)
			res.Status = StatusPartial
			res.Message = "listing fetch failed, synthetic fallback data returned: " + err.Error()
		}
		return res
	}

	res := ScrapeResult{
		Source:   remotecoSource,
		Postings: postings,
		Status:   StatusSuccess,
		Elapsed:  time.Since(started),
	}
	if len(postings) == 0 && a.synthetic != nil {
		res.Postings = a.synthetic.Generate(req, remotecoSource, req.LimitPerSource)
		res.Status = StatusPartial
		res.Message = "no live results, synthetic fallback data returned"
	}
	return res
}

func (a *RemoteCoAdapter) scrapeListing(ctx context.Context, req job.SearchRequest) ([]job.Posting, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(a.allowedHost),
	)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 2, RandomDelay: 600 * time.Millisecond, Delay: 300 * time.Millisecond})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", a.cfg.UserAgent)
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	now := time.Now().UTC()
	postings := make([]job.Posting, 0, req.LimitPerSource)

	c.OnHTML("div.card a.card-body, li.job_listing a, a[href*='/job/']", func(e *colly.HTMLElement) {
		if len(postings) >= req.LimitPerSource {
			return
		}
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}
		title := cleanText(e.DOM.Find("span.font-weight-bold, .position, h3").First().Text())
		if title == "" {
			title = cleanText(e.Text)
		}
		company := cleanText(e.DOM.Find("p.m-0 .text-secondary, .company").First().Text())
		if title == "" {
			return
		}
		postings = append(postings, job.Posting{
			ID:        uuid.New(),
			Title:     title,
			Company:   company,
			Location:  "Remote",
			URL:       abs,
			Source:    remotecoSource,
			ScrapedAt: now,
		})
	})

	var reqErr error
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.Visit(a.searchURL(req)); err != nil {
		return nil, err
	}
	c.Wait()
	if reqErr != nil {
		return nil, reqErr
	}

	return a.filterKeywords(postings, req), nil
}

// filterKeywords is a client-side pass: remote.co's search endpoint covers
// keywords, but category listing pages used as fallback do not.
func (a *RemoteCoAdapter) filterKeywords(postings []job.Posting, req job.SearchRequest) []job.Posting {
	kw := strings.ToLower(strings.TrimSpace(req.Keywords))
	if kw == "" {
		return postings
	}
	terms := strings.Fields(kw)
	out := postings[:0]
	for _, p := range postings {
		hay := strings.ToLower(p.Title + " " + p.Company)
		matched := false
		for _, t := range terms {
			if strings.Contains(hay, t) {
				matched = true
				break
			}
		}
		if matched {
			out = append(out, p)
		}
	}
	return out
}

func (a *RemoteCoAdapter) ExtractDetail(ctx context.Context, postingURL string) (job.Posting, error) {
	body, err := httpGetWithRetry(ctx, a.client, postingURL, a.cfg.UserAgent, 3)
	if err != nil {
		return job.Posting{}, fmt.Errorf("fetch detail page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return job.Posting{}, fmt.Errorf("parse detail page: %w", err)
	}

	title := cleanText(doc.Find("h1").First().Text())
	company := cleanText(doc.Find(".co_name, .company_name, p.m-0 strong").First().Text())
	desc := cleanText(doc.Find(".job_description, .job-description, #job-description").First().Text())
	if desc == "" {
		desc = cleanText(doc.Find("article").First().Text())
	}
	salary := cleanText(doc.Find(".salary, [class*='salary']").First().Text())

	return job.Posting{
		ID:          uuid.New(),
		Title:       title,
		Company:     company,
		Location:    "Remote",
		URL:         postingURL,
		Description: desc,
		SalaryRange: salary,
		Source:      remotecoSource,
		ScrapedAt:   time.Now().UTC(),
	}, nil
}

func (a *RemoteCoAdapter) searchURL(req job.SearchRequest) string {
	q := url.Values{}
	q.Set("search_keywords", req.Keywords)
	return a.baseURL + "/remote-jobs/search/?" + q.Encode()
}

func remotecoHost(base string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Host == "" {
		return "remote.co"
	}
	if h, _, err := net.SplitHostPort(u.Host); err == nil {
		return h
	}
	return u.Host
}
