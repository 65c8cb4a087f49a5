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

const indeedSource = "indeed"

var indeedTargets = struct {
	dateFilterButton interact.Target
	dateOptions      map[job.DatePostedFilter]interact.Target
	remoteFilter     interact.Target
}{
	dateFilterButton: interact.Target{
		Name: "indeed date-posted filter button",
		Selectors: []string{
			"#filter-dateposted",
			"button[aria-controls='filter-dateposted-menu']",
		},
		Description: "the 'Date posted' filter dropdown button above the job results",
		PageContext: "Indeed job search results page",
	},
	dateOptions: map[job.DatePostedFilter]interact.Target{
		job.DatePostedPastDay: {
			Name:        "indeed last-24-hours option",
			Selectors:   []string{"a[href*='fromage=1']", "#filter-dateposted-menu li:nth-child(2) a"},
			Description: "the 'Last 24 hours' entry in the open date-posted dropdown",
			PageContext: "Indeed job search results page with the date-posted dropdown open",
		},
		job.DatePostedPastWeek: {
			Name:        "indeed last-7-days option",
			Selectors:   []string{"a[href*='fromage=7']", "#filter-dateposted-menu li:nth-child(4) a"},
			Description: "the 'Last 7 days' entry in the open date-posted dropdown",
			PageContext: "Indeed job search results page with the date-posted dropdown open",
		},
		job.DatePostedPastMonth: {
			Name:        "indeed last-14-days option",
			Selectors:   []string{"a[href*='fromage=14']"},
			Description: "the 'Last 14 days' entry in the open date-posted dropdown",
			PageContext: "Indeed job search results page with the date-posted dropdown open",
		},
	},
	remoteFilter: interact.Target{
		Name: "indeed remote filter button",
		Selectors: []string{
			"#filter-remotejob",
			"button[aria-controls='filter-remotejob-menu']",
		},
		Description: "the 'Remote' filter dropdown button above the job results",
		PageContext: "Indeed job search results page",
	},
}

const indeedCardsJS = `Array.from(document.querySelectorAll('.job_seen_beacon, .jobsearch-ResultsList > li')).map(card => {
	const title = card.querySelector('h2.jobTitle a, h2.jobTitle span[title]');
	const company = card.querySelector('[data-testid="company-name"], .companyName');
	const location = card.querySelector('[data-testid="text-location"], .companyLocation');
	const salary = card.querySelector('.salary-snippet-container, [data-testid="attribute_snippet_testid"]');
	const posted = card.querySelector('.date, [data-testid="myJobsStateDate"]');
	const link = card.querySelector('h2.jobTitle a, a[data-jk]');
	return {
		title: title ? title.innerText.trim() : '',
		company: company ? company.innerText.trim() : '',
		location: location ? location.innerText.trim() : '',
		url: link ? link.href : '',
		salary: salary ? salary.innerText.trim() : '',
		posted: posted ? posted.innerText.trim() : ''
	};
}).filter(c => c.url)`

var indeedChallengeMarkers = []string{
	"just a moment",
	"verify you are human",
	"checking your browser",
	"additional verification required",
}

// IndeedAdapter drives the public Indeed search UI. No authentication is
// needed, but Indeed sits behind aggressive anti-automation protection, so
// challenge detection matters more than login handling here.
type IndeedAdapter struct {
	cfg        config.ScraperConfig
	actor      *interact.Actor
	synthetic  *SyntheticProvider
	logger     *log.Logger
	baseURL    string
	newSession sessionFactory
}

func NewIndeedAdapter(cfg config.ScraperConfig, actor *interact.Actor, logger *log.Logger) *IndeedAdapter {
	a := &IndeedAdapter{
		cfg:     cfg,
		actor:   actor,
		logger:  logger,
		baseURL: "https://www.indeed.com",
	}
	if cfg.SyntheticFallback {
		a.synthetic = NewSyntheticProvider()
	}
	a.newSession = newBrowserFactory(cfg, logger)
	return a
}

func (a *IndeedAdapter) Source() string { return indeedSource }

func (a *IndeedAdapter) Search(ctx context.Context, req job.SearchRequest) ScrapeResult {
	started := time.Now()
	return guardSearch(indeedSource, started, a.logger, func() ScrapeResult {
		return a.search(ctx, req, started)
	})
}

func (a *IndeedAdapter) search(ctx context.Context, req job.SearchRequest, started time.Time) ScrapeResult {
	sess, err := a.newSession(ctx)
	if err != nil {
		return errorResult(indeedSource, started, fmt.Errorf("open browser: %w", err))
	}
	defer sess.Close()

	if err := sess.Navigate(a.searchURL(req)); err != nil {
		return errorResult(indeedSource, started, err)
	}

	if blocked, why := a.detectChallenge(sess); blocked {
		// Abort gracefully with whatever was gathered before the wall.
		postings, _ := a.collectCards(sess, req)
		return ScrapeResult{
			Source:    indeedSource,
			Postings:  postings,
			Status:    StatusPartial,
			ErrorKind: ErrKindBlocked,
			Message:   why,
			Elapsed:   time.Since(started),
		}
	}

	skipped := a.applyFilters(ctx, sess, req)

	postings, err := a.collectCards(sess, req)
	if err != nil {
		return errorResult(indeedSource, started, err)
	}

	res := ScrapeResult{
		Source:   indeedSource,
		Postings: postings,
		Status:   StatusSuccess,
		Elapsed:  time.Since(started),
	}
	if len(skipped) > 0 {
		res.Status = StatusPartial
		res.ErrorKind = ErrKindVisionExhausted
		res.Message = "filters skipped: " + strings.Join(skipped, ", ")
	}
	if len(postings) == 0 && a.synthetic != nil {
		res.Postings = a.synthetic.Generate(req, indeedSource, req.LimitPerSource)
		res.Status = StatusPartial
		if res.Message == "" {
			res.Message = "no live results, synthetic fallback data returned"
		}
	}
	return res
}

func (a *IndeedAdapter) applyFilters(ctx context.Context, sess browserSession, req job.SearchRequest) []string {
	var skipped []string

	if req.DatePosted != job.DatePostedAny {
		if opt, known := indeedTargets.dateOptions[req.DatePosted]; known {
			before, _ := sess.Location()
			err := a.actor.Click(ctx, sess, indeedTargets.dateFilterButton, nil)
			if err == nil {
				err = a.actor.Click(ctx, sess, opt, interact.VerifyLocationChanged(before))
			}
			if err != nil {
				a.logf("date-posted filter skipped: %v", err)
				skipped = append(skipped, "date_posted")
			}
		}
	}

	for _, mod := range req.Modalities {
		if mod != job.ModalityRemote {
			// Indeed only exposes a remote toggle; other modalities are a
			// location concern there.
			continue
		}
		before, _ := sess.Location()
		if err := a.actor.Click(ctx, sess, indeedTargets.remoteFilter, interact.VerifyLocationChanged(before)); err != nil {
			a.logf("remote filter skipped: %v", err)
			skipped = append(skipped, "modality:remote")
		}
	}

	return skipped
}

func (a *IndeedAdapter) collectCards(sess browserSession, req job.SearchRequest) ([]job.Posting, error) {
	var cards []jobCard
	if err := sess.Evaluate(indeedCardsJS, &cards); err != nil {
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
			Source:      indeedSource,
			ScrapedAt:   now,
		})
	}
	return out, nil
}

func (a *IndeedAdapter) ExtractDetail(ctx context.Context, postingURL string) (job.Posting, error) {
	sess, err := a.newSession(ctx)
	if err != nil {
		return job.Posting{}, fmt.Errorf("open browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(postingURL); err != nil {
		return job.Posting{}, err
	}
	if blocked, why := a.detectChallenge(sess); blocked {
		return job.Posting{}, fmt.Errorf("%w: %s", ErrBlocked, why)
	}

	desc, err := a.actor.ReadText(ctx, sess, interact.Target{
		Name: "indeed job description",
		Selectors: []string{
			"#jobDescriptionText",
			".jobsearch-JobComponent-description",
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
		Source:      indeedSource,
		ScrapedAt:   time.Now().UTC(),
	}, nil
}

func (a *IndeedAdapter) searchURL(req job.SearchRequest) string {
	q := url.Values{}
	q.Set("q", req.Keywords)
	if req.Location != "" {
		q.Set("l", req.Location)
	}
	return a.baseURL + "/jobs?" + q.Encode()
}

func (a *IndeedAdapter) detectChallenge(sess browserSession) (bool, string) {
	var title string
	if err := sess.Evaluate(`document.title`, &title); err != nil {
		return false, ""
	}
	lower := strings.ToLower(title)
	for _, marker := range indeedChallengeMarkers {
		if strings.Contains(lower, marker) {
			return true, "challenge page detected: " + strings.TrimSpace(title)
		}
	}
	return false, ""
}

func (a *IndeedAdapter) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf("[Indeed] "+format, args...)
	}
}
