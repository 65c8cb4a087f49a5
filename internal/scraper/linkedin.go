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
	"github.com/Hemanthmaddila/AI-agent/internal/session"
)

const linkedinSource = "linkedin"

// Ordered candidate locators per semantic target. Site churn is absorbed by
// editing these lists, not adapter logic; when every candidate is stale the
// interaction layer falls back to vision.
var linkedinTargets = struct {
	datePostedButton   interact.Target
	dateOptions        map[job.DatePostedFilter]interact.Target
	experienceButton   interact.Target
	experienceOptions  map[job.ExperienceLevel]interact.Target
	modalityButton     interact.Target
	modalityOptions    map[job.WorkModality]interact.Target
	showResultsButton  interact.Target
	activeFilterProbes []string
}{
	datePostedButton: interact.Target{
		Name: "linkedin date-posted filter button",
		Selectors: []string{
			"button[aria-label*='Date posted filter']",
			"#searchFilter_timePostedRange",
			"button[data-control-name='filter_time_posted']",
		},
		Description: "the 'Date posted' filter button in the job search filter bar",
		PageContext: "LinkedIn job search results page",
	},
	dateOptions: map[job.DatePostedFilter]interact.Target{
		job.DatePostedPastDay: {
			Name:        "linkedin past-24-hours option",
			Selectors:   []string{"label[for='timePostedRange-r86400']", "input[value='r86400'] + label"},
			Description: "the 'Past 24 hours' option inside the open date-posted dropdown",
			PageContext: "LinkedIn job search results page with the date-posted dropdown open",
		},
		job.DatePostedPastWeek: {
			Name:        "linkedin past-week option",
			Selectors:   []string{"label[for='timePostedRange-r604800']", "input[value='r604800'] + label"},
			Description: "the 'Past week' option inside the open date-posted dropdown",
			PageContext: "LinkedIn job search results page with the date-posted dropdown open",
		},
		job.DatePostedPastMonth: {
			Name:        "linkedin past-month option",
			Selectors:   []string{"label[for='timePostedRange-r2592000']", "input[value='r2592000'] + label"},
			Description: "the 'Past month' option inside the open date-posted dropdown",
			PageContext: "LinkedIn job search results page with the date-posted dropdown open",
		},
	},
	experienceButton: interact.Target{
		Name: "linkedin experience-level filter button",
		Selectors: []string{
			"button[aria-label*='Experience level filter']",
			"#searchFilter_experience",
		},
		Description: "the 'Experience level' filter button in the job search filter bar",
		PageContext: "LinkedIn job search results page",
	},
	experienceOptions: map[job.ExperienceLevel]interact.Target{
		job.ExperienceInternship: {
			Name:        "linkedin internship option",
			Selectors:   []string{"label[for='experience-1']"},
			Description: "the 'Internship' checkbox inside the open experience-level dropdown",
		},
		job.ExperienceEntry: {
			Name:        "linkedin entry-level option",
			Selectors:   []string{"label[for='experience-2']"},
			Description: "the 'Entry level' checkbox inside the open experience-level dropdown",
		},
		job.ExperienceAssociate: {
			Name:        "linkedin associate option",
			Selectors:   []string{"label[for='experience-3']"},
			Description: "the 'Associate' checkbox inside the open experience-level dropdown",
		},
		job.ExperienceMidSenior: {
			Name:        "linkedin mid-senior option",
			Selectors:   []string{"label[for='experience-4']"},
			Description: "the 'Mid-Senior level' checkbox inside the open experience-level dropdown",
		},
		job.ExperienceDirector: {
			Name:        "linkedin director option",
			Selectors:   []string{"label[for='experience-5']"},
			Description: "the 'Director' checkbox inside the open experience-level dropdown",
		},
	},
	modalityButton: interact.Target{
		Name: "linkedin work-modality filter button",
		Selectors: []string{
			"button[aria-label*='Remote filter']",
			"#searchFilter_workplaceType",
		},
		Description: "the 'Remote' (workplace type) filter button in the job search filter bar",
		PageContext: "LinkedIn job search results page",
	},
	modalityOptions: map[job.WorkModality]interact.Target{
		job.ModalityOnSite: {
			Name:        "linkedin on-site option",
			Selectors:   []string{"label[for='workplaceType-1']"},
			Description: "the 'On-site' checkbox inside the open workplace-type dropdown",
		},
		job.ModalityRemote: {
			Name:        "linkedin remote option",
			Selectors:   []string{"label[for='workplaceType-2']"},
			Description: "the 'Remote' checkbox inside the open workplace-type dropdown",
		},
		job.ModalityHybrid: {
			Name:        "linkedin hybrid option",
			Selectors:   []string{"label[for='workplaceType-3']"},
			Description: "the 'Hybrid' checkbox inside the open workplace-type dropdown",
		},
	},
	showResultsButton: interact.Target{
		Name: "linkedin show-results button",
		Selectors: []string{
			"button[aria-label*='Apply current filter']",
			"button[data-control-name='filter_show_results']",
		},
		Description: "the 'Show results' button confirming the selected filters",
	},
	activeFilterProbes: []string{
		"button[aria-label*='filter'][aria-checked='true']",
		".search-reusables__filter-pill-button--selected",
	},
}

const linkedinCardsJS = `Array.from(document.querySelectorAll('li[data-occludable-job-id], .jobs-search-results__list-item')).map(li => {
	const title = li.querySelector('.job-card-list__title, a.job-card-container__link');
	const company = li.querySelector('.job-card-container__primary-description, .job-card-container__company-name');
	const location = li.querySelector('.job-card-container__metadata-item');
	const link = li.querySelector('a[href*="/jobs/view/"]');
	return {
		title: title ? title.innerText.trim() : '',
		company: company ? company.innerText.trim() : '',
		location: location ? location.innerText.trim() : '',
		url: link ? link.href : '',
		salary: '',
		posted: ''
	};
}).filter(c => c.url)`

// LinkedInAdapter drives the LinkedIn jobs UI through a browser session. It
// requires stored authentication state: with no valid session it reports
// AuthenticationRequired instead of attempting an interactive login.
type LinkedInAdapter struct {
	cfg        config.ScraperConfig
	actor      *interact.Actor
	sessions   session.Store
	synthetic  *SyntheticProvider
	logger     *log.Logger
	baseURL    string
	newSession sessionFactory
}

func NewLinkedInAdapter(cfg config.ScraperConfig, actor *interact.Actor, sessions session.Store, logger *log.Logger) *LinkedInAdapter {
	a := &LinkedInAdapter{
		cfg:      cfg,
		actor:    actor,
		sessions: sessions,
		logger:   logger,
		baseURL:  "https://www.linkedin.com",
	}
	if cfg.SyntheticFallback {
		a.synthetic = NewSyntheticProvider()
	}
	a.newSession = newBrowserFactory(cfg, logger)
	return a
}

func (a *LinkedInAdapter) Source() string { return linkedinSource }

func (a *LinkedInAdapter) Search(ctx context.Context, req job.SearchRequest) ScrapeResult {
	started := time.Now()
	return guardSearch(linkedinSource, started, a.logger, func() ScrapeResult {
		return a.search(ctx, req, started)
	})
}

func (a *LinkedInAdapter) search(ctx context.Context, req job.SearchRequest, started time.Time) ScrapeResult {
	sess, err := a.newSession(ctx)
	if err != nil {
		return errorResult(linkedinSource, started, fmt.Errorf("open browser: %w", err))
	}
	defer sess.Close()

	st, ok, err := a.sessions.Get(ctx, linkedinSource)
	if err != nil {
		return errorResult(linkedinSource, started, fmt.Errorf("session store: %w", err))
	}
	if !ok {
		return errorResult(linkedinSource, started, ErrAuthRequired)
	}

	if err := sess.Navigate(a.baseURL); err != nil {
		return errorResult(linkedinSource, started, err)
	}
	if err := sess.SetCookies(st.Payload); err != nil {
		a.logf("restoring cookies failed: %v", err)
		_ = a.sessions.Invalidate(ctx, linkedinSource)
		return errorResult(linkedinSource, started, ErrAuthRequired)
	}

	if err := sess.Navigate(a.searchURL(req)); err != nil {
		return errorResult(linkedinSource, started, err)
	}

	if blocked, why := a.detectChallenge(sess); blocked {
		return ScrapeResult{
			Source:    linkedinSource,
			Status:    StatusPartial,
			ErrorKind: ErrKindBlocked,
			Message:   why,
			Elapsed:   time.Since(started),
		}
	}

	if !a.loggedIn(sess) {
		_ = a.sessions.Invalidate(ctx, linkedinSource)
		return errorResult(linkedinSource, started, ErrAuthRequired)
	}

	skipped := a.applyFilters(ctx, sess, req)

	postings, err := a.collectCards(sess, req)
	if err != nil {
		return errorResult(linkedinSource, started, err)
	}

	// Refresh the stored session so the rolling validity window restarts
	// from a run that actually worked.
	if payload, err := sess.Cookies(); err == nil {
		_ = a.sessions.Save(ctx, linkedinSource, session.State{Payload: payload})
	}

	res := ScrapeResult{
		Source:   linkedinSource,
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
		res.Postings = a.synthetic.Generate(req, linkedinSource, req.LimitPerSource)
		res.Status = StatusPartial
		if res.Message == "" {
			res.Message = "no live results, synthetic fallback data returned"
		}
	}
	return res
}

// applyFilters walks the requested filters through the interaction layer.
// A filter whose interaction exhausts the fallback budget is skippable: the
// search continues unfiltered on that axis and the skip is reported.
func (a *LinkedInAdapter) applyFilters(ctx context.Context, sess browserSession, req job.SearchRequest) []string {
	var skipped []string

	if req.DatePosted != job.DatePostedAny {
		opt, known := linkedinTargets.dateOptions[req.DatePosted]
		if known {
			if err := a.clickFilter(ctx, sess, linkedinTargets.datePostedButton, opt); err != nil {
				a.logf("date-posted filter skipped: %v", err)
				skipped = append(skipped, "date_posted")
			}
		}
	}

	for _, lvl := range req.ExperienceLevels {
		opt, known := linkedinTargets.experienceOptions[lvl]
		if !known {
			continue
		}
		if err := a.clickFilter(ctx, sess, linkedinTargets.experienceButton, opt); err != nil {
			a.logf("experience filter %s skipped: %v", lvl, err)
			skipped = append(skipped, "experience:"+string(lvl))
		}
	}

	for _, mod := range req.Modalities {
		opt, known := linkedinTargets.modalityOptions[mod]
		if !known {
			continue
		}
		if err := a.clickFilter(ctx, sess, linkedinTargets.modalityButton, opt); err != nil {
			a.logf("modality filter %s skipped: %v", mod, err)
			skipped = append(skipped, "modality:"+string(mod))
		}
	}

	return skipped
}

func (a *LinkedInAdapter) clickFilter(ctx context.Context, sess browserSession, button, option interact.Target) error {
	before, _ := sess.Location()
	if err := a.actor.Click(ctx, sess, button, nil); err != nil {
		return err
	}
	verify := interact.VerifySelectorVisible(linkedinTargets.activeFilterProbes...)
	if before != "" {
		// Applying a LinkedIn filter rewrites the query string, which is a
		// cheaper signal than probing for pill elements.
		verify = interact.VerifyLocationChanged(before)
	}
	if err := a.actor.Click(ctx, sess, option, verify); err != nil {
		return err
	}
	// Best effort; some filter dropdowns apply on selection.
	_ = a.actor.Click(ctx, sess, linkedinTargets.showResultsButton, nil)
	return nil
}

func (a *LinkedInAdapter) collectCards(sess browserSession, req job.SearchRequest) ([]job.Posting, error) {
	var cards []jobCard
	if err := sess.Evaluate(linkedinCardsJS, &cards); err != nil {
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
			ID:        uuid.New(),
			Title:     cleanText(c.Title),
			Company:   cleanText(c.Company),
			Location:  cleanText(c.Location),
			URL:       strings.TrimSpace(c.URL),
			Source:    linkedinSource,
			ScrapedAt: now,
		})
	}
	return out, nil
}

// ExtractDetail loads one posting page and fills in the description.
func (a *LinkedInAdapter) ExtractDetail(ctx context.Context, postingURL string) (job.Posting, error) {
	sess, err := a.newSession(ctx)
	if err != nil {
		return job.Posting{}, fmt.Errorf("open browser: %w", err)
	}
	defer sess.Close()

	if st, ok, _ := a.sessions.Get(ctx, linkedinSource); ok {
		if err := sess.Navigate(a.baseURL); err == nil {
			_ = sess.SetCookies(st.Payload)
		}
	}

	if err := sess.Navigate(postingURL); err != nil {
		return job.Posting{}, err
	}

	desc, err := a.actor.ReadText(ctx, sess, interact.Target{
		Name: "linkedin job description",
		Selectors: []string{
			".jobs-description__content",
			".jobs-box__html-content",
			"#job-details",
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
		Source:      linkedinSource,
		ScrapedAt:   time.Now().UTC(),
	}, nil
}

func (a *LinkedInAdapter) searchURL(req job.SearchRequest) string {
	q := url.Values{}
	q.Set("keywords", req.Keywords)
	if req.Location != "" {
		q.Set("location", req.Location)
	}
	return a.baseURL + "/jobs/search/?" + q.Encode()
}

func (a *LinkedInAdapter) detectChallenge(sess browserSession) (bool, string) {
	loc, err := sess.Location()
	if err != nil {
		return false, ""
	}
	if strings.Contains(loc, "/checkpoint/") || strings.Contains(loc, "/challenge") {
		return true, "redirected to security checkpoint: " + loc
	}
	return false, ""
}

func (a *LinkedInAdapter) loggedIn(sess browserSession) bool {
	_, ok := sess.FindFirst([]string{
		".global-nav__me",
		"img.global-nav__me-photo",
	})
	return ok
}

func (a *LinkedInAdapter) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf("[LinkedIn] "+format, args...)
	}
}
