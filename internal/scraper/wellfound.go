package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/interact"
)

const wellfoundSource = "wellfound"

const wellfoundBodyTextJS = `document.body ? document.body.innerText : ''`

// Wellfound renders listings client-side, so cards are lifted with their full
// text: salary, equity and funding stage only appear as prose on the card.
const wellfoundCardsJS = `Array.from(document.querySelectorAll('[data-test="StartupResult"], [class*="styles_result"], div[class*="job-listing"]')).map(card => {
	const title = card.querySelector('a[href*="/jobs/"] span, [class*="title"] a, h4 a');
	const company = card.querySelector('h2, [class*="startup"] a, [class*="company"]');
	const location = card.querySelector('[class*="location"], span[class*="metadata"]');
	const link = card.querySelector('a[href*="/jobs/"]');
	return {
		title: title ? title.innerText.trim() : '',
		company: company ? company.innerText.trim() : '',
		location: location ? location.innerText.trim() : '',
		url: link ? link.href : '',
		salary: '',
		posted: '',
		text: card.innerText
	};
}).filter(c => c.url)`

var wellfoundLoginMarkers = []string{"login", "sign in", "sign up", "register", "authenticate"}

var wellfoundBlockMarkers = []string{
	"captcha",
	"access denied",
	"security check",
	"human verification",
	"too many requests",
	"rate limit",
}

// Compensation prose patterns. Wellfound writes equity as a percent range
// and salary as a dollar range on the card itself.
var (
	wellfoundSalaryRe  = regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})*)k?\s*[-\x{2013}]\s*\$(\d{1,3}(?:,\d{3})*)(k?)`)
	wellfoundEquityRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*[-\x{2013}]\s*(\d+(?:\.\d+)?)\s*%(?:\s*equity)?`)
	wellfoundFundingRe = regexp.MustCompile(`(?i)\b(pre-seed|seed|series [a-e])\b`)
)

// WellfoundAdapter drives the Wellfound (formerly AngelList Talent) startup
// job board. Search works logged out, but Wellfound redirects to login or a
// verification wall under automation pressure; both are detected and
// reported rather than fought.
type WellfoundAdapter struct {
	cfg        config.ScraperConfig
	actor      *interact.Actor
	synthetic  *SyntheticProvider
	logger     *log.Logger
	baseURL    string
	newSession sessionFactory
}

func NewWellfoundAdapter(cfg config.ScraperConfig, actor *interact.Actor, logger *log.Logger) *WellfoundAdapter {
	a := &WellfoundAdapter{
		cfg:     cfg,
		actor:   actor,
		logger:  logger,
		baseURL: "https://wellfound.com",
	}
	if cfg.SyntheticFallback {
		a.synthetic = NewSyntheticProvider()
	}
	a.newSession = newBrowserFactory(cfg, logger)
	return a
}

func (a *WellfoundAdapter) Source() string { return wellfoundSource }

func (a *WellfoundAdapter) Search(ctx context.Context, req job.SearchRequest) ScrapeResult {
	started := time.Now()
	return guardSearch(wellfoundSource, started, a.logger, func() ScrapeResult {
		return a.search(ctx, req, started)
	})
}

func (a *WellfoundAdapter) search(ctx context.Context, req job.SearchRequest, started time.Time) ScrapeResult {
	sess, err := a.newSession(ctx)
	if err != nil {
		return errorResult(wellfoundSource, started, fmt.Errorf("open browser: %w", err))
	}
	defer sess.Close()

	if err := sess.Navigate(a.searchURL(req)); err != nil {
		return errorResult(wellfoundSource, started, err)
	}

	if a.loginRequired(sess) {
		a.logf("login wall hit, no anonymous access")
		return a.fallbackResult(req, started, ErrKindAuthRequired, "redirected to login, no anonymous access")
	}
	if blocked, why := a.detectBlock(sess); blocked {
		a.logf("blocked: %s", why)
		return a.fallbackResult(req, started, ErrKindBlocked, why)
	}

	postings, err := a.collectCards(sess, req)
	if err != nil {
		return errorResult(wellfoundSource, started, err)
	}

	res := ScrapeResult{
		Source:   wellfoundSource,
		Postings: postings,
		Status:   StatusSuccess,
		Elapsed:  time.Since(started),
	}
	if len(postings) == 0 && a.synthetic != nil {
		res.Postings = a.syntheticStartupPostings(req)
		res.Status = StatusPartial
		res.Message = "no live results, synthetic fallback data returned"
	}
	return res
}

// fallbackResult classifies a wall (login or block) and, when the operator
// opted in, still hands back tagged placeholder postings so the aggregate
// report is not empty on that source.
func (a *WellfoundAdapter) fallbackResult(req job.SearchRequest, started time.Time, kind ErrorKind, why string) ScrapeResult {
	res := ScrapeResult{
		Source:    wellfoundSource,
		Status:    StatusPartial,
		ErrorKind: kind,
		Message:   why,
		Elapsed:   time.Since(started),
	}
	if a.synthetic != nil {
		res.Postings = a.syntheticStartupPostings(req)
	} else if kind == ErrKindAuthRequired {
		res.Status = StatusError
	}
	return res
}

func (a *WellfoundAdapter) syntheticStartupPostings(req job.SearchRequest) []job.Posting {
	out := a.synthetic.Generate(req, wellfoundSource, req.LimitPerSource)
	stages := []string{"Seed", "Series A", "Series B"}
	for i := range out {
		out[i].EquityRange = fmt.Sprintf("0.%d%% - 1.0%%", i+1)
		out[i].FundingStage = stages[i%len(stages)]
	}
	return out
}

func (a *WellfoundAdapter) collectCards(sess browserSession, req job.SearchRequest) ([]job.Posting, error) {
	var cards []jobCard
	if err := sess.Evaluate(wellfoundCardsJS, &cards); err != nil {
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
		p := job.Posting{
			ID:        uuid.New(),
			Title:     cleanText(c.Title),
			Company:   cleanText(c.Company),
			Location:  cleanText(c.Location),
			URL:       strings.TrimSpace(c.URL),
			Source:    wellfoundSource,
			ScrapedAt: now,
		}
		p.SalaryRange = extractSalaryRange(c.Text)
		p.EquityRange = extractEquityRange(c.Text)
		p.FundingStage = extractFundingStage(c.Text)
		out = append(out, p)
	}
	return out, nil
}

func (a *WellfoundAdapter) ExtractDetail(ctx context.Context, postingURL string) (job.Posting, error) {
	sess, err := a.newSession(ctx)
	if err != nil {
		return job.Posting{}, fmt.Errorf("open browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(postingURL); err != nil {
		return job.Posting{}, err
	}
	if a.loginRequired(sess) {
		return job.Posting{}, ErrAuthRequired
	}

	desc, err := a.actor.ReadText(ctx, sess, interact.Target{
		Name: "wellfound job description",
		Selectors: []string{
			"[class*='styles_description']",
			"#job-description",
			"main section",
		},
		Description: "the job description body text",
	})
	if err != nil {
		return job.Posting{}, err
	}

	title, _ := sess.Text("h1")
	return job.Posting{
		ID:           uuid.New(),
		Title:        cleanText(title),
		URL:          postingURL,
		Description:  cleanText(desc),
		SalaryRange:  extractSalaryRange(desc),
		EquityRange:  extractEquityRange(desc),
		FundingStage: extractFundingStage(desc),
		Source:       wellfoundSource,
		ScrapedAt:    time.Now().UTC(),
	}, nil
}

func (a *WellfoundAdapter) searchURL(req job.SearchRequest) string {
	q := url.Values{}
	q.Set("q", req.Keywords)
	if req.Location != "" {
		q.Set("location", req.Location)
	}
	return a.baseURL + "/jobs?" + q.Encode()
}

func (a *WellfoundAdapter) loginRequired(sess browserSession) bool {
	loc, err := sess.Location()
	if err == nil {
		lower := strings.ToLower(loc)
		for _, m := range wellfoundLoginMarkers {
			if strings.Contains(lower, strings.ReplaceAll(m, " ", "")) {
				return true
			}
		}
	}
	var title string
	if err := sess.Evaluate(`document.title`, &title); err != nil {
		return false
	}
	lower := strings.ToLower(title)
	for _, m := range wellfoundLoginMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (a *WellfoundAdapter) detectBlock(sess browserSession) (bool, string) {
	var body string
	if err := sess.Evaluate(wellfoundBodyTextJS, &body); err != nil {
		return false, ""
	}
	lower := strings.ToLower(body)
	for _, m := range wellfoundBlockMarkers {
		if strings.Contains(lower, m) {
			return true, "site protection detected: " + m
		}
	}
	return false, ""
}

func extractSalaryRange(text string) string {
	m := wellfoundSalaryRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	suffix := ""
	if strings.EqualFold(m[3], "k") {
		suffix = "k"
	}
	return fmt.Sprintf("$%s%s - $%s%s", m[1], suffix, m[2], suffix)
}

func extractEquityRange(text string) string {
	// Only trust a percent range when the card actually talks about equity;
	// bare percent ranges show up in unrelated prose.
	if !strings.Contains(strings.ToLower(text), "equity") {
		return ""
	}
	m := wellfoundEquityRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + "% - " + m[2] + "%"
}

func extractFundingStage(text string) string {
	m := wellfoundFundingRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	stage := strings.ToLower(m[1])
	switch {
	case stage == "pre-seed":
		return "Pre-Seed"
	case stage == "seed":
		return "Seed"
	default:
		return "Series " + strings.ToUpper(stage[len(stage)-1:])
	}
}

func (a *WellfoundAdapter) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf("[Wellfound] "+format, args...)
	}
}
