package job

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Posting is one job offer as returned by a site adapter. Adapters treat a
// Posting as immutable once emitted; only the deduplicator is allowed to
// merge fields from duplicate candidates into a surviving record.
type Posting struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Location     string     `json:"location,omitempty"`
	URL          string     `json:"url"`
	Description  string     `json:"description,omitempty"`
	Source       string     `json:"source"`
	SalaryRange  string     `json:"salary_range,omitempty"`
	EquityRange  string     `json:"equity_range,omitempty"`
	FundingStage string     `json:"funding_stage,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	ScrapedAt    time.Time  `json:"scraped_at"`
	IsSynthetic  bool       `json:"is_synthetic"`
}

type DatePostedFilter string

const (
	DatePostedAny       DatePostedFilter = ""
	DatePostedPastDay   DatePostedFilter = "past_day"
	DatePostedPastWeek  DatePostedFilter = "past_week"
	DatePostedPastMonth DatePostedFilter = "past_month"
)

type ExperienceLevel string

const (
	ExperienceInternship ExperienceLevel = "internship"
	ExperienceEntry      ExperienceLevel = "entry"
	ExperienceAssociate  ExperienceLevel = "associate"
	ExperienceMidSenior  ExperienceLevel = "mid_senior"
	ExperienceDirector   ExperienceLevel = "director"
)

type WorkModality string

const (
	ModalityOnSite WorkModality = "on_site"
	ModalityRemote WorkModality = "remote"
	ModalityHybrid WorkModality = "hybrid"
)

// SearchRequest describes one multi-source search invocation. It is created
// once per search and read-only afterwards.
type SearchRequest struct {
	Keywords         string            `json:"keywords"`
	Location         string            `json:"location,omitempty"`
	LimitPerSource   int               `json:"limit_per_source,omitempty"`
	DatePosted       DatePostedFilter  `json:"date_posted,omitempty"`
	ExperienceLevels []ExperienceLevel `json:"experience_levels,omitempty"`
	Modalities       []WorkModality    `json:"modalities,omitempty"`
	EnabledSources   []string          `json:"enabled_sources,omitempty"`
}

func (r SearchRequest) Normalized() SearchRequest {
	out := r
	out.Keywords = strings.TrimSpace(r.Keywords)
	out.Location = strings.TrimSpace(r.Location)
	if out.LimitPerSource <= 0 {
		out.LimitPerSource = 10
	}
	srcs := make([]string, 0, len(r.EnabledSources))
	for _, s := range r.EnabledSources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			srcs = append(srcs, s)
		}
	}
	out.EnabledSources = srcs
	return out
}

// WantsSource reports whether the request restricts sources and, if so,
// whether the given source identifier is among them. An empty EnabledSources
// set means "all registered and enabled sources".
func (r SearchRequest) WantsSource(source string) bool {
	if len(r.EnabledSources) == 0 {
		return true
	}
	source = strings.ToLower(strings.TrimSpace(source))
	for _, s := range r.EnabledSources {
		if s == source {
			return true
		}
	}
	return false
}
