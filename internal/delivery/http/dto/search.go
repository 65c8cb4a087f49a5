package dto

import (
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
)

type SearchRequest struct {
	Keywords         string   `json:"keywords"`
	Location         string   `json:"location"`
	LimitPerSource   int      `json:"limit_per_source"`
	DatePosted       string   `json:"date_posted"`
	ExperienceLevels []string `json:"experience_levels"`
	Modalities       []string `json:"modalities"`
	Sources          []string `json:"sources"`
}

func (r SearchRequest) ToDomain() job.SearchRequest {
	levels := make([]job.ExperienceLevel, 0, len(r.ExperienceLevels))
	for _, l := range r.ExperienceLevels {
		levels = append(levels, job.ExperienceLevel(l))
	}
	mods := make([]job.WorkModality, 0, len(r.Modalities))
	for _, m := range r.Modalities {
		mods = append(mods, job.WorkModality(m))
	}
	return job.SearchRequest{
		Keywords:         r.Keywords,
		Location:         r.Location,
		LimitPerSource:   r.LimitPerSource,
		DatePosted:       job.DatePostedFilter(r.DatePosted),
		ExperienceLevels: levels,
		Modalities:       mods,
		EnabledSources:   r.Sources,
	}.Normalized()
}

type SourceResult struct {
	Source    string `json:"source"`
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
	Postings  int    `json:"postings"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

type SearchResponse struct {
	Postings          []job.Posting  `json:"postings"`
	Results           []SourceResult `json:"results"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	ElapsedMS         int64          `json:"elapsed_ms"`
	Persisted         int            `json:"persisted,omitempty"`
}

func NewSearchResponse(report scraper.Report, persisted int) SearchResponse {
	results := make([]SourceResult, 0, len(report.Results))
	for _, res := range report.Results {
		results = append(results, SourceResult{
			Source:    res.Source,
			Status:    string(res.Status),
			ErrorKind: string(res.ErrorKind),
			Message:   res.Message,
			Postings:  len(res.Postings),
			ElapsedMS: res.Elapsed.Milliseconds(),
		})
	}
	return SearchResponse{
		Postings:          report.Postings,
		Results:           results,
		DuplicatesRemoved: report.DuplicatesRemoved,
		ElapsedMS:         report.Elapsed.Milliseconds(),
		Persisted:         persisted,
	}
}

type UpdateSourceRequest struct {
	Enabled *bool `json:"enabled"`
}
