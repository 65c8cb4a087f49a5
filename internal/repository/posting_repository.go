// Package repository persists scraped postings. Deduplication across a run
// happens in memory before anything reaches here; the database's unique URL
// constraint only guards against duplicates across runs.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hemanthmaddila/AI-agent/internal/database"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

type PostingRepository struct {
	db database.DB
}

func NewPostingRepository(db database.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// Save upserts a posting keyed by canonical URL. A re-scraped posting keeps
// its row id and only refreshes fields the new scrape actually filled.
func (r *PostingRepository) Save(ctx context.Context, p job.Posting) (uuid.UUID, error) {
	if r == nil || r.db == nil {
		return uuid.Nil, fmt.Errorf("nil repository/db")
	}
	return r.save(ctx, r.db, p)
}

func (r *PostingRepository) save(ctx context.Context, q database.Querier, p job.Posting) (uuid.UUID, error) {
	url := strings.TrimSpace(p.URL)
	if url == "" {
		return uuid.Nil, fmt.Errorf("empty posting url")
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	scrapedAt := p.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	row := q.QueryRow(ctx,
		`INSERT INTO job_postings (
			id, title, company, location, url, description, source,
			salary_range, equity_range, funding_stage, is_synthetic,
			posted_at, scraped_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())
		ON CONFLICT (url) DO UPDATE SET
			title = COALESCE(NULLIF(EXCLUDED.title, ''), job_postings.title),
			company = COALESCE(NULLIF(EXCLUDED.company, ''), job_postings.company),
			location = COALESCE(NULLIF(EXCLUDED.location, ''), job_postings.location),
			description = COALESCE(NULLIF(EXCLUDED.description, ''), job_postings.description),
			salary_range = COALESCE(NULLIF(EXCLUDED.salary_range, ''), job_postings.salary_range),
			equity_range = COALESCE(NULLIF(EXCLUDED.equity_range, ''), job_postings.equity_range),
			funding_stage = COALESCE(NULLIF(EXCLUDED.funding_stage, ''), job_postings.funding_stage),
			is_synthetic = EXCLUDED.is_synthetic,
			posted_at = COALESCE(EXCLUDED.posted_at, job_postings.posted_at),
			scraped_at = EXCLUDED.scraped_at,
			updated_at = now()
		RETURNING id`,
		id,
		strings.TrimSpace(p.Title),
		strings.TrimSpace(p.Company),
		strings.TrimSpace(p.Location),
		url,
		p.Description,
		strings.TrimSpace(p.Source),
		strings.TrimSpace(p.SalaryRange),
		strings.TrimSpace(p.EquityRange),
		strings.TrimSpace(p.FundingStage),
		p.IsSynthetic,
		p.PostedAt,
		scrapedAt,
	)

	var saved uuid.UUID
	if err := row.Scan(&saved); err != nil {
		return uuid.Nil, fmt.Errorf("upsert posting url=%s: %w", url, err)
	}
	return saved, nil
}

// SaveAll persists a run's batch in a single transaction. When the batch
// fails, it is retried row by row, continuing past individual failures so
// one bad posting does not drop the rest of the results.
func (r *PostingRepository) SaveAll(ctx context.Context, postings []job.Posting) (int, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("nil repository/db")
	}
	if len(postings) == 0 {
		return 0, nil
	}

	if saved, err := r.saveAllTx(ctx, postings); err == nil {
		return saved, nil
	}

	var saved int
	var firstErr error
	for _, p := range postings {
		if _, err := r.save(ctx, r.db, p); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	return saved, firstErr
}

func (r *PostingRepository) saveAllTx(ctx context.Context, postings []job.Posting) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range postings {
		if _, err := r.save(ctx, tx, p); err != nil {
			_ = tx.Rollback(ctx)
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(postings), nil
}

func (r *PostingRepository) FindByURL(ctx context.Context, url string) (job.Posting, bool, error) {
	if r == nil || r.db == nil {
		return job.Posting{}, false, fmt.Errorf("nil repository/db")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return job.Posting{}, false, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, company, location, url, description, source,
			salary_range, equity_range, funding_stage, is_synthetic,
			posted_at, scraped_at
		FROM job_postings WHERE url = $1 LIMIT 1`, url)
	if err != nil {
		return job.Posting{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return job.Posting{}, false, rows.Err()
	}
	p, err := scanPosting(rows)
	if err != nil {
		return job.Posting{}, false, err
	}
	return p, true, nil
}

// Recent returns the newest postings, optionally limited to one source.
func (r *PostingRepository) Recent(ctx context.Context, source string, limit int) ([]job.Posting, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("nil repository/db")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, title, company, location, url, description, source,
			salary_range, equity_range, funding_stage, is_synthetic,
			posted_at, scraped_at
		FROM job_postings`
	args := []any{}
	source = strings.TrimSpace(strings.ToLower(source))
	if source != "" {
		query += ` WHERE source = $1 ORDER BY scraped_at DESC LIMIT $2`
		args = append(args, source, limit)
	} else {
		query += ` ORDER BY scraped_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []job.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPosting(rows database.Rows) (job.Posting, error) {
	var p job.Posting
	var company, location, description, salary, equity, funding *string
	var postedAt *time.Time
	err := rows.Scan(
		&p.ID, &p.Title, &company, &location, &p.URL, &description, &p.Source,
		&salary, &equity, &funding, &p.IsSynthetic, &postedAt, &p.ScrapedAt,
	)
	if err != nil {
		return job.Posting{}, err
	}
	p.Company = deref(company)
	p.Location = deref(location)
	p.Description = deref(description)
	p.SalaryRange = deref(salary)
	p.EquityRange = deref(equity)
	p.FundingStage = deref(funding)
	p.PostedAt = postedAt
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
