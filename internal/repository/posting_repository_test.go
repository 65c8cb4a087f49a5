package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Hemanthmaddila/AI-agent/internal/database"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

type storedPosting struct {
	id        uuid.UUID
	p         job.Posting
	scrapedAt time.Time
}

type fakeDB struct {
	mu        sync.Mutex
	byURL     map[string]*storedPosting
	failOnURL string

	supportsTx bool
	lastTx     *fakeTx
}

func newFakeDB() *fakeDB {
	return &fakeDB{byURL: map[string]*storedPosting{}}
}

func (db *fakeDB) Ping(ctx context.Context) error { return nil }
func (db *fakeDB) Close() error                   { return nil }
func (db *fakeDB) SQLDB() *sql.DB                 { return nil }

func (db *fakeDB) Begin(ctx context.Context) (database.Tx, error) {
	if !db.supportsTx {
		return nil, fmt.Errorf("transactions disabled")
	}
	db.lastTx = &fakeTx{db: db}
	return db.lastTx, nil
}

// fakeTx delegates upserts to the backing fakeDB and tracks which rows it
// inserted, so Rollback can undo an aborted batch.
type fakeTx struct {
	db         *fakeDB
	staged     []string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return 0, fmt.Errorf("unexpected exec in tx: %s", query)
}

func (t *fakeTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return nil, fmt.Errorf("unexpected query in tx: %s", query)
}

func (t *fakeTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	url, _ := args[4].(string)
	t.db.mu.Lock()
	_, existed := t.db.byURL[url]
	t.db.mu.Unlock()

	row := t.db.QueryRow(ctx, query, args...)
	if fr, ok := row.(fakeRow); ok && fr.err == nil && !existed {
		t.staged = append(t.staged, url)
	}
	return row
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	t.db.mu.Lock()
	for _, u := range t.staged {
		delete(t.db.byURL, u)
	}
	t.db.mu.Unlock()
	return nil
}

func (db *fakeDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return 0, fmt.Errorf("unexpected exec: %s", query)
}

// QueryRow interprets the upsert the repository issues. Arg order matches
// the INSERT column list: id, title, company, location, url, description,
// source, salary, equity, funding, is_synthetic, posted_at, scraped_at.
func (db *fakeDB) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !strings.HasPrefix(strings.TrimSpace(query), "INSERT INTO job_postings") {
		return fakeRow{err: fmt.Errorf("unexpected query: %s", query)}
	}
	if len(args) != 13 {
		return fakeRow{err: fmt.Errorf("want 13 args, got %d", len(args))}
	}

	url := args[4].(string)
	if url == db.failOnURL {
		return fakeRow{err: fmt.Errorf("simulated constraint violation")}
	}

	incoming := job.Posting{
		Title:        args[1].(string),
		Company:      args[2].(string),
		Location:     args[3].(string),
		URL:          url,
		Description:  args[5].(string),
		Source:       args[6].(string),
		SalaryRange:  args[7].(string),
		EquityRange:  args[8].(string),
		FundingStage: args[9].(string),
		IsSynthetic:  args[10].(bool),
	}
	if pa, ok := args[11].(*time.Time); ok {
		incoming.PostedAt = pa
	}
	scrapedAt := args[12].(time.Time)

	existing, ok := db.byURL[url]
	if !ok {
		db.byURL[url] = &storedPosting{id: args[0].(uuid.UUID), p: incoming, scrapedAt: scrapedAt}
		return fakeRow{vals: []any{args[0].(uuid.UUID)}}
	}

	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&existing.p.Title, incoming.Title)
	merge(&existing.p.Company, incoming.Company)
	merge(&existing.p.Location, incoming.Location)
	merge(&existing.p.Description, incoming.Description)
	merge(&existing.p.SalaryRange, incoming.SalaryRange)
	merge(&existing.p.EquityRange, incoming.EquityRange)
	merge(&existing.p.FundingStage, incoming.FundingStage)
	existing.p.IsSynthetic = incoming.IsSynthetic
	if incoming.PostedAt != nil {
		existing.p.PostedAt = incoming.PostedAt
	}
	existing.scrapedAt = scrapedAt
	return fakeRow{vals: []any{existing.id}}
}

func (db *fakeDB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched []*storedPosting
	switch {
	case strings.Contains(query, "WHERE url = $1"):
		if sp, ok := db.byURL[args[0].(string)]; ok {
			matched = append(matched, sp)
		}

	case strings.Contains(query, "WHERE source = $1"):
		for _, sp := range db.byURL {
			if sp.p.Source == args[0].(string) {
				matched = append(matched, sp)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].scrapedAt.After(matched[j].scrapedAt) })
		if limit := args[1].(int); len(matched) > limit {
			matched = matched[:limit]
		}

	case strings.Contains(query, "ORDER BY scraped_at"):
		for _, sp := range db.byURL {
			matched = append(matched, sp)
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].scrapedAt.After(matched[j].scrapedAt) })
		if limit := args[0].(int); len(matched) > limit {
			matched = matched[:limit]
		}

	default:
		return nil, fmt.Errorf("unexpected query: %s", query)
	}

	rows := &fakeRows{}
	for _, sp := range matched {
		rows.rows = append(rows.rows, sp.rowValues())
	}
	return rows, nil
}

// rowValues mirrors the SELECT column list the repository scans.
func (sp *storedPosting) rowValues() []any {
	optional := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return []any{
		sp.id, sp.p.Title, optional(sp.p.Company), optional(sp.p.Location), sp.p.URL,
		optional(sp.p.Description), sp.p.Source, optional(sp.p.SalaryRange),
		optional(sp.p.EquityRange), optional(sp.p.FundingStage), sp.p.IsSynthetic,
		sp.p.PostedAt, sp.scrapedAt,
	}
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(dest, r.vals)
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(dest, r.rows[r.idx-1])
}

func scanInto(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan dest mismatch: %d != %d", len(dest), len(vals))
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = vals[i].(uuid.UUID)
		case *string:
			*d = vals[i].(string)
		case **string:
			if vals[i] == nil {
				*d = nil
			} else {
				*d = vals[i].(*string)
			}
		case *bool:
			*d = vals[i].(bool)
		case *time.Time:
			*d = vals[i].(time.Time)
		case **time.Time:
			if vals[i] == nil {
				*d = nil
			} else {
				*d = vals[i].(*time.Time)
			}
		default:
			return fmt.Errorf("unsupported scan type %T", dest[i])
		}
	}
	return nil
}

func TestSaveInsertsAndFindsBack(t *testing.T) {
	db := newFakeDB()
	repo := NewPostingRepository(db)
	ctx := context.Background()

	id, err := repo.Save(ctx, job.Posting{
		Title:       "Go Engineer",
		Company:     "Acme",
		URL:         "https://example.com/jobs/1",
		Source:      "linkedin",
		Description: "Build services in Go.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == uuid.Nil {
		t.Fatal("save returned nil id")
	}

	got, ok, err := repo.FindByURL(ctx, "https://example.com/jobs/1")
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if got.Title != "Go Engineer" || got.Company != "Acme" || got.Source != "linkedin" {
		t.Fatalf("unexpected posting: %+v", got)
	}
}

func TestSaveUpsertKeepsIDAndFillsFields(t *testing.T) {
	db := newFakeDB()
	repo := NewPostingRepository(db)
	ctx := context.Background()

	first, err := repo.Save(ctx, job.Posting{
		Title:  "Go Engineer",
		URL:    "https://example.com/jobs/1",
		Source: "linkedin",
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := repo.Save(ctx, job.Posting{
		Title:       "Go Engineer",
		Company:     "Acme",
		URL:         "https://example.com/jobs/1",
		Source:      "linkedin",
		SalaryRange: "$150k",
	})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("re-scrape changed the row id: %s != %s", first, second)
	}

	got, _, err := repo.FindByURL(ctx, "https://example.com/jobs/1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Company != "Acme" || got.SalaryRange != "$150k" {
		t.Fatalf("upsert did not fill new fields: %+v", got)
	}
}

func TestSaveUpsertDoesNotBlankExistingFields(t *testing.T) {
	db := newFakeDB()
	repo := NewPostingRepository(db)
	ctx := context.Background()

	if _, err := repo.Save(ctx, job.Posting{
		Title:       "Go Engineer",
		Company:     "Acme",
		URL:         "https://example.com/jobs/1",
		Source:      "linkedin",
		Description: "Full description text.",
	}); err != nil {
		t.Fatal(err)
	}

	// A later scrape of the listing page carries no description.
	if _, err := repo.Save(ctx, job.Posting{
		Title:  "Go Engineer",
		URL:    "https://example.com/jobs/1",
		Source: "linkedin",
	}); err != nil {
		t.Fatal(err)
	}

	got, _, err := repo.FindByURL(ctx, "https://example.com/jobs/1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "Full description text." || got.Company != "Acme" {
		t.Fatalf("sparse re-scrape blanked fields: %+v", got)
	}
}

func TestSaveRejectsEmptyURL(t *testing.T) {
	repo := NewPostingRepository(newFakeDB())
	if _, err := repo.Save(context.Background(), job.Posting{Title: "No URL"}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestSaveAllCommitsBatchInOneTransaction(t *testing.T) {
	db := newFakeDB()
	db.supportsTx = true
	repo := NewPostingRepository(db)

	saved, err := repo.SaveAll(context.Background(), []job.Posting{
		{Title: "A", URL: "https://example.com/jobs/1", Source: "indeed"},
		{Title: "B", URL: "https://example.com/jobs/2", Source: "indeed"},
		{Title: "C", URL: "https://example.com/jobs/3", Source: "indeed"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved != 3 {
		t.Fatalf("saved = %d, want 3", saved)
	}
	if db.lastTx == nil || !db.lastTx.committed {
		t.Fatal("batch should have been committed in a transaction")
	}
	if _, ok, _ := repo.FindByURL(context.Background(), "https://example.com/jobs/3"); !ok {
		t.Fatal("committed posting not found")
	}
}

func TestSaveAllFallsBackRowByRowOnBatchFailure(t *testing.T) {
	db := newFakeDB()
	db.supportsTx = true
	db.failOnURL = "https://example.com/jobs/2"
	repo := NewPostingRepository(db)

	saved, err := repo.SaveAll(context.Background(), []job.Posting{
		{Title: "A", URL: "https://example.com/jobs/1", Source: "indeed"},
		{Title: "B", URL: "https://example.com/jobs/2", Source: "indeed"},
		{Title: "C", URL: "https://example.com/jobs/3", Source: "indeed"},
	})
	if saved != 2 {
		t.Fatalf("saved = %d, want 2 salvaged rows", saved)
	}
	if err == nil || !strings.Contains(err.Error(), "simulated constraint violation") {
		t.Fatalf("expected the first failure to surface, got %v", err)
	}
	if db.lastTx == nil || !db.lastTx.rolledBack {
		t.Fatal("failed batch should have been rolled back")
	}
}

func TestSaveAllContinuesPastFailuresWithoutTransactions(t *testing.T) {
	db := newFakeDB()
	db.failOnURL = "https://example.com/jobs/2"
	repo := NewPostingRepository(db)

	saved, err := repo.SaveAll(context.Background(), []job.Posting{
		{Title: "A", URL: "https://example.com/jobs/1", Source: "indeed"},
		{Title: "B", URL: "https://example.com/jobs/2", Source: "indeed"},
		{Title: "C", URL: "https://example.com/jobs/3", Source: "indeed"},
	})
	if saved != 2 {
		t.Fatalf("saved = %d, want 2", saved)
	}
	if err == nil || !strings.Contains(err.Error(), "simulated constraint violation") {
		t.Fatalf("expected the first failure to surface, got %v", err)
	}
}

func TestRecentFiltersBySourceAndLimit(t *testing.T) {
	db := newFakeDB()
	repo := NewPostingRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		src := "linkedin"
		if i%2 == 1 {
			src = "indeed"
		}
		if _, err := repo.Save(ctx, job.Posting{
			Title:     fmt.Sprintf("Job %d", i),
			URL:       fmt.Sprintf("https://example.com/jobs/%d", i),
			Source:    src,
			ScrapedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.Recent(ctx, "linkedin", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d linkedin postings, want 2", len(got))
	}
	for _, p := range got {
		if p.Source != "linkedin" {
			t.Fatalf("source filter leaked: %+v", p)
		}
	}

	all, err := repo.Recent(ctx, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("limit not applied: got %d, want 3", len(all))
	}
	if all[0].Title != "Job 3" {
		t.Fatalf("newest first expected, got %q", all[0].Title)
	}
}
