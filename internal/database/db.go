// Package database defines the narrow persistence contract the repositories
// program against. The pgx-backed implementation lives in postgres/; tests
// substitute in-memory fakes.
package database

import (
	"context"
	"database/sql"
)

// Querier is the query surface shared by a pooled connection and an open
// transaction. Repository helpers that can run either standalone or inside
// a batch transaction take a Querier.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type DB interface {
	Querier

	Ping(ctx context.Context) error
	Close() error

	Begin(ctx context.Context) (Tx, error)

	// SQLDB exposes the stdlib handle for callers that need it, such as
	// the migration runner.
	SQLDB() *sql.DB
}

type Tx interface {
	Querier

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Close()
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type Row interface {
	Scan(dest ...any) error
}
