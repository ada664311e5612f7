// Package postgres provides the Postgres-backed run ledger.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Expected schema:
//
//	CREATE TABLE scrape_runs (
//	    id UUID PRIMARY KEY,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    finished_at TIMESTAMPTZ,
//	    status TEXT NOT NULL,
//	    pages BIGINT NOT NULL DEFAULT 0,
//	    listings BIGINT NOT NULL DEFAULT 0,
//	    error_message TEXT
//	);
//
//	CREATE TABLE run_warnings (
//	    run_id UUID NOT NULL REFERENCES scrape_runs (id),
//	    ts TIMESTAMPTZ NOT NULL,
//	    kind TEXT NOT NULL,
//	    page INT NOT NULL,
//	    job_key TEXT,
//	    note TEXT
//	);

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RunStoreConfig controls the Postgres connection pool behind the run ledger.
type RunStoreConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// RunStore persists run lifecycle rows and card-level warnings.
type RunStore struct {
	pool execCloser
}

// NewRunStore creates a Postgres-backed RunStore using the provided config.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool}, nil
}

// NewRunStoreWithPool constructs a store from an existing pool (primarily for
// testing with pgxmock).
func NewRunStoreWithPool(pool execCloser) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *RunStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// StartRun inserts the run row in running state. The insert is idempotent so
// replayed diagnostic batches cannot fail the sink.
func (s *RunStore) StartRun(ctx context.Context, runID uuid.UUID, startedAt time.Time) error {
	query := `
		INSERT INTO scrape_runs (id, started_at, status)
		VALUES ($1, $2, 'running')
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := s.pool.Exec(ctx, query, runID, startedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompleteRun marks the run finished with its terminal status and totals.
func (s *RunStore) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status string,
	pages, listings int64,
	errMsg *string,
) error {
	query := `
		UPDATE scrape_runs
		SET finished_at = $1, status = $2, pages = $3, listings = $4, error_message = $5
		WHERE id = $6;
	`
	if _, err := s.pool.Exec(ctx, query, finishedAt, status, pages, listings, errMsg, runID); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// RecordWarning appends one card-level warning row for the run.
func (s *RunStore) RecordWarning(
	ctx context.Context,
	runID uuid.UUID,
	ts time.Time,
	kind string,
	page int,
	jobKey, note string,
) error {
	query := `
		INSERT INTO run_warnings (run_id, ts, kind, page, job_key, note)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := s.pool.Exec(ctx, query, runID, ts, kind, page, jobKey, note); err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	return nil
}
