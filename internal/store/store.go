// Package store keeps a history of evaluation runs in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/appsize/internal/config"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Run is one stored evaluation.
type Run struct {
	ID         string
	Platform   string
	BuildType  string
	LimitLabel string
	LimitBytes int64
	Violations int
	Failed     bool
	Markdown   string
	// Result is the JSON document of the full evaluation.
	Result    []byte
	CreatedAt time.Time
}

// Entry is one variant or size-table row of a run.
type Entry struct {
	Name      string
	SizeBytes int64
	Violating bool
}

// Store reads and writes run history.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS appsize_runs (
	id          UUID PRIMARY KEY,
	platform    TEXT NOT NULL,
	build_type  TEXT NOT NULL,
	limit_label TEXT NOT NULL,
	limit_bytes BIGINT NOT NULL,
	violations  INTEGER NOT NULL,
	failed      BOOLEAN NOT NULL,
	markdown    TEXT NOT NULL,
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS appsize_runs_created_at_idx ON appsize_runs (created_at DESC);

CREATE TABLE IF NOT EXISTS appsize_run_entries (
	run_id     UUID NOT NULL REFERENCES appsize_runs (id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	violating  BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// EnsureSchema creates the history tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and its entries atomically.
func (s *Store) SaveRun(ctx context.Context, run Run, entries []Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO appsize_runs
		(id, platform, build_type, limit_label, limit_bytes, violations, failed, markdown, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Platform, run.BuildType, run.LimitLabel, run.LimitBytes,
		run.Violations, run.Failed, run.Markdown, run.Result, createdAt(run))
	for i, e := range entries {
		batch.Queue(`INSERT INTO appsize_run_entries (run_id, position, name, size_bytes, violating)
			VALUES ($1, $2, $3, $4, $5)`,
			run.ID, i, e.Name, e.SizeBytes, e.Violating)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("save run %s: statement %d: %w", run.ID, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

func createdAt(run Run) time.Time {
	if run.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return run.CreatedAt
}

const runColumns = `id::text, platform, build_type, limit_label, limit_bytes, violations, failed, markdown, result, created_at`

func scanRun(row pgx.Row) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Platform, &r.BuildType, &r.LimitLabel, &r.LimitBytes,
		&r.Violations, &r.Failed, &r.Markdown, &r.Result, &r.CreatedAt)
	return r, err
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM appsize_runs WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// Entries loads the entries of a run in position order.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	return queryEntries(ctx, s.pool, runID)
}

func queryEntries(ctx context.Context, db DBTX, runID string) ([]Entry, error) {
	rows, err := db.Query(ctx, `SELECT name, size_bytes, violating FROM appsize_run_entries
		WHERE run_id::text = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.Name, &e.SizeBytes, &e.Violating)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	return entries, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM appsize_runs
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		return scanRun(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan recent runs: %w", err)
	}
	return runs, nil
}

// PruneOlderThan deletes runs created more than days ago and returns how
// many were removed. Entries go with their run.
func (s *Store) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appsize_runs
		WHERE created_at < now() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
