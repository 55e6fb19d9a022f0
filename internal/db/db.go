// Package db provides PostgreSQL storage for scan runs, their records and failures.
package db

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_runs (
    id           UUID PRIMARY KEY,
    profile      TEXT NOT NULL,
    status       TEXT NOT NULL,
    logs         INTEGER NOT NULL DEFAULT 0,
    records      INTEGER NOT NULL DEFAULT 0,
    failures     INTEGER NOT NULL DEFAULT 0,
    missing      INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS scan_packages (
    run_id     UUID NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
    seq        INTEGER NOT NULL,
    name       TEXT NOT NULL,
    version    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS scan_records (
    run_id          UUID NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
    seq             INTEGER NOT NULL,
    kind            TEXT NOT NULL,
    package_id      TEXT NOT NULL,
    caller          TEXT NOT NULL,
    from_type       TEXT NOT NULL DEFAULT '',
    to_type         TEXT NOT NULL DEFAULT '',
    mutability      TEXT NOT NULL DEFAULT '',
    note            TEXT NOT NULL DEFAULT '',
    source_location TEXT NOT NULL,
    log_path        TEXT NOT NULL,
    line            INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS scan_failures (
    run_id     UUID NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
    seq        INTEGER NOT NULL,
    package_id TEXT NOT NULL,
    log_path   TEXT NOT NULL,
    line       INTEGER NOT NULL,
    reason     TEXT NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

// EnsureSchema creates the scan tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateRun creates a new scan run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, profile string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO scan_runs (id, profile, status) VALUES ($1, $2, $3)`,
		id, profile, RunStatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a scan run as finished and stores its totals
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, counts RunCounts) error {
	vals, err := int32s(counts.Logs, counts.Records, counts.Failures, counts.Missing)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE scan_runs
		 SET status = $1, logs = $2, records = $3, failures = $4, missing = $5, completed_at = NOW()
		 WHERE id = $6`,
		status, vals[0], vals[1], vals[2], vals[3], runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun retrieves a scan run by ID. Returns nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	var logs, records, failures, missing int32
	err := db.pool.QueryRow(ctx,
		`SELECT id, profile, status, logs, records, failures, missing, created_at, completed_at
		 FROM scan_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Profile, &run.Status, &logs, &records, &failures, &missing, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Logs, run.Records, run.Failures, run.Missing = int(logs), int(records), int(failures), int(missing)
	return &run, nil
}

// int32s narrows counts to the INTEGER column type.
func int32s(vals ...int) ([]int32, error) {
	out := make([]int32, len(vals))
	for i, v := range vals {
		n, err := safecast.Conv[int32](v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
