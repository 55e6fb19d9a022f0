package db

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/convscan/internal/types"
)

// SavePackages stores the packages a run registered, in listing order.
func (db *DB) SavePackages(ctx context.Context, runID uuid.UUID, entries []types.CorpusEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, e := range entries {
		seq, err := safecast.Conv[int32](i)
		if err != nil {
			return fmt.Errorf("failed to save package %d: %w", i, err)
		}
		batch.Queue(
			`INSERT INTO scan_packages (run_id, seq, name, version) VALUES ($1, $2, $3, $4)`,
			runID, seq, e.Name, e.Version,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save packages: %w", err)
	}
	return nil
}

// ListPackages retrieves the packages of a run in listing order
func (db *DB) ListPackages(ctx context.Context, runID uuid.UUID) ([]types.CorpusEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, version FROM scan_packages WHERE run_id = $1 ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	entries := make([]types.CorpusEntry, 0)
	for rows.Next() {
		var e types.CorpusEntry
		if err := rows.Scan(&e.Name, &e.Version); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return entries, nil
}

// SaveRecords stores records for a run in one batch. seq preserves output order.
func (db *DB) SaveRecords(ctx context.Context, runID uuid.UUID, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, r := range records {
		seq, line, err := seqAndLine(i, r.Line)
		if err != nil {
			return fmt.Errorf("failed to save record %d: %w", i, err)
		}
		batch.Queue(
			`INSERT INTO scan_records
			 (run_id, seq, kind, package_id, caller, from_type, to_type, mutability, note, source_location, log_path, line)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			runID, seq, r.Kind.String(), r.PackageID, r.Caller, r.FromType, r.ToType,
			r.Mutability, r.Note, r.SourceLocation, r.LogPath, line,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

// SaveFailures stores the scan failures of a run in one batch.
func (db *DB) SaveFailures(ctx context.Context, runID uuid.UUID, failures []types.ScanFailure) error {
	if len(failures) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, f := range failures {
		seq, line, err := seqAndLine(i, f.Line)
		if err != nil {
			return fmt.Errorf("failed to save failure %d: %w", i, err)
		}
		batch.Queue(
			`INSERT INTO scan_failures (run_id, seq, package_id, log_path, line, reason)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, seq, f.PackageID, f.LogPath, line, f.Reason,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save failures: %w", err)
	}
	return nil
}

// ListRecords retrieves the records of a run in their original order
func (db *DB) ListRecords(ctx context.Context, runID uuid.UUID) ([]types.Record, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT kind, package_id, caller, from_type, to_type, mutability, note, source_location, log_path, line
		 FROM scan_records WHERE run_id = $1 ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := make([]types.Record, 0)
	for rows.Next() {
		var r types.Record
		var kind string
		var line int32
		if err := rows.Scan(&kind, &r.PackageID, &r.Caller, &r.FromType, &r.ToType,
			&r.Mutability, &r.Note, &r.SourceLocation, &r.LogPath, &line); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.Kind, err = types.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Line = int(line)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// ListFailures retrieves the scan failures of a run in their original order
func (db *DB) ListFailures(ctx context.Context, runID uuid.UUID) ([]types.ScanFailure, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT package_id, log_path, line, reason
		 FROM scan_failures WHERE run_id = $1 ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer rows.Close()

	failures := make([]types.ScanFailure, 0)
	for rows.Next() {
		var f types.ScanFailure
		var line int32
		if err := rows.Scan(&f.PackageID, &f.LogPath, &line, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		f.Line = int(line)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	return failures, nil
}

func seqAndLine(seq, line int) (int32, int32, error) {
	s, err := safecast.Conv[int32](seq)
	if err != nil {
		return 0, 0, err
	}
	l, err := safecast.Conv[int32](line)
	if err != nil {
		return 0, 0, err
	}
	return s, l, nil
}
