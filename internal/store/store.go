// Package store persists scan output as append-only record and failure files.
package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/convscan/internal/types"
)

// recordFields is the column count of a serialized record row:
// package,kind,caller,from,to,mutability,note,location,log_path,line
const recordFields = 10

// StoreError represents a failure reading or writing a store file
type StoreError struct {
	Path    string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("store error: %s: %s", e.Path, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// RecordWriter appends records to a CSV file. It is not safe for concurrent
// use; a run has exactly one writer.
type RecordWriter struct {
	path string
	f    *os.File
	csv  *csv.Writer
}

// OpenRecordWriter opens path for appending, creating parent directories as
// needed. With fresh set the file is truncated first.
func OpenRecordWriter(path string, fresh bool) (*RecordWriter, error) {
	f, err := openAppend(path, fresh)
	if err != nil {
		return nil, err
	}
	return &RecordWriter{path: path, f: f, csv: csv.NewWriter(f)}, nil
}

// Write appends records in order and flushes them to disk.
func (w *RecordWriter) Write(records []types.Record) error {
	for i := range records {
		if err := w.csv.Write(recordRow(&records[i])); err != nil {
			return &StoreError{Path: w.path, Message: "failed to write record", Cause: err}
		}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return &StoreError{Path: w.path, Message: "failed to flush records", Cause: err}
	}
	return nil
}

// Close closes the underlying file.
func (w *RecordWriter) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func recordRow(r *types.Record) []string {
	return []string{
		r.PackageID,
		r.Kind.String(),
		r.Caller,
		r.FromType,
		r.ToType,
		r.Mutability,
		r.Note,
		r.SourceLocation,
		r.LogPath,
		strconv.Itoa(r.Line),
	}
}

// ReadRecords loads every record from a store file in file order.
func ReadRecords(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StoreError{Path: path, Message: "failed to open records", Cause: err}
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = recordFields

	records := make([]types.Record, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &StoreError{Path: path, Message: "failed to parse records", Cause: err}
		}

		kind, err := types.ParseKind(row[1])
		if err != nil {
			line, _ := reader.FieldPos(1)
			return nil, &StoreError{Path: path, Message: fmt.Sprintf("line %d", line), Cause: err}
		}
		lineNo, _ := strconv.Atoi(row[9])

		records = append(records, types.Record{
			PackageID:      row[0],
			Kind:           kind,
			Caller:         row[2],
			FromType:       row[3],
			ToType:         row[4],
			Mutability:     row[5],
			Note:           row[6],
			SourceLocation: row[7],
			LogPath:        row[8],
			Line:           lineNo,
		})
	}
	return records, nil
}

// WriteFailures writes one log path per line, skipping duplicates.
// With fresh unset the paths are appended to an existing list.
func WriteFailures(path string, logPaths []string, fresh bool) error {
	f, err := openAppend(path, fresh)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	seen := make(map[string]bool, len(logPaths))
	for _, p := range logPaths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := w.WriteString(p + "\n"); err != nil {
			return &StoreError{Path: path, Message: "failed to write failure list", Cause: err}
		}
	}
	if err := w.Flush(); err != nil {
		return &StoreError{Path: path, Message: "failed to flush failure list", Cause: err}
	}
	return nil
}

// ReadFailures loads a failure list, dropping blank lines and duplicates.
func ReadFailures(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StoreError{Path: path, Message: "failed to open failure list", Cause: err}
	}
	defer func() { _ = f.Close() }()

	var paths []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		p := strings.TrimSpace(sc.Text())
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	if err := sc.Err(); err != nil {
		return nil, &StoreError{Path: path, Message: "failed to read failure list", Cause: err}
	}
	return paths, nil
}

func openAppend(path string, fresh bool) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &StoreError{Path: path, Message: "failed to create output directory", Cause: err}
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if fresh {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, &StoreError{Path: path, Message: "failed to open for append", Cause: err}
	}
	return f, nil
}
