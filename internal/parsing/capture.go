package parsing

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/jonathan/convscan/internal/types"
)

// maxLineSize bounds a single log line; the detector can emit very long type names.
const maxLineSize = 1 << 20

// ScanResult holds everything captured from one log file
type ScanResult struct {
	PackageID string              `json:"package_id"`
	LogPath   string              `json:"log_path"`
	Records   []types.Record      `json:"records"`
	Failures  []types.ScanFailure `json:"failures"`
	Lines     int                 `json:"lines"`
	Headers   int                 `json:"headers"`
}

type scanState int

const (
	stateIdle scanState = iota
	stateAwaitingLocation
)

// Scanner runs the header/continuation state machine over a single log.
// A Scanner holds no state between calls and may be shared across goroutines.
type Scanner struct {
	packageID string
	kinds     []types.Kind
}

// NewScanner creates a scanner that attributes every record to packageID
// and recognizes the header kinds of the given profile.
func NewScanner(packageID string, profile Profile) *Scanner {
	return &Scanner{packageID: packageID, kinds: profile.Kinds}
}

// ScanFile scans the log at path. A missing file is returned as an error
// satisfying errors.Is(err, os.ErrNotExist).
func (s *Scanner) ScanFile(path string) (*ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ScanError{Path: path, Message: "failed to open log", Cause: err}
	}
	defer func() { _ = f.Close() }()

	return s.Scan(f, path)
}

// Scan reads r line by line. Header lines that fail to parse become
// ScanFailures and scanning continues with the next line. A read error
// stops the scan and is returned together with everything captured so far.
func (s *Scanner) Scan(r io.Reader, logPath string) (*ScanResult, error) {
	result := &ScanResult{
		PackageID: s.packageID,
		LogPath:   logPath,
		Records:   []types.Record{},
		Failures:  []types.ScanFailure{},
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	state := stateIdle
	var pending types.Record

	for sc.Scan() {
		result.Lines++
		line := sc.Text()

		if kind := Classify(line, s.kinds...); kind != types.KindNone {
			result.Headers++
			// A header while awaiting a location drops the pending record.
			rec, err := Extract(line, kind)
			if err != nil {
				result.Failures = append(result.Failures, s.failure(logPath, result.Lines, err.Error()))
				state = stateIdle
				continue
			}
			rec.PackageID = s.packageID
			rec.LogPath = logPath
			rec.Line = result.Lines
			pending = rec
			state = stateAwaitingLocation
			continue
		}

		if state != stateAwaitingLocation {
			continue
		}

		pending.SourceLocation = ExtractLocation(line, pending.Kind)
		if pending.Complete() {
			result.Records = append(result.Records, pending)
		} else {
			result.Failures = append(result.Failures, s.failure(logPath, pending.Line, "parse error: "+pending.Kind.String()+" header: missing source location"))
		}
		pending = types.Record{}
		state = stateIdle
	}

	if err := sc.Err(); err != nil {
		msg := "failed to read log"
		if errors.Is(err, bufio.ErrTooLong) {
			msg = "line exceeds maximum length"
		}
		result.Failures = append(result.Failures, s.failure(logPath, result.Lines+1, msg))
		return result, &ScanError{Path: logPath, Message: msg, Cause: err}
	}

	return result, nil
}

func (s *Scanner) failure(logPath string, line int, reason string) types.ScanFailure {
	return types.ScanFailure{
		PackageID: s.packageID,
		LogPath:   logPath,
		Line:      line,
		Reason:    reason,
	}
}
