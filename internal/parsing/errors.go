// Package parsing turns raw diagnostic log text into structured finding records.
package parsing

import (
	"fmt"

	"github.com/jonathan/convscan/internal/types"
)

// ParseError represents a header line whose payload does not have the expected shape
type ParseError struct {
	Kind    types.Kind
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s header: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s header: %s", e.Kind, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ScanError represents a failure reading a log file
type ScanError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scan error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("scan error: %s: %s", e.Path, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// ProfileError represents an unknown scanner profile name
type ProfileError struct {
	Name string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("unknown scan profile %q", e.Name)
}
