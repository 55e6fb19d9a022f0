package parsing

import (
	"fmt"
	"strings"

	"github.com/jonathan/convscan/internal/types"
)

// Header markers emitted by the linter and the bug detector.
const (
	MarkerCast              = "warning: Here is cast("
	MarkerTransmute         = "warning: Here is transmute("
	MarkerBrokenLayout      = "Error (BrokenLayout:):"
	MarkerUninitExposure    = "Error (UninitExposure:):"
	MarkerBrokenBitPatterns = "Error (BrokenBitPatterns:):"
)

// Delimiters used inside conversion payloads.
const (
	sideSeparator    = "=>"
	segmentSeparator = ">"
	locationArrow    = "-->"
)

// payloadRule selects the part of a header line handed to the field splitter.
type payloadRule int

const (
	// payloadParenthesized is the text after the marker, up to the closing ')'.
	payloadParenthesized payloadRule = iota
	// payloadLine is the whole header line.
	payloadLine
)

// locationRule selects how the continuation line yields a source location.
type locationRule int

const (
	// locationAfterArrow slices the text after "-->", falling back to the column offset.
	locationAfterArrow locationRule = iota
	// locationColumns drops a fixed number of leading columns.
	locationColumns
)

// headerGrammar describes one diagnostic kind: marker, payload, fields, continuation.
type headerGrammar struct {
	kind     types.Kind
	marker   string
	payload  payloadRule
	location locationRule
	fields   func(payload string, rec *types.Record) error
}

var grammars = []headerGrammar{
	{kind: types.KindPointerCast, marker: MarkerCast, payload: payloadParenthesized, location: locationAfterArrow, fields: castFields},
	{kind: types.KindTransmute, marker: MarkerTransmute, payload: payloadParenthesized, location: locationAfterArrow, fields: transmuteFields},
	{kind: types.KindBrokenLayout, marker: MarkerBrokenLayout, payload: payloadLine, location: locationColumns, fields: bugFields},
	{kind: types.KindUninitExposure, marker: MarkerUninitExposure, payload: payloadLine, location: locationColumns, fields: bugFields},
	{kind: types.KindBrokenBitPatterns, marker: MarkerBrokenBitPatterns, payload: payloadLine, location: locationColumns, fields: bugFields},
}

func grammarFor(kind types.Kind) (*headerGrammar, bool) {
	for i := range grammars {
		if grammars[i].kind == kind {
			return &grammars[i], true
		}
	}
	return nil, false
}

// Marker returns the header marker for a kind, or "" for KindNone.
func Marker(kind types.Kind) string {
	if g, ok := grammarFor(kind); ok {
		return g.marker
	}
	return ""
}

func (g *headerGrammar) payloadOf(line string) string {
	if g.payload == payloadLine {
		return line
	}
	payload := strings.TrimRight(line[len(g.marker):], " \t\r\n")
	return strings.TrimSuffix(payload, ")")
}

func (g *headerGrammar) locationOf(line string) string {
	line = normalizeLine(line)
	if g.location == locationAfterArrow {
		if idx := strings.Index(line, locationArrow); idx >= 0 {
			return cleanField(strings.ToValidUTF8(line[idx+len(locationArrow):], "\uFFFD"))
		}
	}
	return cleanField(strings.ToValidUTF8(dropColumns(line, locationColumnOffset), "\uFFFD"))
}

// splitConversion splits "caller>from>to=>result" into its source fields and the raw result side.
func splitConversion(kind types.Kind, payload string, rec *types.Record) (string, error) {
	sides := strings.Split(payload, sideSeparator)
	if len(sides) != 2 {
		return "", &ParseError{Kind: kind, Message: fmt.Sprintf("expected one %q separator, got %d", sideSeparator, len(sides)-1)}
	}

	// A type holding '>' (generics, nested pointers) cannot be split
	// unambiguously. Such headers fail the same way on every retry.
	source := strings.Split(sides[0], segmentSeparator)
	if len(source) > 3 {
		return "", &ParseError{Kind: kind, Message: fmt.Sprintf(
			"expected 3 source segments, got %d: ambiguous '>' in a type name, not fixed by retrying", len(source))}
	}
	if len(source) != 3 {
		return "", &ParseError{Kind: kind, Message: fmt.Sprintf("expected 3 source segments, got %d", len(source))}
	}

	caller := strings.TrimPrefix(cleanField(source[0]), "fn ")
	rec.Caller = cleanField(caller)
	rec.FromType = cleanField(source[1])
	rec.ToType = cleanField(source[2])
	if rec.Caller == "" {
		return "", &ParseError{Kind: kind, Message: "empty caller"}
	}
	return sides[1], nil
}

func castFields(payload string, rec *types.Record) error {
	result, err := splitConversion(types.KindPointerCast, payload, rec)
	if err != nil {
		return err
	}

	segments := strings.Split(result, segmentSeparator)
	switch len(segments) {
	case 2:
		rec.Mutability = cleanField(segments[0])
		rec.Note = cleanField(segments[1])
	case 3:
		rec.Mutability = cleanField(segments[0])
		rec.Note = cleanField(segments[1]) + segmentSeparator + cleanField(segments[2])
	default:
		return &ParseError{Kind: types.KindPointerCast, Message: fmt.Sprintf("expected 2 or 3 result segments, got %d", len(segments))}
	}
	return nil
}

func transmuteFields(payload string, rec *types.Record) error {
	result, err := splitConversion(types.KindTransmute, payload, rec)
	if err != nil {
		return err
	}
	rec.Note = cleanField(result)
	return nil
}

func bugFields(line string, rec *types.Record) error {
	open := strings.IndexByte(line, '`')
	if open < 0 {
		return &ParseError{Kind: rec.Kind, Message: "no backtick-quoted caller"}
	}
	closing := strings.IndexByte(line[open+1:], '`')
	if closing < 0 {
		return &ParseError{Kind: rec.Kind, Message: "unterminated backtick-quoted caller"}
	}
	rec.Caller = cleanField(line[open+1 : open+1+closing])
	if rec.Caller == "" {
		return &ParseError{Kind: rec.Kind, Message: "empty caller"}
	}
	return nil
}
