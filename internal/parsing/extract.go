package parsing

import (
	"strings"

	"github.com/jonathan/convscan/internal/types"
)

// Extract parses a recognized header line into a partially populated Record.
// The returned record has every header field set but no source location;
// shape mismatches are reported as *ParseError.
func Extract(line string, kind types.Kind) (types.Record, error) {
	g, ok := grammarFor(kind)
	if !ok {
		return types.Record{}, &ParseError{Kind: kind, Message: "no header grammar for kind"}
	}

	line = normalizeLine(line)
	if !strings.HasPrefix(line, g.marker) {
		return types.Record{}, &ParseError{Kind: kind, Message: "line does not start with header marker"}
	}

	rec := types.Record{Kind: kind}
	if err := g.fields(g.payloadOf(line), &rec); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

// ExtractLocation returns the source location carried by the continuation line of a header of the given kind.
func ExtractLocation(line string, kind types.Kind) string {
	g, ok := grammarFor(kind)
	if !ok {
		return ""
	}
	return g.locationOf(line)
}
