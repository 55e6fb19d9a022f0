package parsing

import (
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\ufeff"

// locationColumnOffset is the number of leading columns dropped from a
// continuation line that carries no "-->" marker.
const locationColumnOffset = 3

// normalizeLine strips a leading byte-order mark and trailing line terminators.
func normalizeLine(line string) string {
	line = strings.TrimPrefix(line, byteOrderMark)
	return strings.TrimRight(line, "\r\n")
}

// decodable reports whether the line is valid UTF-8. Undecodable lines never open a diagnostic.
func decodable(line string) bool {
	return utf8.ValidString(line)
}

// dropColumns removes the first n runes of line.
func dropColumns(line string, n int) string {
	for i := 0; i < n; i++ {
		if line == "" {
			return ""
		}
		_, size := utf8.DecodeRuneInString(line)
		line = line[size:]
	}
	return line
}

// cleanField trims surrounding whitespace from an extracted field.
func cleanField(s string) string {
	return strings.TrimSpace(s)
}
