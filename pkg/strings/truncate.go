package strings

import (
	"strings"
)

// DefaultCellMaxLen is the default width of free-text cells in report tables.
const DefaultCellMaxLen = 60

// MinTruncateLen is the smallest width that still leaves room for one
// character plus "...".
const MinTruncateLen = 4

// OneLine collapses every run of whitespace, newlines included, into a single
// space. Multi-line error text from service controllers and syntax checks is
// passed through it before it is rendered in a table.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate flattens s with OneLine and shortens it to maxLen runes, ending
// in "..." when anything was cut. maxLen is clamped to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = OneLine(s)
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
