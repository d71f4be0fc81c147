// Package textx normalizes free-form chat input before it reaches the
// conversation engines.
package textx

import "strings"

// SanitizeText strips control characters (keeping tab, newline, and carriage
// return) and trims surrounding whitespace. A message that is nothing but
// control characters or whitespace sanitizes to the empty string.
func SanitizeText(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 32 || r == 127:
			return -1
		default:
			return r
		}
	}, s)
	return strings.TrimSpace(clean)
}
