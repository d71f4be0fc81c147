package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// ExtractJSONObject locates the first JSON object embedded in a model
// response, repairs common formatting damage, and unmarshals it into v.
// Models routinely wrap JSON in markdown fences, prefix it with prose, or
// leave trailing commas; all of that is tolerated. Anything that still does
// not parse maps to ErrMalformedAIOutput so every caller falls back the same
// way.
func ExtractJSONObject(response string, v any) error {
	candidate := stripMarkdownFences(response)
	candidate = sliceFirstObject(candidate)
	if candidate == "" {
		return fmt.Errorf("op=ai.extract_json: no object found: %w", domain.ErrMalformedAIOutput)
	}
	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}
	repaired := repairJSON(candidate)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("op=ai.extract_json: %w", domain.ErrMalformedAIOutput)
	}
	return nil
}

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// sliceFirstObject returns the substring from the first '{' to its matching
// brace, tracking JSON string literals so braces inside values don't skew the
// depth count. Returns "" when no balanced object exists.
func sliceFirstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// repairJSON applies last-resort fixes: trailing commas before a closing
// bracket and single-quoted strings. Applied only after a strict parse fails,
// so valid payloads are never mangled.
func repairJSON(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	if !strings.Contains(s, `"`) {
		s = strings.ReplaceAll(s, "'", `"`)
	}
	return s
}
