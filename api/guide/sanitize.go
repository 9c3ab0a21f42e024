package guide

import (
	"regexp"
	"strings"
)

var (
	// A language tag is only dropped when it ends the fence line; the line
	// break is put back by stripFences.
	fenceRe         = regexp.MustCompile("```(?:[A-Za-z0-9_+-]+[ \t]*(\r?\n|$))?")
	headingMarkerRe = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	tableRuleRe     = regexp.MustCompile(`(?m)^[ \t]*[-:| \t]{3,}$`)

	// Go's unicode tables have no Extended_Pictographic property, so emoji are
	// matched by block. Variation selectors, ZWJ and the keycap mark go too,
	// otherwise they would survive as marks.
	emojiRe = regexp.MustCompile(`[` +
		`\x{1F000}-\x{1FAFF}` +
		`\x{2600}-\x{27BF}` +
		`\x{2300}-\x{23FF}` +
		`\x{2B00}-\x{2BFF}` +
		`\x{2190}-\x{21FF}` +
		`\x{25A0}-\x{25FF}` +
		`\x{2122}\x{2139}\x{24C2}\x{00A9}\x{00AE}` +
		`\x{3030}\x{303D}\x{3297}\x{3299}` +
		`\x{FE00}-\x{FE0F}\x{200D}\x{20E3}` +
		`\x{E0020}-\x{E007F}` +
		`]`)

	disallowedCharRe = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s.,:;()?!%&'"/\[\]@+\-]`)
	lineEndingRe     = regexp.MustCompile(`\r\n?`)
	blankRunRe       = regexp.MustCompile(`\n{3,}`)
	spaceRunRe       = regexp.MustCompile(`[ \t\f]+`)
	lineEdgeSpaceRe  = regexp.MustCompile(`(?m)^ | $`)
)

// maxSanitizeRounds bounds the fixed-point loop in SanitizeString. A round
// after the first only ever shortens the string, so a handful is plenty.
const maxSanitizeRounds = 8

// linkKey holds URLs; they skip the character filter and only lose
// surrounding space, pipes and fences.
const linkKey = "link"

// Sanitize returns a copy of v with every string sanitized. Objects and arrays
// are walked recursively; numbers, booleans and nil pass through.
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if s, ok := val.(string); ok && k == linkKey {
				out[k] = SanitizeLink(s)
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	case string:
		return SanitizeString(t)
	default:
		return v
	}
}

// SanitizeString strips formatting the guide renderer does not support. The
// rules run until the output stops changing, which makes the function
// idempotent.
func SanitizeString(s string) string {
	for i := 0; i < maxSanitizeRounds; i++ {
		next := sanitizeRound(s)
		if next == s {
			return next
		}
		s = next
	}
	return s
}

func sanitizeRound(s string) string {
	// 1. code fences: drop the markers, keep the enclosed text
	s = stripFences(s)
	// 2. markdown headings
	s = headingMarkerRe.ReplaceAllString(s, "")
	// 3. table separator rows, then any remaining pipes
	s = tableRuleRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "|", "")
	// 4. emoji
	s = emojiRe.ReplaceAllString(s, "")
	// 5. anything outside letters, marks, numbers, whitespace and the allowed punctuation
	s = disallowedCharRe.ReplaceAllString(s, "")
	// 6. whitespace
	s = lineEndingRe.ReplaceAllString(s, "\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = lineEdgeSpaceRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ContainsDisallowedPatterns reports whether any string in v still holds a
// pipe or a code fence.
func ContainsDisallowedPatterns(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, val := range t {
			if ContainsDisallowedPatterns(val) {
				return true
			}
		}
	case []any:
		for _, val := range t {
			if ContainsDisallowedPatterns(val) {
				return true
			}
		}
	case string:
		return strings.Contains(t, "|") || strings.Contains(t, "```")
	}
	return false
}

// StripCodeFences removes fence markers from a raw model reply.
func StripCodeFences(s string) string {
	return strings.TrimSpace(stripFences(s))
}

func stripFences(s string) string {
	return fenceRe.ReplaceAllString(s, "${1}")
}

// SanitizeLink trims a URL and removes pipes and fence markers from it.
func SanitizeLink(s string) string {
	for strings.Contains(s, "|") || strings.Contains(s, "```") {
		s = strings.ReplaceAll(s, "|", "")
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}
