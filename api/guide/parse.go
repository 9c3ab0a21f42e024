package guide

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var guideObjectRe = regexp.MustCompile(`(?s)\{.*"sections".*\}`)

// ParseReply extracts the guide object from a model reply: fences are
// stripped, the widest {...} span mentioning "sections" is preferred, and the
// result must decode to a JSON object.
func ParseReply(reply string) (map[string]any, error) {
	cleaned := StripCodeFences(reply)
	candidate := cleaned
	if m := guideObjectRe.FindString(cleaned); m != "" {
		candidate = m
	}
	if candidate == "" {
		return nil, errors.New("empty reply")
	}
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, fmt.Errorf("failed to parse guide JSON: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("guide JSON is %T, not an object", v)
	}
	return obj, nil
}

// Normalize turns stored guide content into a document. Structured content is
// decoded and sanitized; anything else (legacy plain text, broken JSON) is
// upgraded with FallbackDocument. Normalizing its own output is a no-op.
func Normalize(stored, title, level string) *Document {
	trimmed := strings.TrimSpace(stored)
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		switch t := v.(type) {
		case string:
			return FallbackDocument(t, title, level)
		case map[string]any:
			if doc, ok := decodeValid(t); ok {
				doc.ApplyDefaults(title, level)
				return doc
			}
		}
	}
	return FallbackDocument(stored, title, level)
}

// decodeValid sanitizes, validates and decodes a parsed guide value.
func decodeValid(v map[string]any) (*Document, bool) {
	clean := Sanitize(v)
	if !Validate(clean) {
		return nil, false
	}
	doc, err := Decode(clean)
	if err != nil {
		return nil, false
	}
	doc.Sanitize()
	if !doc.Prune() {
		return nil, false
	}
	return doc, true
}
