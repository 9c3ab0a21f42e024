package guide

import (
	"fmt"
	"math"
	"strings"
)

// Violation is one structural problem found by Violations.
type Violation struct {
	Path   string
	Reason string
}

func (v Violation) String() string {
	return v.Path + ": " + v.Reason
}

var allowedBlockTypes = map[BlockType]bool{
	BlockSubtitle:   true,
	BlockParagraph:  true,
	BlockList:       true,
	BlockBlockquote: true,
	BlockDialogue:   true,
	BlockHR:         true,
	BlockCode:       true,
}

// Validate reports whether a parsed (and sanitized) guide value has the
// required structure.
func Validate(v any) bool {
	return len(Violations(v)) == 0
}

// Violations lists every structural problem of a parsed guide value.
func Violations(v any) []Violation {
	var out []Violation
	add := func(path, format string, args ...any) {
		out = append(out, Violation{Path: path, Reason: fmt.Sprintf(format, args...)})
	}

	doc, ok := v.(map[string]any)
	if !ok {
		add("$", "document must be an object")
		return out
	}
	if !nonEmptyString(doc["title"]) {
		add("$.title", "must be a non-empty string")
	}
	if meta, ok := doc["metadata"].(map[string]any); !ok {
		add("$.metadata", "must be an object")
	} else if !nonEmptyString(meta["topic"]) {
		add("$.metadata.topic", "must be a non-empty string")
	}

	sections, ok := doc["sections"].([]any)
	if !ok || len(sections) == 0 {
		add("$.sections", "must be a non-empty array")
		return out
	}
	for i, raw := range sections {
		path := fmt.Sprintf("$.sections[%d]", i)
		section, ok := raw.(map[string]any)
		if !ok {
			add(path, "must be an object")
			continue
		}
		for _, field := range []string{"id", "title", "type"} {
			if !nonEmptyString(section[field]) {
				add(path+"."+field, "must be a non-empty string")
			}
		}
		typ, _ := section["type"].(string)
		switch SectionType(typ) {
		case SectionQuiz:
			out = append(out, quizViolations(path, section)...)
		case SectionContent:
			out = append(out, contentViolations(path, section)...)
		case SectionResources:
		default:
			if typ != "" {
				add(path+".type", "unknown section type %q", typ)
			}
		}
	}
	return out
}

func quizViolations(path string, section map[string]any) []Violation {
	questions, ok := section["questions"].([]any)
	if !ok || len(questions) == 0 {
		return []Violation{{Path: path + ".questions", Reason: "must be a non-empty array"}}
	}
	var out []Violation
	for i, raw := range questions {
		qpath := fmt.Sprintf("%s.questions[%d]", path, i)
		q, ok := raw.(map[string]any)
		if !ok {
			out = append(out, Violation{Path: qpath, Reason: "must be an object"})
			continue
		}
		if !nonEmptyString(q["question"]) {
			out = append(out, Violation{Path: qpath + ".question", Reason: "must be a non-empty string"})
		}
		options, ok := q["options"].([]any)
		if !ok || len(options) == 0 {
			out = append(out, Violation{Path: qpath + ".options", Reason: "must be a non-empty array"})
			continue
		}
		answer, ok := q["correctAnswer"].(float64)
		if !ok || answer != math.Trunc(answer) || answer < 0 || int(answer) >= len(options) {
			out = append(out, Violation{Path: qpath + ".correctAnswer", Reason: "must index into options"})
		}
	}
	return out
}

func contentViolations(path string, section map[string]any) []Violation {
	cpath := path + ".content"
	switch content := section["content"].(type) {
	case string:
		if strings.TrimSpace(content) == "" {
			return []Violation{{Path: cpath, Reason: "must not be empty"}}
		}
		return nil
	case map[string]any:
		blocks, ok := content["blocks"].([]any)
		if !ok || len(blocks) == 0 {
			return []Violation{{Path: cpath + ".blocks", Reason: "must be a non-empty array"}}
		}
		var out []Violation
		for i, raw := range blocks {
			bpath := fmt.Sprintf("%s.blocks[%d]", cpath, i)
			block, ok := raw.(map[string]any)
			if !ok {
				out = append(out, Violation{Path: bpath, Reason: "must be an object"})
				continue
			}
			typ, _ := block["type"].(string)
			if !allowedBlockTypes[BlockType(typ)] {
				out = append(out, Violation{Path: bpath + ".type", Reason: fmt.Sprintf("unknown block type %q", typ)})
				continue
			}
			switch BlockType(typ) {
			case BlockList:
				if items, ok := block["items"].([]any); !ok || len(items) == 0 {
					out = append(out, Violation{Path: bpath + ".items", Reason: "must be a non-empty array"})
				}
			case BlockDialogue:
				if turns, ok := block["dialogue"].([]any); !ok || len(turns) == 0 {
					out = append(out, Violation{Path: bpath + ".dialogue", Reason: "must be a non-empty array"})
				}
			}
		}
		return out
	default:
		return []Violation{{Path: cpath, Reason: "must be a string or an object with blocks"}}
	}
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}
