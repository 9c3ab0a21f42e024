package services

import (
	"fmt"
	"strings"
)

// StudentContext is the academic picture of a student rendered into prompts.
type StudentContext struct {
	StudentName  string
	Level        string
	Courses      []CourseContext
	RecentGrades []GradeContext
	WeakAreas    []string
	History      []HistoryContext
	Excerpts     []MaterialExcerpt
}

type CourseContext struct {
	Title    string
	Level    string
	Progress float64
	Modules  []string
}

type GradeContext struct {
	Course   string
	Lesson   string
	Grade    float64
	Feedback string
}

type HistoryContext struct {
	Course     string
	Period     string
	FinalGrade float64
	Remarks    string
}

type MaterialExcerpt struct {
	Lesson string
	Text   string
}

// Prompt is the user prompt plus the system instruction sent alongside it.
type Prompt struct {
	Text              string
	SystemInstruction string
}

const SystemInstruction = `You are an English teacher for Spanish-speaking students. ` +
	`Reply with a single structured JSON object and nothing else. ` +
	`Never use code fences, markdown tables, pipe characters, markdown headings or emoji.`

const outputContract = `OUTPUT FORMAT
Reply with JSON only, no text before or after it, no code fences. Use exactly this shape:
{
  "title": "guide title",
  "metadata": {"topic": "topic", "level": "student level", "estimatedTime": "e.g. 30 minutos"},
  "sections": [
    {"id": "intro", "title": "...", "type": "content",
     "content": {"blocks": [
       {"type": "subtitle", "text": "..."},
       {"type": "paragraph", "text": "..."},
       {"type": "list", "style": "bullet or numbered", "items": ["...", "..."]},
       {"type": "blockquote", "text": "..."},
       {"type": "dialogue", "dialogue": [{"role": "Ana", "text": "..."}, {"role": "Tom", "text": "..."}]},
       {"type": "hr"},
       {"type": "code", "code": "..."}
     ]},
     "keywords": [{"word": "...", "phonetic": "...", "example": "..."}]},
    {"id": "practice", "title": "...", "type": "quiz",
     "questions": [{"question": "...", "options": ["...", "...", "..."], "correctAnswer": 0, "explanation": "..."}]},
    {"id": "resources", "title": "...", "type": "resources",
     "internal": [{"title": "...", "description": "...", "link": "..."}],
     "external": [{"title": "...", "description": "...", "link": "https://...", "type": "video, podcast, exercise or website"}]}
  ]
}

RULES
- Section types are only content, quiz and resources. Block types are only subtitle, paragraph, list, blockquote, dialogue, hr and code.
- Every content section has at least one block. Every list has items. Every dialogue has turns.
- Every quiz has at least one question; correctAnswer is the zero-based index of the right option.
- Write explanations in Spanish and examples in English.
- Do not use tables, pipe characters, code fences, markdown headings or emoji anywhere.
- Adapt difficulty to the student's level and reinforce the weak areas listed above.`

// BuildPrompt assembles the generation prompt for topic. Missing context
// degrades to placeholder lines.
func BuildPrompt(sc StudentContext, topic string) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized English study guide about: %s\n\n", strings.TrimSpace(topic))
	b.WriteString(RenderContext(sc))
	b.WriteString("\n")
	b.WriteString(outputContract)
	return Prompt{Text: b.String(), SystemInstruction: SystemInstruction}
}

// RenderContext renders the student context block of the prompt.
func RenderContext(sc StudentContext) string {
	var b strings.Builder
	b.WriteString("STUDENT CONTEXT\n")
	fmt.Fprintf(&b, "Student: %s\n", orDefault(strings.TrimSpace(sc.StudentName), "unknown"))
	fmt.Fprintf(&b, "Level: %s\n", orDefault(strings.TrimSpace(sc.Level), "not specified"))

	b.WriteString("\nActive courses:\n")
	if len(sc.Courses) == 0 {
		b.WriteString("- no active courses\n")
	}
	for _, c := range sc.Courses {
		fmt.Fprintf(&b, "- %s", c.Title)
		if c.Level != "" {
			fmt.Fprintf(&b, " (level %s)", c.Level)
		}
		fmt.Fprintf(&b, ", progress %.0f%%", c.Progress)
		if len(c.Modules) > 0 {
			fmt.Fprintf(&b, ", modules: %s", strings.Join(c.Modules, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRecent grades:\n")
	if len(sc.RecentGrades) == 0 {
		b.WriteString("- no recent grades\n")
	}
	for _, g := range sc.RecentGrades {
		fmt.Fprintf(&b, "- %s", g.Lesson)
		if g.Course != "" {
			fmt.Fprintf(&b, " (%s)", g.Course)
		}
		fmt.Fprintf(&b, ": %.0f/100", g.Grade)
		if g.Feedback != "" {
			fmt.Fprintf(&b, ", feedback: %s", g.Feedback)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nWeak areas:\n")
	if len(sc.WeakAreas) == 0 {
		b.WriteString("- no identified weak areas\n")
	}
	for _, w := range sc.WeakAreas {
		fmt.Fprintf(&b, "- %s\n", w)
	}

	b.WriteString("\nAcademic history:\n")
	if len(sc.History) == 0 {
		b.WriteString("- no academic history\n")
	}
	for _, h := range sc.History {
		fmt.Fprintf(&b, "- %s", h.Course)
		if h.Period != "" {
			fmt.Fprintf(&b, " (%s)", h.Period)
		}
		fmt.Fprintf(&b, ": final grade %.0f/100", h.FinalGrade)
		if h.Remarks != "" {
			fmt.Fprintf(&b, ", %s", h.Remarks)
		}
		b.WriteString("\n")
	}

	if len(sc.Excerpts) > 0 {
		b.WriteString("\nLesson material the student struggled with:\n")
		for _, e := range sc.Excerpts {
			fmt.Fprintf(&b, "[%s]\n%s\n", e.Lesson, e.Text)
		}
	}
	return b.String()
}
