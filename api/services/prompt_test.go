package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptEmptyContextUsesPlaceholders(t *testing.T) {
	p := BuildPrompt(StudentContext{}, "  Present Perfect  ")

	assert.Contains(t, p.Text, "study guide about: Present Perfect\n")
	for _, placeholder := range []string{
		"no active courses",
		"no recent grades",
		"no identified weak areas",
		"no academic history",
	} {
		assert.Contains(t, p.Text, placeholder)
	}
	assert.NotContains(t, p.Text, "Lesson material")
	assert.Equal(t, SystemInstruction, p.SystemInstruction)
}

func TestBuildPromptRendersContext(t *testing.T) {
	sc := StudentContext{
		StudentName: "Ana López",
		Level:       "A2",
		Courses: []CourseContext{
			{Title: "English A2", Level: "A2", Progress: 40, Modules: []string{"Greetings", "Past tenses"}},
		},
		RecentGrades: []GradeContext{{Course: "English A2", Lesson: "Irregular verbs", Grade: 55, Feedback: "review went/gone"}},
		WeakAreas:    []string{"Irregular verbs (English A2)"},
		History:      []HistoryContext{{Course: "Phonetics", Period: "2025-2", FinalGrade: 64}},
		Excerpts:     []MaterialExcerpt{{Lesson: "Irregular verbs", Text: "go went gone"}},
	}
	p := BuildPrompt(sc, "Past simple")

	for _, want := range []string{
		"Student: Ana López",
		"Level: A2",
		"- English A2 (level A2), progress 40%, modules: Greetings, Past tenses",
		"- Irregular verbs (English A2): 55/100, feedback: review went/gone",
		"- Irregular verbs (English A2)\n",
		"- Phonetics (2025-2): final grade 64/100",
		"[Irregular verbs]\ngo went gone",
	} {
		assert.Contains(t, p.Text, want)
	}
	assert.NotContains(t, p.Text, "no active courses")
}

func TestBuildPromptStatesOutputContract(t *testing.T) {
	p := BuildPrompt(StudentContext{}, "Phrasal verbs")

	assert.Contains(t, p.Text, "JSON only")
	assert.Contains(t, p.Text, `"type": "quiz"`)
	assert.Contains(t, p.Text, "correctAnswer")
	assert.Contains(t, p.Text, "explanations in Spanish and examples in English")
	for _, banned := range []string{"code fences", "tables", "emoji"} {
		assert.Contains(t, p.SystemInstruction, banned)
	}
}
