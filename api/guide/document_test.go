package guide

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizDoc(questions ...QuizQuestion) *Document {
	return &Document{
		Title:    "Quiz",
		Metadata: Metadata{Topic: "Quiz"},
		Sections: []Section{{ID: "q", Title: "Practica", Type: SectionQuiz, Questions: questions}},
	}
}

func TestSanitizeDropsBlankQuizOptions(t *testing.T) {
	doc := quizDoc(QuizQuestion{
		Question:      "She ___ finished.",
		Options:       []string{"🎉", "have", "|", "has"},
		CorrectAnswer: 3,
	})
	doc.Sanitize()

	require.True(t, doc.Prune())
	q := doc.Sections[0].Questions[0]
	assert.Equal(t, []string{"have", "has"}, q.Options)
	assert.Equal(t, 1, q.CorrectAnswer)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var v any
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Empty(t, Violations(v))
}

func TestSanitizeDropsQuestionsWithBlankAnswer(t *testing.T) {
	doc := quizDoc(
		QuizQuestion{Question: "Pick one", Options: []string{"a", "🔥"}, CorrectAnswer: 1},
		QuizQuestion{Question: "🎉", Options: []string{"a", "b"}, CorrectAnswer: 0},
		QuizQuestion{Question: "Out of range", Options: []string{"a"}, CorrectAnswer: 4},
	)
	doc.Sanitize()

	assert.Empty(t, doc.Sections[0].Questions)
	assert.False(t, doc.Prune())
}

func TestSanitizeResourceLinks(t *testing.T) {
	doc := &Document{Sections: []Section{{
		ID: "r", Title: "Recursos", Type: SectionResources,
		External: []Resource{{Title: "Video", Link: " https://a.example/v?x=1|2 "}},
	}}}
	doc.Sanitize()
	assert.Equal(t, "https://a.example/v?x=12", doc.Sections[0].External[0].Link)
}
