package services

import (
	"context"
	"errors"
	"testing"

	"github.com/local/studyguide/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func gradePtr(v float64) *float64 { return &v }

func academicFixture() *mockAcademics {
	a := &mockAcademics{}
	a.On("ActiveEnrollments", mock.Anything, uint(5)).Return([]models.Enrollment{{
		CourseID: 3,
		Progress: 40,
		Course: models.Course{ID: 3, Title: "English A2", Level: "A2", Modules: []models.Module{
			{Title: "Greetings"}, {Title: "Past tenses"},
		}},
	}}, nil)
	module := &models.Module{CourseID: 3, Title: "Past tenses"}
	a.On("RecentSubmissions", mock.Anything, uint(5), recentSubmissionLimit).Return([]models.Submission{
		{Grade: gradePtr(55), Lesson: models.Lesson{ID: 11, Title: "Irregular verbs", Module: module, MaterialPath: "a2/irregular.pdf"}},
		{Grade: gradePtr(40), Lesson: models.Lesson{ID: 11, Title: "Irregular verbs", Module: module, MaterialPath: "a2/irregular.pdf"}},
		{Grade: gradePtr(95), Lesson: models.Lesson{ID: 12, Title: "Simple past", Module: module}},
		{Lesson: models.Lesson{ID: 13, Title: "Ungraded"}},
	}, nil)
	a.On("RecentHistory", mock.Anything, uint(5), recentHistoryLimit).Return([]models.AcademicRecord{
		{CourseTitle: "Phonetics", Period: "2025-2", FinalGrade: 64},
		{CourseTitle: "English A1", Period: "2025-1", FinalGrade: 88},
	}, nil)
	return a
}

func TestContextBuilderCollectsWeakAreas(t *testing.T) {
	materials := &mockMaterials{}
	materials.On("Excerpt", "a2/irregular.pdf").Return("go went gone", nil).Once()

	b := NewContextBuilder(academicFixture(), materials)
	sc, err := b.Build(context.Background(), &models.Student{ID: 5, FirstName: "Ana", LastName: "López", Level: "A2"})
	require.NoError(t, err)

	assert.Equal(t, "Ana López", sc.StudentName)
	require.Len(t, sc.Courses, 1)
	assert.Equal(t, []string{"Greetings", "Past tenses"}, sc.Courses[0].Modules)
	assert.Len(t, sc.RecentGrades, 3)
	assert.Equal(t, "English A2", sc.RecentGrades[0].Course)
	assert.Equal(t, []string{"Irregular verbs (English A2)", "Phonetics"}, sc.WeakAreas)
	assert.Equal(t, []MaterialExcerpt{{Lesson: "Irregular verbs", Text: "go went gone"}}, sc.Excerpts)
	assert.Len(t, sc.History, 2)
	materials.AssertExpectations(t)
}

func TestContextBuilderSkipsUnreadableMaterial(t *testing.T) {
	materials := &mockMaterials{}
	materials.On("Excerpt", "a2/irregular.pdf").Return("", errors.New("no such file"))

	b := NewContextBuilder(academicFixture(), materials)
	sc, err := b.Build(context.Background(), &models.Student{ID: 5})
	require.NoError(t, err)
	assert.Empty(t, sc.Excerpts)
	assert.NotEmpty(t, sc.WeakAreas)
}

func TestContextBuilderPropagatesRepositoryErrors(t *testing.T) {
	a := &mockAcademics{}
	a.On("ActiveEnrollments", mock.Anything, uint(5)).Return(nil, nil)
	a.On("RecentSubmissions", mock.Anything, uint(5), mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := NewContextBuilder(a, nil).Build(context.Background(), &models.Student{ID: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	a.AssertNotCalled(t, "RecentHistory", mock.Anything, mock.Anything, mock.Anything)
}
