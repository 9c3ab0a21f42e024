package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/local/studyguide/api/models"
	"github.com/rs/zerolog/log"
)

const (
	// Grades below this (0-100 scale) mark the lesson as a weak area.
	WeakGradeThreshold = 70

	recentSubmissionLimit = 10
	recentHistoryLimit    = 5
	maxExcerpts           = 2
)

// MaterialReader returns a short text excerpt of a lesson's material.
type MaterialReader interface {
	Excerpt(path string) (string, error)
}

// ContextBuilder gathers the academic data rendered into the prompt.
type ContextBuilder struct {
	academics AcademicRepository
	materials MaterialReader
}

func NewContextBuilder(academics AcademicRepository, materials MaterialReader) *ContextBuilder {
	return &ContextBuilder{academics: academics, materials: materials}
}

// Build fails only on repository errors; material excerpts are best-effort.
func (b *ContextBuilder) Build(ctx context.Context, student *models.Student) (StudentContext, error) {
	sc := StudentContext{
		StudentName: strings.TrimSpace(student.FirstName + " " + student.LastName),
		Level:       student.Level,
	}

	enrollments, err := b.academics.ActiveEnrollments(ctx, student.ID)
	if err != nil {
		return sc, fmt.Errorf("failed to load enrollments: %w", err)
	}
	courseTitles := make(map[uint]string, len(enrollments))
	for _, e := range enrollments {
		courseTitles[e.CourseID] = e.Course.Title
		course := CourseContext{Title: e.Course.Title, Level: e.Course.Level, Progress: e.Progress}
		for _, m := range e.Course.Modules {
			course.Modules = append(course.Modules, m.Title)
		}
		sc.Courses = append(sc.Courses, course)
	}

	submissions, err := b.academics.RecentSubmissions(ctx, student.ID, recentSubmissionLimit)
	if err != nil {
		return sc, fmt.Errorf("failed to load submissions: %w", err)
	}
	seenWeak := make(map[string]bool)
	var weakLessons []models.Lesson
	for _, s := range submissions {
		if s.Grade == nil {
			continue
		}
		var courseTitle string
		if s.Lesson.Module != nil {
			courseTitle = courseTitles[s.Lesson.Module.CourseID]
		}
		sc.RecentGrades = append(sc.RecentGrades, GradeContext{
			Course:   courseTitle,
			Lesson:   s.Lesson.Title,
			Grade:    *s.Grade,
			Feedback: s.Feedback,
		})
		if *s.Grade < WeakGradeThreshold {
			area := s.Lesson.Title
			if courseTitle != "" {
				area = fmt.Sprintf("%s (%s)", s.Lesson.Title, courseTitle)
			}
			if !seenWeak[area] {
				seenWeak[area] = true
				sc.WeakAreas = append(sc.WeakAreas, area)
				weakLessons = append(weakLessons, s.Lesson)
			}
		}
	}

	history, err := b.academics.RecentHistory(ctx, student.ID, recentHistoryLimit)
	if err != nil {
		return sc, fmt.Errorf("failed to load academic history: %w", err)
	}
	for _, h := range history {
		sc.History = append(sc.History, HistoryContext{
			Course:     h.CourseTitle,
			Period:     h.Period,
			FinalGrade: h.FinalGrade,
			Remarks:    h.Remarks,
		})
		if h.FinalGrade < WeakGradeThreshold && !seenWeak[h.CourseTitle] {
			seenWeak[h.CourseTitle] = true
			sc.WeakAreas = append(sc.WeakAreas, h.CourseTitle)
		}
	}

	sc.Excerpts = b.excerpts(student.ID, weakLessons)
	return sc, nil
}

func (b *ContextBuilder) excerpts(studentID uint, lessons []models.Lesson) []MaterialExcerpt {
	if b.materials == nil {
		return nil
	}
	var out []MaterialExcerpt
	for _, l := range lessons {
		if len(out) == maxExcerpts {
			break
		}
		if l.MaterialPath == "" {
			continue
		}
		text, err := b.materials.Excerpt(l.MaterialPath)
		if err != nil {
			log.Warn().Err(err).Uint("student_id", studentID).Uint("lesson_id", l.ID).Msg("Failed to read lesson material")
			continue
		}
		if text != "" {
			out = append(out, MaterialExcerpt{Lesson: l.Title, Text: text})
		}
	}
	return out
}
