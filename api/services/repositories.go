package services

import (
	"context"

	"github.com/local/studyguide/api/auth"
	"github.com/local/studyguide/api/models"
)

// SessionProvider returns the authenticated user, or nil without a session.
type SessionProvider interface {
	CurrentUser(ctx context.Context) *auth.User
}

// StudentRepository lookups return nil, nil when the record does not exist.
type StudentRepository interface {
	FindStudentByUserID(ctx context.Context, userID uint) (*models.Student, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AcademicRepository exposes the read-only queries used to build prompt context.
type AcademicRepository interface {
	ActiveEnrollments(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	RecentSubmissions(ctx context.Context, studentID uint, limit int) ([]models.Submission, error)
	RecentHistory(ctx context.Context, studentID uint, limit int) ([]models.AcademicRecord, error)
}

// GuideRepository stores study guides. Every query is scoped to the owner;
// FindByID returns nil, nil for missing or foreign guides.
type GuideRepository interface {
	Create(ctx context.Context, guide *models.StudyGuide) error
	FindByID(ctx context.Context, id, studentID uint) (*models.StudyGuide, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.StudyGuide, error)
	Update(ctx context.Context, guide *models.StudyGuide) error
	Delete(ctx context.Context, id, studentID uint) error
}
