// Package repository implements the service repositories on gorm. Single-row
// lookups return nil, nil when nothing matches.
package repository

import (
	"context"
	"errors"

	"github.com/local/studyguide/api/models"
	"gorm.io/gorm"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) FindStudentByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Student").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type AcademicRepository struct {
	db *gorm.DB
}

func NewAcademicRepository(db *gorm.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// ActiveEnrollments loads active enrollments with their course, modules and
// lessons in course order.
func (r *AcademicRepository) ActiveEnrollments(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Modules", byPosition).
		Preload("Course.Modules.Lessons", byPosition).
		Where("student_id = ? AND status = ?", studentID, models.EnrollmentActive).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// RecentSubmissions returns the latest submissions with lesson and module.
func (r *AcademicRepository) RecentSubmissions(ctx context.Context, studentID uint, limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Preload("Lesson.Module").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}

func (r *AcademicRepository) RecentHistory(ctx context.Context, studentID uint, limit int) ([]models.AcademicRecord, error) {
	var records []models.AcademicRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

type GuideRepository struct {
	db *gorm.DB
}

func NewGuideRepository(db *gorm.DB) *GuideRepository {
	return &GuideRepository{db: db}
}

func (r *GuideRepository) Create(ctx context.Context, guide *models.StudyGuide) error {
	return r.db.WithContext(ctx).Create(guide).Error
}

func (r *GuideRepository) FindByID(ctx context.Context, id, studentID uint) (*models.StudyGuide, error) {
	var guide models.StudyGuide
	err := r.db.WithContext(ctx).Where("id = ? AND student_id = ?", id, studentID).First(&guide).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &guide, nil
}

func (r *GuideRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.StudyGuide, error) {
	var guides []models.StudyGuide
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&guides).Error
	return guides, err
}

// Update writes title and content; created_at and ownership never change.
func (r *GuideRepository) Update(ctx context.Context, guide *models.StudyGuide) error {
	return r.db.WithContext(ctx).
		Model(&models.StudyGuide{}).
		Where("id = ? AND student_id = ?", guide.ID, guide.StudentID).
		Updates(map[string]interface{}{"title": guide.Title, "content": guide.Content}).Error
}

func (r *GuideRepository) Delete(ctx context.Context, id, studentID uint) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND student_id = ?", id, studentID).
		Delete(&models.StudyGuide{}).Error
}
