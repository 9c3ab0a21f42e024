package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an authenticated account. Students, teachers and admins all have one.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // student, teacher, admin
	Student   *Student  `json:"estudiante,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Student is the academic profile attached to a user.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex" json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Level     string    `json:"level"` // CEFR level, e.g. "A2"
	CreatedAt time.Time `json:"created_at"`
}

type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	Modules     []Module  `json:"modules,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Module struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	CourseID uint     `gorm:"index" json:"course_id"`
	Title    string   `json:"title"`
	Position int      `json:"position"`
	Lessons  []Lesson `json:"lessons,omitempty"`
}

type Lesson struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	ModuleID     uint    `gorm:"index" json:"module_id"`
	Module       *Module `json:"module,omitempty"`
	Title        string  `json:"title"`
	Position     int     `json:"position"`
	MaterialPath string  `json:"material_path,omitempty"` // PDF relative to the materials dir
}

type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index" json:"student_id"`
	CourseID  uint      `gorm:"index" json:"course_id"`
	Course    Course    `json:"course"`
	Status    string    `gorm:"index" json:"status"` // active, completed, dropped
	Progress  float64   `json:"progress"`            // 0-100
	CreatedAt time.Time `json:"created_at"`
}

const EnrollmentActive = "active"

// Submission is a graded piece of work for a lesson.
type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"index" json:"student_id"`
	LessonID    uint      `gorm:"index" json:"lesson_id"`
	Lesson      Lesson    `json:"lesson"`
	Grade       *float64  `json:"grade,omitempty"` // 0-100, nil until graded
	Feedback    string    `json:"feedback,omitempty"`
	SubmittedAt time.Time `gorm:"index" json:"submitted_at"`
}

// AcademicRecord is a closed-period result (historial académico).
type AcademicRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"index" json:"student_id"`
	CourseTitle string    `json:"course_title"`
	Period      string    `json:"period"`
	FinalGrade  float64   `json:"final_grade"`
	Remarks     string    `json:"remarks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StudyGuide is a persisted AI study guide. Content holds the serialized guide
// document; older rows may hold plain text instead.
type StudyGuide struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	StudentID uint      `gorm:"index" json:"student_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AutoMigrate runs all migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Student{},
		&Course{},
		&Module{},
		&Lesson{},
		&Enrollment{},
		&Submission{},
		&AcademicRecord{},
		&StudyGuide{},
	)
}
