package services

import (
	"context"
	"time"

	"github.com/local/studyguide/api/auth"
	"github.com/local/studyguide/api/models"
	"github.com/stretchr/testify/mock"
)

type mockSessions struct{ mock.Mock }

func (m *mockSessions) CurrentUser(ctx context.Context) *auth.User {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*auth.User)
	return u
}

type mockStudents struct{ mock.Mock }

func (m *mockStudents) FindStudentByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.Student)
	return s, args.Error(1)
}

func (m *mockStudents) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockAcademics struct{ mock.Mock }

func (m *mockAcademics) ActiveEnrollments(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	args := m.Called(ctx, studentID)
	e, _ := args.Get(0).([]models.Enrollment)
	return e, args.Error(1)
}

func (m *mockAcademics) RecentSubmissions(ctx context.Context, studentID uint, limit int) ([]models.Submission, error) {
	args := m.Called(ctx, studentID, limit)
	s, _ := args.Get(0).([]models.Submission)
	return s, args.Error(1)
}

func (m *mockAcademics) RecentHistory(ctx context.Context, studentID uint, limit int) ([]models.AcademicRecord, error) {
	args := m.Called(ctx, studentID, limit)
	r, _ := args.Get(0).([]models.AcademicRecord)
	return r, args.Error(1)
}

type mockGuides struct{ mock.Mock }

func (m *mockGuides) Create(ctx context.Context, guide *models.StudyGuide) error {
	return m.Called(ctx, guide).Error(0)
}

func (m *mockGuides) FindByID(ctx context.Context, id, studentID uint) (*models.StudyGuide, error) {
	args := m.Called(ctx, id, studentID)
	g, _ := args.Get(0).(*models.StudyGuide)
	return g, args.Error(1)
}

func (m *mockGuides) ListByStudent(ctx context.Context, studentID uint) ([]models.StudyGuide, error) {
	args := m.Called(ctx, studentID)
	g, _ := args.Get(0).([]models.StudyGuide)
	return g, args.Error(1)
}

func (m *mockGuides) Update(ctx context.Context, guide *models.StudyGuide) error {
	return m.Called(ctx, guide).Error(0)
}

func (m *mockGuides) Delete(ctx context.Context, id, studentID uint) error {
	return m.Called(ctx, id, studentID).Error(0)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	args := m.Called(ctx, prompt, systemInstruction)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) GetProviderName() string { return "mock" }

type mockVideos struct{ mock.Mock }

func (m *mockVideos) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	args := m.Called(ctx, query, limit)
	v, _ := args.Get(0).([]Video)
	return v, args.Error(1)
}

type mockMaterials struct{ mock.Mock }

func (m *mockMaterials) Excerpt(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

// memoryCache is a VideoCache backed by a map.
type memoryCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.setKeys = append(c.setKeys, key)
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}
