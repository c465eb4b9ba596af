package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeRepository runs transactions inline so the mocks see every call.
type fakeRepository struct {
	assessments *mockAssessmentRepository
	attempts    *mockAttemptRepository
	completions *mockCompletionRepository
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		assessments: &mockAssessmentRepository{},
		attempts:    &mockAttemptRepository{},
		completions: &mockCompletionRepository{},
	}
}

func (r *fakeRepository) Assessment() repositories.AssessmentRepository { return r.assessments }
func (r *fakeRepository) Attempt() repositories.AttemptRepository       { return r.attempts }
func (r *fakeRepository) Completion() repositories.CompletionRepository { return r.completions }

func (r *fakeRepository) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type mockAssessmentRepository struct {
	mock.Mock
}

func (m *mockAssessmentRepository) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	return m.Called(ctx, tx, assessment).Error(0)
}

func (m *mockAssessmentRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Assessment, error) {
	args := m.Called(ctx, tx, id)
	assessment, _ := args.Get(0).(*models.Assessment)
	return assessment, args.Error(1)
}

func (m *mockAssessmentRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *mockAssessmentRepository) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) (*models.Assessment, error) {
	args := m.Called(ctx, tx, lessonID)
	assessment, _ := args.Get(0).(*models.Assessment)
	return assessment, args.Error(1)
}

func (m *mockAssessmentRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	args := m.Called(ctx, tx, filters)
	assessments, _ := args.Get(0).([]*models.Assessment)
	return assessments, args.Get(1).(int64), args.Error(2)
}

func (m *mockAssessmentRepository) HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAssessmentRepository) GetAssessmentStats(ctx context.Context, tx *gorm.DB, id string) (*repositories.AssessmentStats, error) {
	args := m.Called(ctx, tx, id)
	stats, _ := args.Get(0).(*repositories.AssessmentStats)
	return stats, args.Error(1)
}

type mockAttemptRepository struct {
	mock.Mock
}

func (m *mockAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *mockAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentAttempt, error) {
	args := m.Called(ctx, tx, id)
	attempt, _ := args.Get(0).(*models.AssessmentAttempt)
	return attempt, args.Error(1)
}

func (m *mockAttemptRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentAttempt, error) {
	args := m.Called(ctx, tx, id)
	attempt, _ := args.Get(0).(*models.AssessmentAttempt)
	return attempt, args.Error(1)
}

func (m *mockAttemptRepository) Update(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *mockAttemptRepository) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AttemptFilters) ([]*models.AssessmentAttempt, int64, error) {
	args := m.Called(ctx, tx, userID, filters)
	attempts, _ := args.Get(0).([]*models.AssessmentAttempt)
	return attempts, args.Get(1).(int64), args.Error(2)
}

func (m *mockAttemptRepository) GetLatest(ctx context.Context, tx *gorm.DB, userID, assessmentID string) (*models.AssessmentAttempt, error) {
	args := m.Called(ctx, tx, userID, assessmentID)
	attempt, _ := args.Get(0).(*models.AssessmentAttempt)
	return attempt, args.Error(1)
}

type mockCompletionRepository struct {
	mock.Mock
}

func (m *mockCompletionRepository) Upsert(ctx context.Context, tx *gorm.DB, completion *models.LessonCompletion) error {
	return m.Called(ctx, tx, completion).Error(0)
}

func (m *mockCompletionRepository) Get(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.LessonCompletion, error) {
	args := m.Called(ctx, tx, userID, lessonID)
	completion, _ := args.Get(0).(*models.LessonCompletion)
	return completion, args.Error(1)
}

func (m *mockCompletionRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.LessonCompletion, error) {
	args := m.Called(ctx, tx, userID)
	completions, _ := args.Get(0).([]*models.LessonCompletion)
	return completions, args.Error(1)
}

// ===== FIXTURES =====

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAssessment has two questions and passes at 50%.
func testAssessment() *models.Assessment {
	return &models.Assessment{
		ID:           "asm-1",
		LessonID:     "lesson-7",
		Title:        "Fractions",
		Language:     "en",
		PassingScore: 50,
		CreatedBy:    "author-1",
		Questions: datatypes.JSONSlice[models.Question]{
			{
				ID:            "q1",
				Type:          models.MCQSingle,
				Prompt:        "What is 1/2 + 1/2?",
				Options:       []string{"0", "1", "2"},
				CorrectAnswer: json.RawMessage(`"1"`),
				Feedback:      "Two halves make a whole.",
			},
			{
				ID:            "q2",
				Type:          models.TrueFalse,
				Prompt:        "1/4 is less than 1/2.",
				CorrectAnswer: json.RawMessage(`true`),
			},
		},
	}
}

func testAttempt(id, userID string, state models.AttemptState) *models.AssessmentAttempt {
	return &models.AssessmentAttempt{
		ID:           id,
		AssessmentID: state.AssessmentID,
		UserID:       userID,
		Phase:        state.Phase,
		State:        datatypes.NewJSONType(state),
	}
}
