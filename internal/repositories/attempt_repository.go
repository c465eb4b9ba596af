package repositories

import (
	"context"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for assessment attempt operations
type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentAttempt, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error

	// Query operations
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters AttemptFilters) ([]*models.AssessmentAttempt, int64, error)
	// GetLatest returns the user's most recent attempt on an assessment, or nil.
	GetLatest(ctx context.Context, tx *gorm.DB, userID, assessmentID string) (*models.AssessmentAttempt, error)
}

// CompletionRepository records passed lessons
type CompletionRepository interface {
	// Upsert stores the completion, keeping the best score per user and lesson.
	Upsert(ctx context.Context, tx *gorm.DB, completion *models.LessonCompletion) error
	Get(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.LessonCompletion, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.LessonCompletion, error)
}
