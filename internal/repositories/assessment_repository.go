package repositories

import (
	"context"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository interface for assessment-specific operations
type AssessmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Assessment, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error // Soft delete

	// Query operations
	// GetByLessonID returns the newest assessment of a lesson, or nil.
	GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) (*models.Assessment, error)
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	// Validation helpers
	HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error)

	// Statistics
	GetAssessmentStats(ctx context.Context, tx *gorm.DB, id string) (*AssessmentStats, error)
}
