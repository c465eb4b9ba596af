package repositories

import (
	"context"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the repositories and the transaction boundary shared by
// the services.
type Repository interface {
	Assessment() AssessmentRepository
	Attempt() AttemptRepository
	Completion() CompletionRepository

	// Transaction runs fn inside a database transaction. Repositories called
	// with the tx argument join it.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	LessonID  string `json:"lesson_id"`
	CreatedBy string `json:"created_by"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "created_at", "title"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	AssessmentID string              `json:"assessment_id"`
	Phase        models.AttemptPhase `json:"phase"`
	Limit        int                 `json:"limit"`
	Offset       int                 `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type AssessmentStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	SubmittedAttempts int     `json:"submitted_attempts"`
	PassedAttempts    int     `json:"passed_attempts"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
	QuestionCount     int     `json:"question_count"`
}
