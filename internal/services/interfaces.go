package services

import (
	"context"
	"encoding/json"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/engine"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
)

// AssessmentService manages the assessments imported from the content provider.
type AssessmentService interface {
	Create(ctx context.Context, req *models.CreateAssessmentRequest, creatorID string) (*models.Assessment, error)
	Get(ctx context.Context, id string) (*models.Assessment, error)
	GetByLesson(ctx context.Context, lessonID string) (*models.Assessment, error)
	List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	Delete(ctx context.Context, id string, userID string) error
	GetStats(ctx context.Context, id string) (*repositories.AssessmentStats, error)
}

// AttemptService drives one user's attempt through intro, in_progress and
// submitted. Every call returns the attempt as stored after the change.
type AttemptService interface {
	Start(ctx context.Context, assessmentID, userID string) (*models.AttemptResponse, error)
	Get(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)
	Progress(ctx context.Context, attemptID, userID string) (*ProgressResponse, error)

	Begin(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)
	SetAnswer(ctx context.Context, attemptID, questionID, userID string, raw json.RawMessage) (*models.AttemptResponse, error)
	ToggleMark(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error)
	ToggleReveal(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error)

	Next(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)
	Prev(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)
	JumpTo(ctx context.Context, attemptID, userID string, index int) (*models.AttemptResponse, error)

	Submit(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)
	Reset(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)

	ListAttempts(ctx context.Context, userID string, filters repositories.AttemptFilters) (*AttemptListResponse, error)
	ListCompletions(ctx context.Context, userID string) ([]*models.LessonCompletion, error)
	GetCompletion(ctx context.Context, userID, lessonID string) (*models.LessonCompletion, error)
}

// ExportService renders submitted results as spreadsheets.
type ExportService interface {
	ExportAttemptResult(ctx context.Context, attemptID, userID string) ([]byte, error)
}

type AssessmentListResponse struct {
	Assessments []*models.Assessment `json:"assessments"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// AttemptListResponse is the caller's attempt history, newest first.
type AttemptListResponse struct {
	Attempts []*models.AssessmentAttempt `json:"attempts"`
	Total    int64                       `json:"total"`
	Limit    int                         `json:"limit"`
	Offset   int                         `json:"offset"`
}

// ProgressResponse backs the question navigator.
type ProgressResponse struct {
	AttemptID      string                  `json:"attempt_id"`
	Phase          models.AttemptPhase     `json:"phase"`
	CurrentIndex   int                     `json:"current_index"`
	AnsweredCount  int                     `json:"answered_count"`
	MarkedCount    int                     `json:"marked_count"`
	TotalQuestions int                     `json:"total_questions"`
	Questions      []engine.QuestionStatus `json:"questions"`
}
