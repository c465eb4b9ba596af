package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/events"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

// NotificationEventService publishes attempt lifecycle events for other
// services (progress tracking, lesson unlocking) to consume.
type NotificationEventService interface {
	NotifyAttemptStarted(ctx context.Context, attempt *models.AssessmentAttempt, assessment *models.Assessment) error
	NotifyAttemptSubmitted(ctx context.Context, attempt *models.AssessmentAttempt, assessment *models.Assessment, result models.Result) error
	NotifyAttemptReset(ctx context.Context, attempt *models.AssessmentAttempt) error
	// NotifyLessonCompleted reports a passed lesson. Delivery is fire and
	// forget: callers log the error and carry on.
	NotifyLessonCompleted(ctx context.Context, completion *models.LessonCompletion, assessment *models.Assessment) error
}

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(eventPublisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *notificationEventService) NotifyAttemptStarted(ctx context.Context, attempt *models.AssessmentAttempt, assessment *models.Assessment) error {
	s.logger.Info("Publishing attempt started event", "attempt_id", attempt.ID)

	event := events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		AttemptID:       attempt.ID,
		AssessmentID:    assessment.ID,
		AssessmentTitle: assessment.Title,
		LessonID:        assessment.LessonID,
		UserID:          attempt.UserID,
		QuestionCount:   len(assessment.Questions),
		StartedAt:       time.Now(),
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyAttemptSubmitted(ctx context.Context, attempt *models.AssessmentAttempt, assessment *models.Assessment, result models.Result) error {
	s.logger.Info("Publishing attempt submitted event", "attempt_id", attempt.ID, "score", result.Score)

	submittedAt := time.Now()
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}

	event := events.NewAttemptSubmittedEvent(events.AttemptSubmittedEvent{
		AttemptID:       attempt.ID,
		AssessmentID:    assessment.ID,
		AssessmentTitle: assessment.Title,
		LessonID:        assessment.LessonID,
		UserID:          attempt.UserID,
		SubmittedAt:     submittedAt,
		Score:           result.Score,
		Passed:          result.Passed,
		CorrectCount:    result.CorrectCount,
		TotalQuestions:  result.TotalQuestions,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyAttemptReset(ctx context.Context, attempt *models.AssessmentAttempt) error {
	s.logger.Info("Publishing attempt reset event", "attempt_id", attempt.ID)

	event := events.NewAttemptResetEvent(events.AttemptResetEvent{
		AttemptID:    attempt.ID,
		AssessmentID: attempt.AssessmentID,
		UserID:       attempt.UserID,
		ResetAt:      time.Now(),
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) NotifyLessonCompleted(ctx context.Context, completion *models.LessonCompletion, assessment *models.Assessment) error {
	s.logger.Info("Publishing lesson completed event",
		"lesson_id", completion.LessonID,
		"user_id", completion.UserID,
		"score", completion.Score)

	event := events.NewLessonCompletedEvent(events.LessonCompletedEvent{
		LessonID:     completion.LessonID,
		BoxID:        assessment.BoxID,
		UserID:       completion.UserID,
		AssessmentID: completion.AssessmentID,
		AttemptID:    completion.AttemptID,
		Score:        completion.Score,
		CompletedAt:  completion.CompletedAt,
	})
	return s.publish(ctx, event)
}

func (s *notificationEventService) publish(ctx context.Context, event *events.Event) error {
	if err := s.eventPublisher.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}
