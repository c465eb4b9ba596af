package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/engine"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type attemptService struct {
	repo     repositories.Repository
	notifier NotificationEventService
	metrics  *metrics.Metrics
	logger   *slog.Logger
	log      *ServiceLogger
}

// NewAttemptService wires the attempt workflow. A nil metrics value disables
// instrumentation.
func NewAttemptService(
	repo repositories.Repository,
	notifier NotificationEventService,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) AttemptService {
	return &attemptService{
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		log:      NewServiceLogger(logger, LogConfig{Service: "lesson-assessment-service", Component: "attempt"}),
	}
}

// ===== LIFECYCLE =====

// Start returns the user's open attempt on the assessment, or creates a new
// one in the intro phase when every earlier attempt has been submitted.
func (s *attemptService) Start(ctx context.Context, assessmentID, userID string) (*models.AttemptResponse, error) {
	op := s.log.WithOperation(ctx, "start_attempt", userID)

	assessment, err := s.loadAssessment(ctx, assessmentID)
	if err != nil {
		op.LogResult(assessmentID, "assessment", err)
		return nil, err
	}

	latest, err := s.repo.Attempt().GetLatest(ctx, nil, userID, assessmentID)
	if err != nil {
		err = fmt.Errorf("failed to get latest attempt: %w", err)
		op.LogResult(assessmentID, "assessment", err)
		return nil, err
	}
	if latest != nil && latest.Phase != models.PhaseSubmitted {
		s.logger.Info("Resuming existing attempt", "attempt_id", latest.ID, "phase", latest.Phase)
		op.LogResult(latest.ID, "attempt", nil)
		return toAttemptResponse(latest, assessment), nil
	}

	attempt := newAttemptRecord(userID, engine.StartAttempt(assessment))
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		err = fmt.Errorf("failed to create attempt: %w", err)
		op.LogResult(assessmentID, "assessment", err)
		return nil, err
	}

	op.LogResult(attempt.ID, "attempt", nil)
	return toAttemptResponse(attempt, assessment), nil
}

func (s *attemptService) Begin(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	var started bool
	attempt, assessment, err := s.update(ctx, "begin_attempt", attemptID, userID,
		func(_ *gorm.DB, attempt *models.AssessmentAttempt, _ *models.Assessment) error {
			state := attempt.State.Data()
			next, err := engine.Begin(state)
			if err != nil {
				return err
			}
			started = state.Phase == models.PhaseIntro
			attempt.State = datatypes.NewJSONType(next)
			return nil
		})
	if err != nil {
		return nil, err
	}

	if started {
		s.metrics.AttemptStarted()
		s.logDelivery(ctx, eventAttrs(attempt.ID, "attempt.started"),
			s.notifier.NotifyAttemptStarted(ctx, attempt, assessment))
	}
	return toAttemptResponse(attempt, assessment), nil
}

// Submit grades the attempt from its last question and locks it. The lesson
// is recorded as complete when the attempt passes. Submitting twice returns
// the stored result without grading again.
func (s *attemptService) Submit(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	var (
		result     models.Result
		graded     bool
		completion *models.LessonCompletion
	)

	attempt, assessment, err := s.update(ctx, "submit_attempt", attemptID, userID,
		func(tx *gorm.DB, attempt *models.AssessmentAttempt, assessment *models.Assessment) error {
			state := attempt.State.Data()
			next, res, err := engine.Submit(assessment, state)
			if err != nil {
				return err
			}
			result = res
			if state.Phase == models.PhaseSubmitted {
				return nil
			}

			graded = true
			now := time.Now().UTC()
			score, passed := res.Score, res.Passed
			attempt.State = datatypes.NewJSONType(next)
			attempt.Score = &score
			attempt.Passed = &passed
			attempt.SubmittedAt = &now

			if !passed {
				return nil
			}
			completion = &models.LessonCompletion{
				UserID:       attempt.UserID,
				LessonID:     assessment.LessonID,
				AssessmentID: assessment.ID,
				AttemptID:    attempt.ID,
				Score:        score,
				CompletedAt:  now,
			}
			if err := s.repo.Completion().Upsert(ctx, tx, completion); err != nil {
				return fmt.Errorf("failed to record lesson completion: %w", err)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	if graded {
		if ids := engine.MalformedQuestions(result); len(ids) > 0 {
			s.logger.WarnContext(ctx, "Questions graded incorrect because their answer key is malformed",
				"attempt_id", attempt.ID,
				"assessment_id", assessment.ID,
				"question_ids", ids)
			s.metrics.MalformedKeys(len(ids))
		}
		s.metrics.AttemptSubmitted(result.Score, result.Passed)
		s.logger.Info("Attempt submitted",
			"attempt_id", attempt.ID,
			"score", result.Score,
			"passed", result.Passed,
			"correct", result.CorrectCount,
			"total", result.TotalQuestions)

		s.logDelivery(ctx, eventAttrs(attempt.ID, "attempt.submitted"),
			s.notifier.NotifyAttemptSubmitted(ctx, attempt, assessment, result))
		if completion != nil {
			s.logDelivery(ctx, eventAttrs(attempt.ID, "lesson.completed"),
				s.notifier.NotifyLessonCompleted(ctx, completion, assessment))
		}
	}
	return toAttemptResponse(attempt, assessment), nil
}

// Reset is "retake". An unsubmitted attempt is cleared in place; a submitted
// one is kept as history and a fresh attempt is opened next to it.
func (s *attemptService) Reset(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	op := s.log.WithOperation(ctx, "reset_attempt", userID)

	var (
		target     *models.AssessmentAttempt
		assessment *models.Assessment
	)
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.loadAttempt(ctx, tx, attemptID, userID, "reset", true)
		if err != nil {
			return err
		}
		assessment, err = s.loadAssessment(ctx, attempt.AssessmentID)
		if err != nil {
			return err
		}

		fresh := engine.Reset(attempt.State.Data())
		if attempt.Phase == models.PhaseSubmitted {
			target = newAttemptRecord(userID, fresh)
			if err := s.repo.Attempt().Create(ctx, tx, target); err != nil {
				return fmt.Errorf("failed to create attempt: %w", err)
			}
			return nil
		}

		attempt.State = datatypes.NewJSONType(fresh)
		attempt.Phase = fresh.Phase
		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		target = attempt
		return nil
	})
	op.LogResult(attemptID, "attempt", err)
	if err != nil {
		return nil, err
	}

	s.logDelivery(ctx, eventAttrs(target.ID, "attempt.reset"), s.notifier.NotifyAttemptReset(ctx, target))
	return toAttemptResponse(target, assessment), nil
}

// ===== ANSWERS AND FLAGS =====

func (s *attemptService) SetAnswer(ctx context.Context, attemptID, questionID, userID string, raw json.RawMessage) (*models.AttemptResponse, error) {
	var recorded models.Answer
	resp, err := s.transition(ctx, "set_answer", attemptID, userID,
		func(state models.AttemptState, assessment *models.Assessment) (models.AttemptState, error) {
			if err := engine.RequireInProgress(state); err != nil {
				return state, err
			}
			q, _, ok := assessment.QuestionByID(questionID)
			if !ok || !state.HasQuestion(questionID) {
				return state, ErrQuestionNotFound
			}
			answer, err := models.DecodeAnswer(q.Type, raw)
			if err != nil {
				return state, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
			}
			recorded = answer
			return engine.SetAnswer(state, questionID, answer)
		})
	if err != nil {
		return nil, err
	}
	if recorded != nil {
		s.metrics.AnswerRecorded(string(recorded.Kind()))
	}
	return resp, nil
}

func (s *attemptService) ToggleMark(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error) {
	return s.transition(ctx, "toggle_mark", attemptID, userID,
		func(state models.AttemptState, _ *models.Assessment) (models.AttemptState, error) {
			return engine.ToggleMark(state, questionID)
		})
}

func (s *attemptService) ToggleReveal(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error) {
	return s.transition(ctx, "toggle_reveal", attemptID, userID,
		func(state models.AttemptState, _ *models.Assessment) (models.AttemptState, error) {
			return engine.ToggleReveal(state, questionID)
		})
}

// ===== NAVIGATION =====

func (s *attemptService) Next(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return s.transition(ctx, "next_question", attemptID, userID,
		func(state models.AttemptState, _ *models.Assessment) (models.AttemptState, error) {
			return engine.GoNext(state)
		})
}

func (s *attemptService) Prev(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return s.transition(ctx, "prev_question", attemptID, userID,
		func(state models.AttemptState, _ *models.Assessment) (models.AttemptState, error) {
			return engine.GoPrev(state)
		})
}

func (s *attemptService) JumpTo(ctx context.Context, attemptID, userID string, index int) (*models.AttemptResponse, error) {
	return s.transition(ctx, "jump_to_question", attemptID, userID,
		func(state models.AttemptState, _ *models.Assessment) (models.AttemptState, error) {
			return engine.JumpTo(state, index)
		})
}

// ===== QUERIES =====

func (s *attemptService) Get(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	attempt, assessment, err := s.read(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	return toAttemptResponse(attempt, assessment), nil
}

func (s *attemptService) Progress(ctx context.Context, attemptID, userID string) (*ProgressResponse, error) {
	attempt, _, err := s.read(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	state := attempt.State.Data()
	return &ProgressResponse{
		AttemptID:      attempt.ID,
		Phase:          state.Phase,
		CurrentIndex:   state.CurrentIndex,
		AnsweredCount:  engine.AnsweredCount(state),
		MarkedCount:    len(state.MarkedForReview),
		TotalQuestions: state.QuestionCount(),
		Questions:      engine.Progress(state),
	}, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, userID string, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	attempts, total, err := s.repo.Attempt().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return &AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

func (s *attemptService) ListCompletions(ctx context.Context, userID string) ([]*models.LessonCompletion, error) {
	completions, err := s.repo.Completion().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson completions: %w", err)
	}
	return completions, nil
}

func (s *attemptService) GetCompletion(ctx context.Context, userID, lessonID string) (*models.LessonCompletion, error) {
	completion, err := s.repo.Completion().Get(ctx, nil, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson completion: %w", err)
	}
	if completion == nil {
		return nil, ErrCompletionNotFound
	}
	return completion, nil
}

// ===== HELPERS =====

type changeFunc func(tx *gorm.DB, attempt *models.AssessmentAttempt, assessment *models.Assessment) error

// update locks the attempt, applies change to it and saves it in one
// transaction. Engine errors are translated before they leave the service.
func (s *attemptService) update(ctx context.Context, operation, attemptID, userID string, change changeFunc) (*models.AssessmentAttempt, *models.Assessment, error) {
	op := s.log.WithOperation(ctx, operation, userID)

	var (
		attempt    *models.AssessmentAttempt
		assessment *models.Assessment
	)
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		attempt, err = s.loadAttempt(ctx, tx, attemptID, userID, operation, true)
		if err != nil {
			return err
		}
		assessment, err = s.loadAssessment(ctx, attempt.AssessmentID)
		if err != nil {
			return err
		}

		if err := change(tx, attempt, assessment); err != nil {
			return mapEngineError(err)
		}
		attempt.Phase = attempt.State.Data().Phase
		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		return nil
	})

	op.LogResult(attemptID, "attempt", err)
	if err != nil {
		return nil, nil, err
	}
	return attempt, assessment, nil
}

// transition runs a pure state step through update.
func (s *attemptService) transition(
	ctx context.Context,
	operation, attemptID, userID string,
	step func(state models.AttemptState, assessment *models.Assessment) (models.AttemptState, error),
) (*models.AttemptResponse, error) {
	attempt, assessment, err := s.update(ctx, operation, attemptID, userID,
		func(_ *gorm.DB, attempt *models.AssessmentAttempt, assessment *models.Assessment) error {
			next, err := step(attempt.State.Data(), assessment)
			if err != nil {
				return err
			}
			attempt.State = datatypes.NewJSONType(next)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return toAttemptResponse(attempt, assessment), nil
}

func (s *attemptService) read(ctx context.Context, attemptID, userID string) (*models.AssessmentAttempt, *models.Assessment, error) {
	attempt, err := s.loadAttempt(ctx, nil, attemptID, userID, "view", false)
	if err != nil {
		return nil, nil, err
	}
	assessment, err := s.loadAssessment(ctx, attempt.AssessmentID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, assessment, nil
}

func (s *attemptService) loadAttempt(ctx context.Context, tx *gorm.DB, attemptID, userID, action string, forUpdate bool) (*models.AssessmentAttempt, error) {
	var (
		attempt *models.AssessmentAttempt
		err     error
	)
	if forUpdate {
		attempt, err = s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
	} else {
		attempt, err = s.repo.Attempt().GetByID(ctx, tx, attemptID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", action, "attempt belongs to another user")
	}
	return attempt, nil
}

func (s *attemptService) loadAssessment(ctx context.Context, assessmentID string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

// logDelivery records a failed event publication. Events never fail the
// request that produced them.
func (s *attemptService) logDelivery(ctx context.Context, attrs []any, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "Event delivery failed", append(attrs, "error", err)...)
}

func eventAttrs(attemptID, eventType string) []any {
	return []any{"attempt_id", attemptID, "event_type", eventType}
}

func newAttemptRecord(userID string, state models.AttemptState) *models.AssessmentAttempt {
	return &models.AssessmentAttempt{
		ID:           uuid.NewString(),
		AssessmentID: state.AssessmentID,
		UserID:       userID,
		Phase:        state.Phase,
		State:        datatypes.NewJSONType(state),
	}
}

func toAttemptResponse(attempt *models.AssessmentAttempt, assessment *models.Assessment) *models.AttemptResponse {
	state := attempt.State.Data()
	return &models.AttemptResponse{
		ID:            attempt.ID,
		AssessmentID:  attempt.AssessmentID,
		UserID:        attempt.UserID,
		State:         state,
		AnsweredCount: engine.AnsweredCount(state),
		IsLast:        state.Phase == models.PhaseInProgress && engine.IsLastQuestion(state),
		Revealed:      revealedAnswers(state, assessment),
		SubmittedAt:   attempt.SubmittedAt,
		UpdatedAt:     attempt.UpdatedAt,
	}
}

func revealedAnswers(state models.AttemptState, assessment *models.Assessment) []models.RevealedAnswer {
	out := []models.RevealedAnswer{}
	for _, id := range state.QuestionIDs {
		if !state.Revealed.Has(id) {
			continue
		}
		q, _, ok := assessment.QuestionByID(id)
		if !ok {
			continue
		}
		revealed := models.RevealedAnswer{QuestionID: id, Feedback: q.Feedback}
		if key, err := q.AnswerKey(); err == nil {
			revealed.CorrectAnswer = key
		}
		out = append(out, revealed)
	}
	return out
}
