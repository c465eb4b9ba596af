package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultLanguage = "en"

type assessmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	log       *ServiceLogger
	validator *validator.Validator
}

func NewAssessmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		logger:    logger,
		log:       NewServiceLogger(logger, LogConfig{Service: "lesson-assessment-service", Component: "assessment"}),
		validator: validator,
	}
}

// ===== CORE OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *models.CreateAssessmentRequest, creatorID string) (*models.Assessment, error) {
	op := s.log.WithOperation(ctx, "create_assessment", creatorID)
	s.logger.Info("Creating assessment", "creator_id", creatorID, "lesson_id", req.LessonID, "questions", len(req.Questions))

	if err := s.validator.Validate(req); err != nil {
		op.LogResult("", "assessment", err)
		return nil, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = defaultLanguage
	}

	assessment := &models.Assessment{
		ID:           uuid.NewString(),
		LessonID:     req.LessonID,
		BoxID:        req.BoxID,
		Title:        strings.TrimSpace(req.Title),
		Language:     language,
		PassingScore: req.PassingScore,
		Questions:    datatypes.JSONSlice[models.Question](req.Questions),
		CreatedBy:    creatorID,
	}

	// A lesson links to exactly one assessment.
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		existing, err := s.repo.Assessment().GetByLessonID(ctx, tx, assessment.LessonID)
		if err != nil {
			return fmt.Errorf("failed to check lesson assessment: %w", err)
		}
		if existing != nil {
			return NewBusinessRuleError("one_assessment_per_lesson", "lesson already has an assessment", map[string]interface{}{
				"lesson_id":     assessment.LessonID,
				"assessment_id": existing.ID,
			})
		}
		if err := s.repo.Assessment().Create(ctx, tx, assessment); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		return nil
	})
	if err != nil {
		op.LogResult("", "assessment", err)
		return nil, err
	}
	assessment.QuestionsCount = len(assessment.Questions)

	op.LogResult(assessment.ID, "assessment", nil)
	op.LogAudit(AuditEventCreate, assessment.ID, "assessment", map[string]interface{}{
		"lesson_id": assessment.LessonID,
		"questions": assessment.QuestionsCount,
	})
	return assessment, nil
}

func (s *assessmentService) Get(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return assessment, nil
}

func (s *assessmentService) GetByLesson(ctx context.Context, lessonID string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByLessonID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return assessment, nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	assessments, total, err := s.repo.Assessment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	for _, a := range assessments {
		a.QuestionsCount = len(a.Questions)
	}

	return &AssessmentListResponse{
		Assessments: assessments,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// Delete removes an assessment. Only its creator may delete it, and only
// while nobody has attempted it.
func (s *assessmentService) Delete(ctx context.Context, id string, userID string) error {
	op := s.log.WithOperation(ctx, "delete_assessment", userID)

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		assessment, err := s.repo.Assessment().GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssessmentNotFound
			}
			return fmt.Errorf("failed to get assessment: %w", err)
		}
		if assessment.CreatedBy != userID {
			return NewPermissionError(userID, id, "assessment", "delete", "not the creator")
		}

		hasAttempts, err := s.repo.Assessment().HasAttempts(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to check attempts: %w", err)
		}
		if hasAttempts {
			return ErrAssessmentNotDeletable
		}

		if err := s.repo.Assessment().Delete(ctx, tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssessmentNotFound
			}
			return fmt.Errorf("failed to delete assessment: %w", err)
		}
		return nil
	})

	op.LogResult(id, "assessment", err)
	if err == nil {
		op.LogAudit(AuditEventDelete, id, "assessment", nil)
	}
	return err
}

func (s *assessmentService) GetStats(ctx context.Context, id string) (*repositories.AssessmentStats, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	stats, err := s.repo.Assessment().GetAssessmentStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}
	return stats, nil
}
