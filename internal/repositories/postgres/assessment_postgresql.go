package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type AssessmentPostgreSQL struct {
	db       *gorm.DB
	cache    cache.CacheService
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewAssessmentPostgreSQL builds the assessment repository. A nil cache
// disables read-through caching.
func NewAssessmentPostgreSQL(db *gorm.DB, cacheService cache.CacheService, cacheTTL time.Duration, logger *slog.Logger) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:       db,
		cache:    cacheService,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func assessmentCacheKey(id string) string {
	return "assessment:" + id
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// GetByID reads through the cache. Assessments never change after import,
// so a cached copy stays valid until the assessment is deleted.
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Assessment, error) {
	if a.cache == nil || tx != nil {
		return a.load(ctx, a.getDB(tx), id)
	}

	var assessment models.Assessment
	err := a.cache.CacheOrExecute(ctx, assessmentCacheKey(id), &assessment, a.cacheTTL, func() (interface{}, error) {
		return a.load(ctx, a.db, id)
	})
	if err != nil {
		return nil, err
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) load(ctx context.Context, db *gorm.DB, id string) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&assessment).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID string) (*models.Assessment, error) {
	db := a.getDB(tx)
	var assessment models.Assessment
	err := db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at DESC").
		First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment for lesson: %w", err)
	}
	assessment.QuestionsCount = len(assessment.Questions)
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Assessment{})
	if filters.LessonID != "" {
		query = query.Where("lesson_id = ?", filters.LessonID)
	}
	if filters.CreatedBy != "" {
		query = query.Where("created_by = ?", filters.CreatedBy)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	var assessments []*models.Assessment
	if err := applyPaginationAndSort(query, filters).Find(&assessments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	for _, assessment := range assessments {
		assessment.QuestionsCount = len(assessment.Questions)
	}
	return assessments, total, nil
}

// Delete soft deletes the assessment and drops it from the cache
func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := a.getDB(tx)
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&models.Assessment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if a.cache != nil {
		if err := a.cache.Delete(ctx, assessmentCacheKey(id)); err != nil {
			a.logger.Warn("Failed to invalidate assessment cache", "assessment_id", id, "error", err)
		}
	}
	return nil
}

func (a *AssessmentPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.AssessmentAttempt{}).
		Where("assessment_id = ?", id).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AssessmentPostgreSQL) GetAssessmentStats(ctx context.Context, tx *gorm.DB, id string) (*repositories.AssessmentStats, error) {
	assessment, err := a.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	db := a.getDB(tx)
	var row struct {
		Total     int
		Submitted int
		Passed    int
		AvgScore  float64
	}
	err = db.WithContext(ctx).Model(&models.AssessmentAttempt{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN phase = ? THEN 1 ELSE 0 END), 0) AS submitted,
			COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(AVG(score), 0) AS avg_score`, models.PhaseSubmitted).
		Where("assessment_id = ?", id).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute assessment stats: %w", err)
	}

	stats := &repositories.AssessmentStats{
		TotalAttempts:     row.Total,
		SubmittedAttempts: row.Submitted,
		PassedAttempts:    row.Passed,
		AverageScore:      row.AvgScore,
		QuestionCount:     len(assessment.Questions),
	}
	if row.Submitted > 0 {
		stats.PassRate = float64(row.Passed) / float64(row.Submitted) * 100
	}
	return stats, nil
}

func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func applyPaginationAndSort(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	sortBy := "created_at"
	if filters.SortBy == "title" {
		sortBy = "title"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
