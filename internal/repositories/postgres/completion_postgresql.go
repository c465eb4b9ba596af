package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompletionPostgreSQL struct {
	db *gorm.DB
}

func NewCompletionPostgreSQL(db *gorm.DB) repositories.CompletionRepository {
	return &CompletionPostgreSQL{db: db}
}

// Upsert inserts the completion or, when the user already completed the
// lesson, replaces it only if the new score is at least as high.
func (c *CompletionPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, completion *models.LessonCompletion) error {
	db := c.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"assessment_id", "attempt_id", "score", "completed_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "lesson_completions.score <= excluded.score"},
		}},
	}).Create(completion).Error
	if err != nil {
		return fmt.Errorf("failed to record lesson completion: %w", err)
	}
	return nil
}

func (c *CompletionPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.LessonCompletion, error) {
	db := c.getDB(tx)
	var completion models.LessonCompletion
	if err := db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &completion, nil
}

func (c *CompletionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.LessonCompletion, error) {
	db := c.getDB(tx)
	var completions []*models.LessonCompletion
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("failed to list lesson completions: %w", err)
	}
	return completions, nil
}

func (c *CompletionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}
