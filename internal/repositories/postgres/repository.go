package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	assessment repositories.AssessmentRepository
	attempt    repositories.AttemptRepository
	completion repositories.CompletionRepository
}

// NewRepository wires the Postgres repositories. cacheService may be nil.
func NewRepository(db *gorm.DB, cacheService cache.CacheService, cacheTTL time.Duration, logger *slog.Logger) repositories.Repository {
	return &repository{
		db:         db,
		assessment: NewAssessmentPostgreSQL(db, cacheService, cacheTTL, logger),
		attempt:    NewAttemptPostgreSQL(db),
		completion: NewCompletionPostgreSQL(db),
	}
}

func (r *repository) Assessment() repositories.AssessmentRepository { return r.assessment }
func (r *repository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *repository) Completion() repositories.CompletionRepository { return r.completion }

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// AutoMigrate creates or updates the service tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Assessment{},
		&models.AssessmentAttempt{},
		&models.LessonCompletion{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
