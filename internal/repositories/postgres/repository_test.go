package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB builds statements without a server and records the last SQL.
func dryRunDB(t *testing.T) (*gorm.DB, *string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var last string
	capture := func(d *gorm.DB) { last = d.Statement.SQL.String() }
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	return db, &last
}

func TestCompletionUpsert_KeepsBestScore(t *testing.T) {
	db, sql := dryRunDB(t)
	repo := NewCompletionPostgreSQL(db)

	err := repo.Upsert(context.Background(), nil, &models.LessonCompletion{
		UserID:       "user-1",
		LessonID:     "lesson-1",
		AssessmentID: "a-1",
		AttemptID:    "att-1",
		Score:        80,
		CompletedAt:  time.Now(),
	})
	require.NoError(t, err)

	assert.Contains(t, *sql, "ON CONFLICT")
	assert.Contains(t, *sql, "DO UPDATE SET")
	assert.Contains(t, *sql, "lesson_completions.score <= excluded.score")
}

func TestAttemptGetByIDForUpdate_LocksRow(t *testing.T) {
	db, sql := dryRunDB(t)
	repo := NewAttemptPostgreSQL(db)

	_, _ = repo.GetByIDForUpdate(context.Background(), nil, "att-1")

	assert.Contains(t, *sql, "assessment_attempts")
	assert.Contains(t, *sql, "FOR UPDATE")
}

func TestAssessmentList_AppliesFilters(t *testing.T) {
	db, sql := dryRunDB(t)
	repo := NewAssessmentPostgreSQL(db, nil, time.Minute, nil)

	_, _, _ = repo.List(context.Background(), nil, repositories.AssessmentFilters{
		LessonID:  "lesson-1",
		SortBy:    "title",
		SortOrder: "asc",
		Limit:     10,
	})

	assert.Contains(t, *sql, "lesson_id = $1")
	assert.Contains(t, *sql, "ORDER BY title ASC")
	assert.Contains(t, *sql, "LIMIT")
	assert.Contains(t, *sql, "deleted_at")
}
