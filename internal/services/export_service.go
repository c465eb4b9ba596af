package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	summarySheet   = "Summary"
	questionsSheet = "Questions"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportAttemptResult renders a submitted attempt's result report as an xlsx
// workbook with a summary sheet and one row per question.
func (s *exportService) ExportAttemptResult(ctx context.Context, attemptID, userID string) ([]byte, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "export_result", "attempt belongs to another user")
	}

	state := attempt.State.Data()
	if state.Phase != models.PhaseSubmitted || state.Result == nil {
		return nil, ErrAttemptNotSubmitted
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, attempt.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeSummary(f, attempt, assessment, *state.Result); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(questionsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeQuestionRows(f, assessment, *state.Result); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported attempt result", "attempt_id", attemptID, "questions", len(state.Result.Details))
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, attempt *models.AssessmentAttempt, assessment *models.Assessment, result models.Result) error {
	outcome := "Fail"
	if result.Passed {
		outcome = "Pass"
	}
	submittedAt := ""
	if attempt.SubmittedAt != nil {
		submittedAt = attempt.SubmittedAt.Format("2006-01-02 15:04:05")
	}

	rows := [][]interface{}{
		{"Assessment", assessment.Title},
		{"Lesson", assessment.LessonID},
		{"Attempt", attempt.ID},
		{"User", attempt.UserID},
		{"Submitted At", submittedAt},
		{"Score", result.Score},
		{"Passing Score", result.PassingScore},
		{"Result", outcome},
		{"Correct", fmt.Sprintf("%d / %d", result.CorrectCount, result.TotalQuestions)},
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func writeQuestionRows(f *excelize.File, assessment *models.Assessment, result models.Result) error {
	headers := []interface{}{"#", "Question ID", "Type", "Prompt", "Your Answer", "Correct Answer", "Result", "Feedback"}
	if err := setRow(f, questionsSheet, 1, headers); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(questionsSheet, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, d := range result.Details {
		prompt := ""
		if q, _, ok := assessment.QuestionByID(d.QuestionID); ok {
			prompt = q.Prompt
		}
		verdict := "Incorrect"
		switch {
		case d.Malformed:
			verdict = "Malformed key"
		case d.IsCorrect:
			verdict = "Correct"
		}

		row := []interface{}{
			i + 1,
			d.QuestionID,
			string(d.Type),
			prompt,
			formatAnswer(d.UserAnswer),
			formatAnswer(d.CorrectAnswer),
			verdict,
			d.Feedback,
		}
		if err := setRow(f, questionsSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(questionsSheet, "D", "D", 60)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell := fmt.Sprintf("%c%d", 'A'+col, row)
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func formatAnswer(a models.Answer) string {
	if a == nil {
		return ""
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	return string(raw)
}
