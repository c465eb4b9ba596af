package engine

import (
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

// Grade scores an attempt against its assessment. It is pure and
// idempotent: the attempt is not modified and repeated calls with the same
// inputs return equal results. Details follow assessment order.
func Grade(assessment *models.Assessment, attempt models.AttemptState) models.Result {
	questions := assessment.QuestionList()
	result := models.Result{
		TotalQuestions: len(questions),
		PassingScore:   assessment.PassingScore,
		Details:        make([]models.QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		user := attempt.Answers[q.ID]
		eval := Evaluate(q, user)
		if eval.Correct {
			result.CorrectCount++
		}
		result.Details = append(result.Details, models.QuestionResult{
			QuestionID:    q.ID,
			Type:          q.Type,
			UserAnswer:    user,
			CorrectAnswer: eval.Key,
			IsCorrect:     eval.Correct,
			Malformed:     eval.Malformed,
			Feedback:      q.Feedback,
		})
	}

	result.Score = Score(result.CorrectCount, result.TotalQuestions)
	result.Passed = result.TotalQuestions > 0 && result.Score >= assessment.PassingScore
	return result
}

// Score returns correct/total as a whole percentage, rounding halves up.
// An empty assessment scores 0.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	// round(correct*100/total) without going through floating point
	return (correct*200 + total) / (2 * total)
}

// MalformedQuestions returns the ids of questions whose answer key could not
// be used for grading.
func MalformedQuestions(result models.Result) []string {
	var ids []string
	for _, d := range result.Details {
		if d.Malformed {
			ids = append(ids, d.QuestionID)
		}
	}
	return ids
}
