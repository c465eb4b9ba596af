package engine

import (
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

// QuestionStatus is one cell of the question navigator.
type QuestionStatus struct {
	QuestionID string `json:"question_id"`
	Index      int    `json:"index"`
	Answered   bool   `json:"answered"`
	Marked     bool   `json:"marked"`
	Revealed   bool   `json:"revealed"`
	Current    bool   `json:"current"`
}

// IsAnswered reports whether answers holds a usable value for questionID:
// present, non-nil and, for list answers, non-empty.
func IsAnswered(answers map[string]models.Answer, questionID string) bool {
	a, ok := answers[questionID]
	if !ok || a == nil {
		return false
	}
	return !a.IsEmpty()
}

// AnsweredCount counts the attempt's answered questions.
func AnsweredCount(s models.AttemptState) int {
	n := 0
	for _, id := range s.QuestionIDs {
		if IsAnswered(s.Answers, id) {
			n++
		}
	}
	return n
}

// Progress derives the navigator view of an attempt in question order.
func Progress(s models.AttemptState) []QuestionStatus {
	out := make([]QuestionStatus, len(s.QuestionIDs))
	for i, id := range s.QuestionIDs {
		out[i] = QuestionStatus{
			QuestionID: id,
			Index:      i,
			Answered:   IsAnswered(s.Answers, id),
			Marked:     s.MarkedForReview.Has(id),
			Revealed:   s.Revealed.Has(id),
			Current:    s.Phase == models.PhaseInProgress && i == s.CurrentIndex,
		}
	}
	return out
}
