package engine

import (
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

// StartAttempt creates a fresh attempt in the intro phase.
func StartAttempt(assessment *models.Assessment) models.AttemptState {
	return models.AttemptState{
		AssessmentID:    assessment.ID,
		Phase:           models.PhaseIntro,
		QuestionIDs:     assessment.QuestionIDs(),
		Answers:         map[string]models.Answer{},
		MarkedForReview: models.IDSet{},
		Revealed:        models.IDSet{},
	}
}

// Begin moves an intro attempt to in_progress on the first question. Calling
// it on an attempt that is already in progress changes nothing.
func Begin(s models.AttemptState) (models.AttemptState, error) {
	switch s.Phase {
	case models.PhaseInProgress:
		return s, nil
	case models.PhaseSubmitted:
		return s, ErrAttemptAlreadySubmitted
	}
	next := s.Clone()
	next.Phase = models.PhaseInProgress
	next.CurrentIndex = 0
	next.Answers = map[string]models.Answer{}
	next.MarkedForReview = models.IDSet{}
	next.Revealed = models.IDSet{}
	next.Result = nil
	return next, nil
}

// SetAnswer stores value as the answer for questionID, replacing any earlier
// answer. A nil value clears the answer.
func SetAnswer(s models.AttemptState, questionID string, value models.Answer) (models.AttemptState, error) {
	if err := RequireInProgress(s); err != nil {
		return s, err
	}
	if !s.HasQuestion(questionID) {
		return s, ErrUnknownQuestion
	}
	next := s.Clone()
	if value == nil {
		delete(next.Answers, questionID)
	} else {
		next.Answers[questionID] = value
	}
	return next, nil
}

// ToggleMark flips the mark-for-review flag of a question.
func ToggleMark(s models.AttemptState, questionID string) (models.AttemptState, error) {
	if err := RequireInProgress(s); err != nil {
		return s, err
	}
	if !s.HasQuestion(questionID) {
		return s, ErrUnknownQuestion
	}
	next := s.Clone()
	toggle(next.MarkedForReview, questionID)
	return next, nil
}

// ToggleReveal flips whether the correct answer of a question is shown.
// Revealing never affects grading.
func ToggleReveal(s models.AttemptState, questionID string) (models.AttemptState, error) {
	if err := RequireInProgress(s); err != nil {
		return s, err
	}
	if !s.HasQuestion(questionID) {
		return s, ErrUnknownQuestion
	}
	next := s.Clone()
	toggle(next.Revealed, questionID)
	return next, nil
}

// GoNext advances to the next question. On the last question it is a no-op;
// finishing the attempt is Submit's job.
func GoNext(s models.AttemptState) (models.AttemptState, error) {
	if err := RequireInProgress(s); err != nil {
		return s, err
	}
	return JumpTo(s, s.CurrentIndex+1)
}

// GoPrev moves back one question, staying put on the first.
func GoPrev(s models.AttemptState) (models.AttemptState, error) {
	if err := RequireInProgress(s); err != nil {
		return s, err
	}
	return JumpTo(s, s.CurrentIndex-1)
}

// JumpTo moves to index, clamped to the valid question range.
func JumpTo(s models.AttemptState, index int) (models.AttemptState, error) {
	if err := RequireInProgress(s); err != nil {
		return s, err
	}
	next := s.Clone()
	next.CurrentIndex = clampIndex(index, s.QuestionCount())
	return next, nil
}

// IsLastQuestion reports whether the cursor is on the final question.
func IsLastQuestion(s models.AttemptState) bool {
	return s.CurrentIndex >= lastIndex(s.QuestionCount())
}

// Submit grades the attempt and closes it. Submitting an already submitted
// attempt returns the stored result unchanged.
func Submit(assessment *models.Assessment, s models.AttemptState) (models.AttemptState, models.Result, error) {
	if s.Phase == models.PhaseSubmitted && s.Result != nil {
		return s, s.Result.Clone(), nil
	}
	if err := RequireInProgress(s); err != nil {
		return s, models.Result{}, err
	}
	if assessment.ID != s.AssessmentID {
		return s, models.Result{}, ErrAssessmentMismatch
	}
	if !IsLastQuestion(s) {
		return s, models.Result{}, ErrNotOnLastQuestion
	}

	result := Grade(assessment, s)
	next := s.Clone()
	next.Phase = models.PhaseSubmitted
	stored := result.Clone()
	next.Result = &stored
	return next, result, nil
}

// Reset discards everything recorded in the attempt and returns it to the
// intro phase, as used by "retake".
func Reset(s models.AttemptState) models.AttemptState {
	return models.AttemptState{
		AssessmentID:    s.AssessmentID,
		Phase:           models.PhaseIntro,
		QuestionIDs:     append([]string(nil), s.QuestionIDs...),
		Answers:         map[string]models.Answer{},
		MarkedForReview: models.IDSet{},
		Revealed:        models.IDSet{},
	}
}

// RequireInProgress reports the error a mutation would fail with in the
// attempt's current phase, or nil when the attempt accepts changes.
func RequireInProgress(s models.AttemptState) error {
	switch s.Phase {
	case models.PhaseInProgress:
		return nil
	case models.PhaseSubmitted:
		return ErrAttemptAlreadySubmitted
	default:
		return ErrAttemptNotStarted
	}
}

func toggle(set models.IDSet, id string) {
	if set.Has(id) {
		delete(set, id)
		return
	}
	set[id] = struct{}{}
}

func clampIndex(index, count int) int {
	if index < 0 {
		return 0
	}
	if last := lastIndex(count); index > last {
		return last
	}
	return index
}

func lastIndex(count int) int {
	if count <= 0 {
		return 0
	}
	return count - 1
}
