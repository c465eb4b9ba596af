package engine

import (
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourQuestionAssessment(passingScore int) *models.Assessment {
	return &models.Assessment{
		ID:           "assessment-1",
		LessonID:     "lesson-1",
		Title:        "Capitals",
		PassingScore: passingScore,
		Questions: []models.Question{
			{ID: "q1", Type: models.MCQSingle, Prompt: "Capital of France?", Options: []string{"Rome", "Paris"}, CorrectAnswer: json.RawMessage(`1`), Feedback: "Paris"},
			{ID: "q2", Type: models.TrueFalse, Prompt: "Rome is in Italy", CorrectAnswer: json.RawMessage(`true`)},
			{ID: "q3", Type: models.ShortAnswer, Prompt: "Capital of Germany?", CorrectAnswer: json.RawMessage(`"Berlin"`)},
			{ID: "q4", Type: models.Sorting, Prompt: "Order by size", Options: []string{"a", "b", "c"}, CorrectAnswer: json.RawMessage(`[0,1,2]`)},
		},
	}
}

func attemptWith(a *models.Assessment, answers map[string]models.Answer) models.AttemptState {
	s := StartAttempt(a)
	s.Phase = models.PhaseInProgress
	s.Answers = answers
	return s
}

func TestGrade_ScoreAndPassFail(t *testing.T) {
	answers := map[string]models.Answer{
		"q1": models.ChoiceAnswer("1"),
		"q2": models.BoolAnswer(true),
		"q3": models.TextAnswer(" berlin "),
		"q4": models.OrderAnswer{2, 1, 0},
	}

	passing := Grade(fourQuestionAssessment(70), attemptWith(fourQuestionAssessment(70), answers))
	assert.Equal(t, 75, passing.Score)
	assert.Equal(t, 3, passing.CorrectCount)
	assert.Equal(t, 4, passing.TotalQuestions)
	assert.True(t, passing.Passed)

	failing := Grade(fourQuestionAssessment(80), attemptWith(fourQuestionAssessment(80), answers))
	assert.Equal(t, 75, failing.Score)
	assert.False(t, failing.Passed)
}

func TestGrade_DetailsFollowAssessmentOrder(t *testing.T) {
	a := fourQuestionAssessment(50)
	s := attemptWith(a, map[string]models.Answer{
		"q4": models.OrderAnswer{0, 1, 2},
		"q1": models.ChoiceAnswer("0"),
	})

	result := Grade(a, s)
	require.Len(t, result.Details, 4)

	ids := make([]string, len(result.Details))
	for i, d := range result.Details {
		ids[i] = d.QuestionID
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, ids)

	assert.Equal(t, models.ChoiceAnswer("0"), result.Details[0].UserAnswer)
	assert.Equal(t, models.ChoiceAnswer("1"), result.Details[0].CorrectAnswer)
	assert.Equal(t, "Paris", result.Details[0].Feedback)
	assert.False(t, result.Details[0].IsCorrect)
	assert.Nil(t, result.Details[1].UserAnswer)
	assert.True(t, result.Details[3].IsCorrect)
}

func TestGrade_IsIdempotentAndDoesNotMutate(t *testing.T) {
	a := fourQuestionAssessment(70)
	s := attemptWith(a, map[string]models.Answer{
		"q1": models.ChoiceAnswer("1"),
		"q4": models.OrderAnswer{0, 1, 2},
	})
	before := s.Clone()

	first := Grade(a, s)
	second := Grade(a, s)

	assert.Equal(t, first, second)
	assert.Equal(t, before, s)
}

func TestGrade_RevealDoesNotAffectScoring(t *testing.T) {
	a := fourQuestionAssessment(70)
	s := attemptWith(a, map[string]models.Answer{"q1": models.ChoiceAnswer("1")})

	plain := Grade(a, s)

	revealed, err := ToggleReveal(s, "q1")
	require.NoError(t, err)
	revealed, err = SetAnswer(revealed, "q2", models.BoolAnswer(false))
	require.NoError(t, err)
	revealed, err = SetAnswer(revealed, "q2", nil)
	require.NoError(t, err)

	assert.Equal(t, plain, Grade(a, revealed))
}

func TestGrade_EmptyAssessment(t *testing.T) {
	a := &models.Assessment{ID: "empty", PassingScore: 0}
	result := Grade(a, StartAttempt(a))

	assert.Equal(t, 0, result.Score)
	assert.False(t, result.Passed)
	assert.Empty(t, result.Details)
}

func TestGrade_MalformedQuestionDoesNotAbortScoring(t *testing.T) {
	a := fourQuestionAssessment(50)
	a.Questions[1].CorrectAnswer = json.RawMessage(`"yes"`)

	s := attemptWith(a, map[string]models.Answer{
		"q1": models.ChoiceAnswer("1"),
		"q2": models.BoolAnswer(true),
		"q3": models.TextAnswer("Berlin"),
	})

	result := Grade(a, s)
	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 50, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, []string{"q2"}, MalformedQuestions(result))
}

func TestScore_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{0, 4, 0},
		{3, 4, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 8, 63},
		{1, 200, 1},
		{1, 201, 0},
		{7, 7, 100},
		{0, 0, 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Score(tc.correct, tc.total), "Score(%d, %d)", tc.correct, tc.total)
	}
}
