package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

var crosswordAnswerPattern = regexp.MustCompile(`^[A-Z]+$`)

// QuestionValidator checks that a question's answer key has the shape its
// type requires and agrees with the rest of the question.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object
func (v *QuestionValidator) ValidateQuestion(q models.Question) error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("question id is required")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question prompt is required")
	}
	if !q.Type.IsValid() {
		return fmt.Errorf("unsupported question type: %s", q.Type)
	}
	if q.Type == models.Crossword {
		return v.validateCrossword(q)
	}

	key, err := models.DecodeAnswer(q.Type, q.CorrectAnswer)
	if err != nil {
		return fmt.Errorf("invalid correct answer: %w", err)
	}
	if key == nil {
		return fmt.Errorf("correct answer is required")
	}

	switch k := key.(type) {
	case models.ChoiceAnswer:
		return v.validateSingleChoice(q, k)
	case models.MultiChoiceAnswer:
		return v.validateMultiChoice(q, k)
	case models.BoolAnswer:
		return nil
	case models.TextAnswer:
		if strings.TrimSpace(string(k)) == "" {
			return fmt.Errorf("accepted answer cannot be empty")
		}
		return nil
	case models.BlanksAnswer:
		return v.validateBlanks(q, k)
	case models.OrderAnswer:
		return v.validateOrder(q, k)
	case models.MatchAnswer:
		return v.validateMatching(q, k)
	case models.CellsAnswer:
		return v.validateCells(k)
	default:
		return fmt.Errorf("unsupported question type: %s", q.Type)
	}
}

// ValidateBatch validates multiple questions
func (v *QuestionValidator) ValidateBatch(questions []models.Question) error {
	for i, q := range questions {
		if err := v.ValidateQuestion(q); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}
	return nil
}

func (v *QuestionValidator) validateSingleChoice(q models.Question, key models.ChoiceAnswer) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	return checkOptionIndex(string(key), len(q.Options))
}

func (v *QuestionValidator) validateMultiChoice(q models.Question, key models.MultiChoiceAnswer) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	if len(key) == 0 {
		return fmt.Errorf("must have at least 1 correct answer")
	}
	seen := make(map[string]bool, len(key))
	for _, idx := range key {
		if err := checkOptionIndex(idx, len(q.Options)); err != nil {
			return err
		}
		if seen[idx] {
			return fmt.Errorf("correct answer %s is listed twice", idx)
		}
		seen[idx] = true
	}
	return nil
}

func (v *QuestionValidator) validateBlanks(q models.Question, key models.BlanksAnswer) error {
	blanks := q.BlankCount()
	if blanks == 0 {
		return fmt.Errorf("prompt must contain at least 1 %s placeholder", models.BlankToken)
	}
	if len(key) != blanks {
		return fmt.Errorf("expected %d accepted answers, one per blank, got %d", blanks, len(key))
	}
	for i, answer := range key {
		if strings.TrimSpace(answer) == "" {
			return fmt.Errorf("accepted answer for blank %d cannot be empty", i+1)
		}
	}
	return nil
}

func (v *QuestionValidator) validateOrder(q models.Question, key models.OrderAnswer) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("must have at least 2 items")
	}
	if len(key) != len(q.Options) {
		return fmt.Errorf("correct order must include all items exactly once")
	}
	seen := make(map[int]bool, len(key))
	for _, idx := range key {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("correct order references non-existent item: %d", idx)
		}
		if seen[idx] {
			return fmt.Errorf("correct order contains duplicate item: %d", idx)
		}
		seen[idx] = true
	}
	return nil
}

// validateMatching treats the options as the pool of right-hand strings.
func (v *QuestionValidator) validateMatching(q models.Question, key models.MatchAnswer) error {
	if len(key) == 0 {
		return fmt.Errorf("must have at least 1 correct pair")
	}
	pool := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		pool[strings.ToLower(opt)] = true
	}
	for i, right := range key {
		if right == "" {
			return fmt.Errorf("expected match %d cannot be empty", i+1)
		}
		if len(pool) > 0 && !pool[strings.ToLower(right)] {
			return fmt.Errorf("expected match %q is not one of the options", right)
		}
	}
	return nil
}

func (v *QuestionValidator) validateCells(key models.CellsAnswer) error {
	for _, idx := range key {
		if idx < 0 {
			return fmt.Errorf("cell index cannot be negative: %d", idx)
		}
	}
	return nil
}

// validateCrossword checks that every word is upper-case letters and that
// words crossing the same cell agree on its letter.
func (v *QuestionValidator) validateCrossword(q models.Question) error {
	if len(q.CrosswordWords) == 0 {
		return fmt.Errorf("crossword must have at least 1 word")
	}
	grid := make(map[string]string)
	for i, w := range q.CrosswordWords {
		if !crosswordAnswerPattern.MatchString(w.Answer) {
			return fmt.Errorf("word %d must be upper-case letters only", i+1)
		}
		if w.X < 0 || w.Y < 0 {
			return fmt.Errorf("word %d starts outside the grid", i+1)
		}
		if w.Direction != models.DirectionAcross && w.Direction != models.DirectionDown {
			return fmt.Errorf("word %d has invalid direction %q", i+1, w.Direction)
		}
		letters := w.Letters()
		for j, cell := range w.Cells() {
			if existing, ok := grid[cell.Key()]; ok && existing != letters[j] {
				return fmt.Errorf("word %d conflicts at cell (%d,%d): %s vs %s", i+1, cell.X, cell.Y, existing, letters[j])
			}
			grid[cell.Key()] = letters[j]
		}
	}
	return nil
}

func checkOptionIndex(raw string, count int) error {
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("correct answer %q is not an option index", raw)
	}
	if idx < 0 || idx >= count {
		return fmt.Errorf("correct answer index %d is out of range", idx)
	}
	return nil
}
