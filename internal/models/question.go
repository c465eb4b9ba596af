package models

import (
	"encoding/json"
	"strings"
)

type QuestionType string

const (
	MCQSingle   QuestionType = "mcq_single"
	MCQMulti    QuestionType = "mcq_multi"
	TrueFalse   QuestionType = "true_false"
	ShortAnswer QuestionType = "short_answer"
	FillBlanks  QuestionType = "fill_blanks"
	Sorting     QuestionType = "sorting"
	Matching    QuestionType = "matching"
	Coloring    QuestionType = "coloring"
	Crossword   QuestionType = "crossword"
)

// QuestionTypes lists every supported question type in display order.
var QuestionTypes = []QuestionType{
	MCQSingle,
	MCQMulti,
	TrueFalse,
	ShortAnswer,
	FillBlanks,
	Sorting,
	Matching,
	Coloring,
	Crossword,
}

func (t QuestionType) IsValid() bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}

// UsesOptions reports whether questions of this type render an option list.
func (t QuestionType) UsesOptions() bool {
	switch t {
	case MCQSingle, MCQMulti, Sorting, Matching:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionAcross Direction = "across"
	DirectionDown   Direction = "down"
)

// BlankToken marks a blank inside a fill_blanks prompt.
const BlankToken = "{{blank}}"

// CrosswordWord places one answer on the grid. Length is only filled in
// learner views, where Answer is withheld.
type CrosswordWord struct {
	Answer    string    `json:"answer,omitempty" validate:"required"`
	Length    int       `json:"length,omitempty"`
	Clue      string    `json:"clue"`
	X         int       `json:"x" validate:"min=0"`
	Y         int       `json:"y" validate:"min=0"`
	Direction Direction `json:"direction" validate:"required,oneof=across down"`
}

// Cells returns the grid coordinates covered by the word, one per letter.
func (w CrosswordWord) Cells() []Cell {
	letters := []rune(strings.ToUpper(w.Answer))
	cells := make([]Cell, len(letters))
	for i := range letters {
		switch w.Direction {
		case DirectionDown:
			cells[i] = Cell{X: w.X, Y: w.Y + i}
		default:
			cells[i] = Cell{X: w.X + i, Y: w.Y}
		}
	}
	return cells
}

// Letters returns the upper-cased letters of the answer.
func (w CrosswordWord) Letters() []string {
	letters := []rune(strings.ToUpper(w.Answer))
	out := make([]string, len(letters))
	for i, r := range letters {
		out[i] = string(r)
	}
	return out
}

type Question struct {
	ID             string          `json:"id" validate:"required"`
	Type           QuestionType    `json:"type" validate:"required,question_type"`
	Prompt         string          `json:"prompt" validate:"required"`
	Options        []string        `json:"options,omitempty"`
	CorrectAnswer  json.RawMessage `json:"correct_answer,omitempty"`
	CrosswordWords []CrosswordWord `json:"crossword_words,omitempty" validate:"omitempty,dive"`
	Feedback       string          `json:"feedback,omitempty"`
	Points         int             `json:"points,omitempty"`
}

// BlankCount returns the number of blank placeholders in the prompt.
func (q Question) BlankCount() int {
	return strings.Count(q.Prompt, BlankToken)
}

// AnswerKey decodes the stored correct answer into the variant for the
// question's type. Crossword keys are derived from the placed words.
func (q Question) AnswerKey() (Answer, error) {
	if q.Type == Crossword {
		return q.CrosswordKey(), nil
	}
	return DecodeAnswer(q.Type, q.CorrectAnswer)
}

// CrosswordKey builds the expected grid from the placed words.
func (q Question) CrosswordKey() GridAnswer {
	grid := GridAnswer{}
	for _, w := range q.CrosswordWords {
		letters := w.Letters()
		for i, c := range w.Cells() {
			grid[c.Key()] = letters[i]
		}
	}
	return grid
}
