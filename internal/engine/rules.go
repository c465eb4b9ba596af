// Package engine grades assessments and drives the attempt state machine.
// Everything here is pure: inputs are never mutated and no I/O happens.
package engine

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

// Evaluation is the outcome of comparing one answer against its key.
type Evaluation struct {
	Correct bool
	// Key is the decoded answer key, nil when it could not be decoded.
	Key       models.Answer
	Malformed bool
}

// Evaluate grades a single user answer against the question's answer key.
// It never panics: unanswered questions, answers of the wrong variant and
// undecodable keys all grade as incorrect.
func Evaluate(q models.Question, user models.Answer) Evaluation {
	if q.Type == models.Crossword {
		key := q.CrosswordKey()
		if len(q.CrosswordWords) == 0 {
			return Evaluation{Key: key, Malformed: true}
		}
		grid, ok := user.(models.GridAnswer)
		if !ok {
			return Evaluation{Key: key}
		}
		return Evaluation{Key: key, Correct: matchCrossword(grid, q.CrosswordWords)}
	}

	key, err := q.AnswerKey()
	if err != nil || key == nil || key.Kind() != q.Type {
		return Evaluation{Malformed: true}
	}
	if user == nil || user.Kind() != q.Type {
		return Evaluation{Key: key}
	}

	var correct bool
	switch q.Type {
	case models.MCQSingle:
		correct = matchSingleChoice(user.(models.ChoiceAnswer), key.(models.ChoiceAnswer))
	case models.MCQMulti:
		correct = matchMultiChoice(user.(models.MultiChoiceAnswer), key.(models.MultiChoiceAnswer))
	case models.TrueFalse:
		correct = matchTrueFalse(user.(models.BoolAnswer), key.(models.BoolAnswer))
	case models.ShortAnswer:
		correct = matchShortAnswer(user.(models.TextAnswer), key.(models.TextAnswer))
	case models.FillBlanks:
		correct = matchBlanks(user.(models.BlanksAnswer), key.(models.BlanksAnswer))
	case models.Sorting:
		correct = matchOrder(user.(models.OrderAnswer), key.(models.OrderAnswer))
	case models.Matching:
		correct = matchPairs(user.(models.MatchAnswer), key.(models.MatchAnswer))
	case models.Coloring:
		correct = matchCells(user.(models.CellsAnswer), key.(models.CellsAnswer))
	default:
		return Evaluation{Key: key, Malformed: true}
	}
	return Evaluation{Key: key, Correct: correct}
}

// isCorrect is Evaluate reduced to its verdict.
func isCorrect(q models.Question, user models.Answer) bool {
	return Evaluate(q, user).Correct
}

func matchSingleChoice(user, key models.ChoiceAnswer) bool {
	return string(user) == string(key)
}

// matchMultiChoice requires equal length and every selected index to be in
// the key; order is irrelevant.
func matchMultiChoice(user, key models.MultiChoiceAnswer) bool {
	if len(user) != len(key) {
		return false
	}
	want := make(map[string]struct{}, len(key))
	for _, k := range key {
		want[k] = struct{}{}
	}
	for _, u := range user {
		if _, ok := want[u]; !ok {
			return false
		}
	}
	return true
}

func matchTrueFalse(user, key models.BoolAnswer) bool {
	return user == key
}

func matchShortAnswer(user, key models.TextAnswer) bool {
	return normalizeText(string(user)) == normalizeText(string(key))
}

func matchBlanks(user, key models.BlanksAnswer) bool {
	if len(user) != len(key) {
		return false
	}
	for i := range key {
		if normalizeText(user[i]) != normalizeText(key[i]) {
			return false
		}
	}
	return true
}

func matchOrder(user, key models.OrderAnswer) bool {
	if len(user) != len(key) {
		return false
	}
	for i := range key {
		if user[i] != key[i] {
			return false
		}
	}
	return true
}

// matchPairs compares every key position case-insensitively. A position the
// user never filled is a mismatch.
func matchPairs(user, key models.MatchAnswer) bool {
	for i, want := range key {
		if i >= len(user) {
			return false
		}
		if strings.ToLower(user[i]) != strings.ToLower(want) {
			return false
		}
	}
	return true
}

// matchCells compares the selections as sorted sequences, so order does not
// matter but repeated cells do.
func matchCells(user, key models.CellsAnswer) bool {
	if len(user) != len(key) {
		return false
	}
	u := append([]int(nil), user...)
	k := append([]int(nil), key...)
	sort.Ints(u)
	sort.Ints(k)
	for i := range k {
		if u[i] != k[i] {
			return false
		}
	}
	return true
}

// matchCrossword checks every letter cell of every word. Words are checked
// independently, so a shared cell has to satisfy each word crossing it.
func matchCrossword(grid models.GridAnswer, words []models.CrosswordWord) bool {
	for _, w := range words {
		letters := w.Letters()
		if len(letters) == 0 {
			return false
		}
		for i, c := range w.Cells() {
			if strings.ToUpper(grid[c.Key()]) != letters[i] {
				return false
			}
		}
	}
	return true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
