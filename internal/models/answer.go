package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrAnswerShape = errors.New("answer shape does not match question type")

// Answer is a user's response (or an answer key) for one question. Each
// question type has exactly one concrete variant.
type Answer interface {
	Kind() QuestionType
	// IsEmpty reports whether a list-shaped answer holds no elements.
	IsEmpty() bool
}

// ChoiceAnswer is the selected option index of an mcq_single question,
// kept in its string form.
type ChoiceAnswer string

// MultiChoiceAnswer holds the selected option indexes of an mcq_multi question.
type MultiChoiceAnswer []string

type BoolAnswer bool

type TextAnswer string

// BlanksAnswer holds one entry per {{blank}} in prompt order.
type BlanksAnswer []string

// OrderAnswer is a permutation of original option indexes.
type OrderAnswer []int

// MatchAnswer holds the right-hand string chosen for each left item.
type MatchAnswer []string

// CellsAnswer holds selected cell indexes of a coloring grid.
type CellsAnswer []int

// GridAnswer maps a crossword cell key ("x,y") to a single letter.
type GridAnswer map[string]string

func (ChoiceAnswer) Kind() QuestionType      { return MCQSingle }
func (MultiChoiceAnswer) Kind() QuestionType { return MCQMulti }
func (BoolAnswer) Kind() QuestionType        { return TrueFalse }
func (TextAnswer) Kind() QuestionType        { return ShortAnswer }
func (BlanksAnswer) Kind() QuestionType      { return FillBlanks }
func (OrderAnswer) Kind() QuestionType       { return Sorting }
func (MatchAnswer) Kind() QuestionType       { return Matching }
func (CellsAnswer) Kind() QuestionType       { return Coloring }
func (GridAnswer) Kind() QuestionType        { return Crossword }

func (ChoiceAnswer) IsEmpty() bool        { return false }
func (a MultiChoiceAnswer) IsEmpty() bool { return len(a) == 0 }
func (BoolAnswer) IsEmpty() bool          { return false }
func (TextAnswer) IsEmpty() bool          { return false }
func (a BlanksAnswer) IsEmpty() bool      { return len(a) == 0 }
func (a OrderAnswer) IsEmpty() bool       { return len(a) == 0 }
func (a MatchAnswer) IsEmpty() bool       { return len(a) == 0 }
func (a CellsAnswer) IsEmpty() bool       { return len(a) == 0 }
func (GridAnswer) IsEmpty() bool          { return false }

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) Key() string {
	return CellKey(c.X, c.Y)
}

func CellKey(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

// DecodeAnswer decodes raw JSON into the answer variant for the given type.
// A missing or null payload decodes to a nil Answer (unanswered).
func DecodeAnswer(qt QuestionType, raw json.RawMessage) (Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid answer json: %w", err)
	}

	switch qt {
	case MCQSingle:
		s, ok := scalarString(v)
		if !ok {
			return nil, shapeError(qt, "index")
		}
		return ChoiceAnswer(s), nil
	case MCQMulti:
		list, ok := stringList(v)
		if !ok {
			return nil, shapeError(qt, "array of indexes")
		}
		return MultiChoiceAnswer(list), nil
	case TrueFalse:
		b, ok := v.(bool)
		if !ok {
			return nil, shapeError(qt, "boolean")
		}
		return BoolAnswer(b), nil
	case ShortAnswer:
		s, ok := scalarString(v)
		if !ok {
			return nil, shapeError(qt, "string")
		}
		return TextAnswer(s), nil
	case FillBlanks:
		if s, ok := scalarString(v); ok {
			return BlanksAnswer{s}, nil
		}
		list, ok := stringList(v)
		if !ok {
			return nil, shapeError(qt, "array of strings")
		}
		return BlanksAnswer(list), nil
	case Sorting:
		list, ok := intList(v)
		if !ok {
			return nil, shapeError(qt, "array of option indexes")
		}
		return OrderAnswer(list), nil
	case Matching:
		list, ok := stringList(v)
		if !ok {
			return nil, shapeError(qt, "array of strings")
		}
		return MatchAnswer(list), nil
	case Coloring:
		list, ok := intList(v)
		if !ok {
			return nil, shapeError(qt, "array of cell indexes")
		}
		return CellsAnswer(list), nil
	case Crossword:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, shapeError(qt, "object of cell letters")
		}
		grid := make(GridAnswer, len(obj))
		for k, val := range obj {
			s, ok := val.(string)
			if !ok {
				return nil, shapeError(qt, "object of cell letters")
			}
			grid[k] = s
		}
		return grid, nil
	default:
		return nil, fmt.Errorf("unsupported question type: %s", qt)
	}
}

func shapeError(qt QuestionType, want string) error {
	return fmt.Errorf("%w: %s expects %s", ErrAnswerShape, qt, want)
}

// scalarString renders a JSON string or number the way it would be shown as
// text: numbers lose insignificant zeros, so 1 and 1.0 are both "1".
func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String(), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	default:
		return "", false
	}
}

func stringList(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := scalarString(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func intList(v interface{}) ([]int, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		s, ok := scalarString(item)
		if !ok {
			return nil, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
