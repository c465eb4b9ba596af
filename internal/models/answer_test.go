package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnswer(t *testing.T) {
	tests := []struct {
		name string
		qt   QuestionType
		raw  string
		want Answer
	}{
		{"mcq_single number", MCQSingle, `1`, ChoiceAnswer("1")},
		{"mcq_single string", MCQSingle, `"1"`, ChoiceAnswer("1")},
		{"mcq_single float", MCQSingle, `1.0`, ChoiceAnswer("1")},
		{"mcq_multi mixed", MCQMulti, `[0, "2"]`, MultiChoiceAnswer{"0", "2"}},
		{"true_false", TrueFalse, `false`, BoolAnswer(false)},
		{"short_answer", ShortAnswer, `" Paris "`, TextAnswer(" Paris ")},
		{"fill_blanks single string", FillBlanks, `"cat"`, BlanksAnswer{"cat"}},
		{"fill_blanks list", FillBlanks, `["cat","dog"]`, BlanksAnswer{"cat", "dog"}},
		{"sorting string indexes", Sorting, `["2"," 0",1]`, OrderAnswer{2, 0, 1}},
		{"matching", Matching, `["Rome","Paris"]`, MatchAnswer{"Rome", "Paris"}},
		{"coloring string indexes", Coloring, `["4",1]`, CellsAnswer{4, 1}},
		{"crossword grid", Crossword, `{"0,0":"C","1,0":"a"}`, GridAnswer{"0,0": "C", "1,0": "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAnswer(tt.qt, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.qt, got.Kind())
		})
	}
}

func TestDecodeAnswer_Unanswered(t *testing.T) {
	for _, raw := range []string{``, `null`, `  null `} {
		got, err := DecodeAnswer(MCQSingle, json.RawMessage(raw))
		require.NoError(t, err)
		assert.Nil(t, got, "raw %q", raw)
	}
}

func TestDecodeAnswer_RejectsWrongShape(t *testing.T) {
	tests := []struct {
		name string
		qt   QuestionType
		raw  string
	}{
		{"true_false as string", TrueFalse, `"true"`},
		{"mcq_single as list", MCQSingle, `[1]`},
		{"mcq_multi as scalar", MCQMulti, `1`},
		{"sorting non numeric", Sorting, `["a"]`},
		{"coloring as object", Coloring, `{"0":1}`},
		{"crossword non string letter", Crossword, `{"0,0":1}`},
		{"matching nested", Matching, `[["a"]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnswer(tt.qt, json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, ErrAnswerShape)
		})
	}

	_, err := DecodeAnswer(TrueFalse, json.RawMessage(`{`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAnswerShape)

	_, err = DecodeAnswer(QuestionType("essay"), json.RawMessage(`"x"`))
	assert.Error(t, err)
}

func TestAnswer_IsEmpty(t *testing.T) {
	assert.True(t, MultiChoiceAnswer{}.IsEmpty())
	assert.True(t, OrderAnswer(nil).IsEmpty())
	assert.False(t, BlanksAnswer{""}.IsEmpty())
	assert.False(t, BoolAnswer(false).IsEmpty())
	assert.False(t, GridAnswer{}.IsEmpty())
}

func TestCellKey(t *testing.T) {
	assert.Equal(t, "3,4", CellKey(3, 4))
	assert.Equal(t, "0,2", Cell{X: 0, Y: 2}.Key())
}
