package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
)

type AttemptPhase string

const (
	PhaseIntro      AttemptPhase = "intro"
	PhaseInProgress AttemptPhase = "in_progress"
	PhaseSubmitted  AttemptPhase = "submitted"
)

// IDSet is a set of question ids. It marshals as a sorted JSON array.
type IDSet map[string]struct{}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	*s = set
	return nil
}

// AttemptState is one user's interaction with an assessment. It is treated as
// a value: engine transitions return a new state and never share maps with
// their input.
type AttemptState struct {
	AssessmentID    string            `json:"assessment_id"`
	Phase           AttemptPhase      `json:"phase"`
	CurrentIndex    int               `json:"current_index"`
	QuestionIDs     []string          `json:"question_ids"`
	Answers         map[string]Answer `json:"-"`
	MarkedForReview IDSet             `json:"marked_for_review"`
	Revealed        IDSet             `json:"revealed"`
	Result          *Result           `json:"result,omitempty"`
}

// QuestionCount returns the number of questions the attempt covers.
func (s AttemptState) QuestionCount() int {
	return len(s.QuestionIDs)
}

// HasQuestion reports whether id belongs to the attempt's assessment.
func (s AttemptState) HasQuestion(id string) bool {
	for _, qid := range s.QuestionIDs {
		if qid == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy whose maps and slices are not shared.
func (s AttemptState) Clone() AttemptState {
	out := s
	out.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	out.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.MarkedForReview = s.MarkedForReview.Clone()
	out.Revealed = s.Revealed.Clone()
	if s.Result != nil {
		r := s.Result.Clone()
		out.Result = &r
	}
	return out
}

type storedAnswer struct {
	Type  QuestionType    `json:"type"`
	Value json.RawMessage `json:"value"`
}

type attemptStateAlias AttemptState

func (s AttemptState) MarshalJSON() ([]byte, error) {
	answers := make(map[string]storedAnswer, len(s.Answers))
	for id, a := range s.Answers {
		if a == nil {
			continue
		}
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal answer for question %s: %w", id, err)
		}
		answers[id] = storedAnswer{Type: a.Kind(), Value: raw}
	}
	return json.Marshal(struct {
		attemptStateAlias
		Answers map[string]storedAnswer `json:"answers"`
	}{
		attemptStateAlias: attemptStateAlias(s),
		Answers:           answers,
	})
}

func (s *AttemptState) UnmarshalJSON(data []byte) error {
	var aux struct {
		attemptStateAlias
		Answers map[string]storedAnswer `json:"answers"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = AttemptState(aux.attemptStateAlias)
	s.Answers = make(map[string]Answer, len(aux.Answers))
	for id, sa := range aux.Answers {
		a, err := DecodeAnswer(sa.Type, sa.Value)
		if err != nil {
			return fmt.Errorf("failed to decode answer for question %s: %w", id, err)
		}
		if a != nil {
			s.Answers[id] = a
		}
	}
	if s.MarkedForReview == nil {
		s.MarkedForReview = IDSet{}
	}
	if s.Revealed == nil {
		s.Revealed = IDSet{}
	}
	return nil
}

// QuestionResult is the self-contained outcome for one question.
type QuestionResult struct {
	QuestionID    string       `json:"question_id"`
	Type          QuestionType `json:"type"`
	UserAnswer    Answer       `json:"user_answer"`
	CorrectAnswer Answer       `json:"correct_answer"`
	IsCorrect     bool         `json:"is_correct"`
	// Malformed is set when the stored answer key could not be decoded.
	Malformed bool   `json:"malformed,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
}

func (r *QuestionResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		QuestionID    string          `json:"question_id"`
		Type          QuestionType    `json:"type"`
		UserAnswer    json.RawMessage `json:"user_answer"`
		CorrectAnswer json.RawMessage `json:"correct_answer"`
		IsCorrect     bool            `json:"is_correct"`
		Malformed     bool            `json:"malformed"`
		Feedback      string          `json:"feedback"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = QuestionResult{
		QuestionID: aux.QuestionID,
		Type:       aux.Type,
		IsCorrect:  aux.IsCorrect,
		Malformed:  aux.Malformed,
		Feedback:   aux.Feedback,
	}
	// Answers that no longer decode are dropped from the report rather than
	// failing the whole snapshot.
	if a, err := DecodeAnswer(aux.Type, aux.UserAnswer); err == nil {
		r.UserAnswer = a
	}
	if a, err := DecodeAnswer(aux.Type, aux.CorrectAnswer); err == nil {
		r.CorrectAnswer = a
	}
	return nil
}

type Result struct {
	Score          int              `json:"score"`
	Passed         bool             `json:"passed"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	PassingScore   int              `json:"passing_score"`
	Details        []QuestionResult `json:"details"`
}

func (r Result) Clone() Result {
	out := r
	out.Details = append([]QuestionResult(nil), r.Details...)
	return out
}

// AssessmentAttempt is the persisted form of an AttemptState.
type AssessmentAttempt struct {
	ID           string                           `json:"id" gorm:"primaryKey;size:36"`
	AssessmentID string                           `json:"assessment_id" gorm:"not null;index;size:36"`
	UserID       string                           `json:"user_id" gorm:"not null;index;size:255"`
	Phase        AttemptPhase                     `json:"phase" gorm:"not null;default:intro;index;size:20"`
	State        datatypes.JSONType[AttemptState] `json:"state" gorm:"type:jsonb"`

	// Scoring, filled on submission
	Score       *int       `json:"score"`
	Passed      *bool      `json:"passed"`
	SubmittedAt *time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

// LessonCompletion records that a user passed a lesson's assessment.
type LessonCompletion struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_lesson"`
	LessonID     string    `json:"lesson_id" gorm:"not null;size:255;uniqueIndex:idx_user_lesson"`
	AssessmentID string    `json:"assessment_id" gorm:"not null;size:36"`
	AttemptID    string    `json:"attempt_id" gorm:"not null;size:36"`
	Score        int       `json:"score"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
