package models

import (
	"encoding/json"
	"time"
)

// CreateAssessmentRequest is the payload the content provider sends to
// import a lesson assessment.
type CreateAssessmentRequest struct {
	LessonID     string     `json:"lesson_id" validate:"required,max=255"`
	BoxID        *string    `json:"box_id" validate:"omitempty,max=255"`
	Title        string     `json:"title" validate:"required,min=1,max=200"`
	Language     string     `json:"language" validate:"omitempty,max=10"`
	PassingScore int        `json:"passing_score" validate:"min=0,max=100"`
	Questions    []Question `json:"questions" validate:"dive"`
}

type SetAnswerRequest struct {
	// Answer is decoded against the question type; null clears the answer.
	Answer json.RawMessage `json:"answer"`
}

type JumpRequest struct {
	Index *int `json:"index" validate:"required"`
}

// AttemptResponse is the client view of an attempt.
type AttemptResponse struct {
	ID            string       `json:"id"`
	AssessmentID  string       `json:"assessment_id"`
	UserID        string       `json:"user_id"`
	State         AttemptState `json:"state"`
	AnsweredCount int          `json:"answered_count"`
	IsLast        bool         `json:"is_last_question"`
	// Revealed carries the correct answer of every question the user chose
	// to reveal, in question order.
	Revealed    []RevealedAnswer `json:"revealed_answers"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type RevealedAnswer struct {
	QuestionID    string `json:"question_id"`
	CorrectAnswer Answer `json:"correct_answer"`
	Feedback      string `json:"feedback,omitempty"`
}
