package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events the service emits
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptReset     EventType = "attempt.reset"

	// EventLessonCompleted reports a passed lesson to the learning platform.
	EventLessonCompleted EventType = "lesson.completed"
)

const (
	eventSource  = "lesson-assessment-service"
	eventVersion = "1.0"
)

// Event is the envelope for everything published to the event bus
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AttemptStartedEvent struct {
	AttemptID       string    `json:"attempt_id"`
	AssessmentID    string    `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	LessonID        string    `json:"lesson_id"`
	UserID          string    `json:"user_id"`
	QuestionCount   int       `json:"question_count"`
	StartedAt       time.Time `json:"started_at"`
}

type AttemptSubmittedEvent struct {
	AttemptID       string    `json:"attempt_id"`
	AssessmentID    string    `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	LessonID        string    `json:"lesson_id"`
	UserID          string    `json:"user_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
	Score           int       `json:"score"`
	Passed          bool      `json:"passed"`
	CorrectCount    int       `json:"correct_count"`
	TotalQuestions  int       `json:"total_questions"`
}

type AttemptResetEvent struct {
	AttemptID    string    `json:"attempt_id"`
	AssessmentID string    `json:"assessment_id"`
	UserID       string    `json:"user_id"`
	ResetAt      time.Time `json:"reset_at"`
}

type LessonCompletedEvent struct {
	LessonID     string    `json:"lesson_id"`
	BoxID        *string   `json:"box_id,omitempty"`
	UserID       string    `json:"user_id"`
	AssessmentID string    `json:"assessment_id"`
	AttemptID    string    `json:"attempt_id"`
	Score        int       `json:"score"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAttemptStartedEvent(data AttemptStartedEvent) *Event {
	return newEvent(EventAttemptStarted, data)
}

func NewAttemptSubmittedEvent(data AttemptSubmittedEvent) *Event {
	return newEvent(EventAttemptSubmitted, data)
}

func NewAttemptResetEvent(data AttemptResetEvent) *Event {
	return newEvent(EventAttemptReset, data)
}

func NewLessonCompletedEvent(data LessonCompletedEvent) *Event {
	return newEvent(EventLessonCompleted, data)
}

// GenerateEventID returns a random unique event id
func GenerateEventID() string {
	return uuid.NewString()
}
