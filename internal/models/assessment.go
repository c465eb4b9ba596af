package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assessment is an ordered, immutable set of questions attached to a lesson.
// It is produced by the content provider and only read by the engine.
type Assessment struct {
	ID           string                        `json:"id" gorm:"primaryKey;size:36"`
	LessonID     string                        `json:"lesson_id" gorm:"not null;index;size:255" validate:"required,max=255"`
	BoxID        *string                       `json:"box_id" gorm:"size:255;index"`
	Title        string                        `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Language     string                        `json:"language" gorm:"default:en;size:10" validate:"omitempty,max=10"`
	PassingScore int                           `json:"passing_score" gorm:"not null" validate:"min=0,max=100"`
	Questions    datatypes.JSONSlice[Question] `json:"questions" gorm:"type:jsonb" validate:"dive"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

func (Assessment) TableName() string {
	return "lesson_assessments"
}

// QuestionList returns the questions as a plain slice in assessment order.
func (a *Assessment) QuestionList() []Question {
	return []Question(a.Questions)
}

// QuestionByID returns the question with the given id and its position.
func (a *Assessment) QuestionByID(id string) (Question, int, bool) {
	for i, q := range a.Questions {
		if q.ID == id {
			return q, i, true
		}
	}
	return Question{}, -1, false
}

// LearnerView returns a copy without answer keys or feedback. Crossword words
// keep their placement and length so the grid can still be drawn.
func (a *Assessment) LearnerView() *Assessment {
	view := *a
	questions := make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		q.CorrectAnswer = nil
		q.Feedback = ""
		if len(q.CrosswordWords) > 0 {
			words := make([]CrosswordWord, len(q.CrosswordWords))
			for j, w := range q.CrosswordWords {
				w.Length = len(w.Letters())
				w.Answer = ""
				words[j] = w
			}
			q.CrosswordWords = words
		}
		questions[i] = q
	}
	view.Questions = questions
	return &view
}

// QuestionIDs returns the question ids in assessment order.
func (a *Assessment) QuestionIDs() []string {
	ids := make([]string, len(a.Questions))
	for i, q := range a.Questions {
		ids[i] = q.ID
	}
	return ids
}
