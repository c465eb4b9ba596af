package validator

import (
	"fmt"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/errors"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
)

// BusinessValidator validates rules that span fields or need the question
// content validator.
type BusinessValidator struct {
	questions *QuestionValidator
}

func NewBusinessValidator(questions *QuestionValidator) *BusinessValidator {
	return &BusinessValidator{questions: questions}
}

// Validate dispatches on the concrete type. Types without business rules
// always pass.
func (v *BusinessValidator) Validate(s interface{}) ValidationErrors {
	switch t := s.(type) {
	case *models.CreateAssessmentRequest:
		return v.ValidateAssessmentCreate(t)
	case models.CreateAssessmentRequest:
		return v.ValidateAssessmentCreate(&t)
	case *models.Assessment:
		return v.validateQuestions(t.QuestionList())
	default:
		return nil
	}
}

func (v *BusinessValidator) ValidateAssessmentCreate(req *models.CreateAssessmentRequest) ValidationErrors {
	var errs ValidationErrors
	if req.PassingScore < 0 || req.PassingScore > 100 {
		errs = append(errs, errors.NewFieldError("passing_score", "passing_score", "must be between 0 and 100", req.PassingScore))
	}
	return append(errs, v.validateQuestions(req.Questions)...)
}

func (v *BusinessValidator) validateQuestions(questions []models.Question) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]int, len(questions))
	for i, q := range questions {
		field := fmt.Sprintf("questions[%d]", i)
		if first, dup := seen[q.ID]; dup && q.ID != "" {
			errs = append(errs, errors.NewFieldError(field+".id", "unique_question_id",
				fmt.Sprintf("duplicates the id of questions[%d]", first), q.ID))
			continue
		}
		seen[q.ID] = i
		if err := v.questions.ValidateQuestion(q); err != nil {
			errs = append(errs, errors.NewFieldError(field, "question_content", err.Error(), q.ID))
		}
	}
	return errs
}
