// Package validator checks imported assessments before they are stored:
// struct tags first, then per-question content.
package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/lesson-assessment-service/internal/errors"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type Validator struct {
	structs  *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	structs := validator.New(validator.WithRequiredStructEnabled())
	structs.RegisterTagNameFunc(jsonFieldName)
	structs.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).IsValid()
	})

	return &Validator{
		structs:  structs,
		business: NewBusinessValidator(NewQuestionValidator()),
	}
}

// Validate returns ValidationErrors listing every failing field. Business
// rules only run once the struct tags pass.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structs.Struct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}

	if errs := v.business.Validate(s); len(errs) > 0 {
		return errs
	}
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
