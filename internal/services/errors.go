package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/engine"
	apperrors "github.com/SAP-F-2025/lesson-assessment-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrConflict = errors.New("resource conflict")

	// Assessment specific errors
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrAssessmentNotDeletable = errors.New("assessment cannot be deleted - has existing attempts")

	// Question specific errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidAnswer    = errors.New("answer does not fit the question type")

	// Attempt specific errors
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptNotSubmitted = errors.New("attempt has not been submitted")

	ErrCompletionNotFound = errors.New("lesson not completed")

	// State machine errors, shared with the engine so errors.Is works on
	// either side.
	ErrAttemptNotStarted       = engine.ErrAttemptNotStarted
	ErrAttemptAlreadySubmitted = engine.ErrAttemptAlreadySubmitted
	ErrNotOnLastQuestion       = engine.ErrNotOnLastQuestion
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// mapEngineError translates engine errors that need a service-level name.
func mapEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrUnknownQuestion):
		return ErrQuestionNotFound
	case errors.Is(err, engine.ErrAssessmentMismatch):
		return fmt.Errorf("%w: attempt belongs to another assessment", ErrConflict)
	default:
		return err
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrCompletionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidAnswer) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict, including
// operations the attempt's current phase does not allow.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAssessmentNotDeletable) ||
		errors.Is(err, ErrAttemptNotStarted) ||
		errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrAttemptNotSubmitted) ||
		errors.Is(err, ErrNotOnLastQuestion)
}
