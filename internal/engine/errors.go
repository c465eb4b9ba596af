package engine

import "errors"

var (
	ErrAttemptNotStarted       = errors.New("attempt has not been started")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrUnknownQuestion         = errors.New("question is not part of this attempt")
	ErrNotOnLastQuestion       = errors.New("attempt can only be submitted from the last question")
	ErrAssessmentMismatch      = errors.New("attempt does not belong to this assessment")
)
