package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
		"user_id", c.GetString(userIDKey),
	}
	fields = append(fields, additionalFields...)

	h.logger.Debug(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetString(requestIDKey),
		"user_id", c.GetString(userIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(c.Request.Context(), err, message, fields...)
}

// RespondWithError sends a consistent error response
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	c.AbortWithStatusJSON(statusCode, resp)
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", validationErrors)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Code:    businessRuleError.Rule,
			Details: businessRuleError.Context,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, err.Error())
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, err.Error())
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, err.Error())
	case services.IsConflict(err):
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{
			Message: err.Error(),
			Code:    conflictCode(err),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// conflictCode names the phase rule a rejected request broke so clients can
// react without parsing messages.
func conflictCode(err error) string {
	switch {
	case errors.Is(err, services.ErrAttemptNotStarted):
		return "attempt_not_started"
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		return "attempt_already_submitted"
	case errors.Is(err, services.ErrAttemptNotSubmitted):
		return "attempt_not_submitted"
	case errors.Is(err, services.ErrNotOnLastQuestion):
		return "not_on_last_question"
	case errors.Is(err, services.ErrAssessmentNotDeletable):
		return "assessment_has_attempts"
	default:
		return "conflict"
	}
}

// HealthCheck reports process liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lesson-assessment-service",
	})
}
