package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
}

func NewAttemptHandler(attemptService services.AttemptService, exportService services.ExportService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
	}
}

// StartAttempt opens (or resumes) the caller's attempt on an assessment
// @Router /assessments/{id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	assessmentID := ParseStringIDParam(c, "id")
	if assessmentID == "" {
		return
	}

	h.LogRequest(c, "Starting attempt", "assessment_id", assessmentID)

	attempt, err := h.attemptService.Start(c.Request.Context(), assessmentID, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	h.respond(c, h.attemptService.Get)
}

// @Router /attempts/{id}/progress [get]
func (h *AttemptHandler) GetProgress(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	progress, err := h.attemptService.Progress(c.Request.Context(), attemptID, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// @Router /attempts/{id}/begin [post]
func (h *AttemptHandler) BeginAttempt(c *gin.Context) {
	h.respond(c, h.attemptService.Begin)
}

// SetAnswer stores the answer for one question; a null answer clears it
// @Router /attempts/{id}/answers/{question_id} [put]
func (h *AttemptHandler) SetAnswer(c *gin.Context) {
	var req models.SetAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.respondQuestion(c, func(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error) {
		return h.attemptService.SetAnswer(ctx, attemptID, questionID, userID, req.Answer)
	})
}

// @Router /attempts/{id}/marks/{question_id} [post]
func (h *AttemptHandler) ToggleMark(c *gin.Context) {
	h.respondQuestion(c, h.attemptService.ToggleMark)
}

// @Router /attempts/{id}/reveals/{question_id} [post]
func (h *AttemptHandler) ToggleReveal(c *gin.Context) {
	h.respondQuestion(c, h.attemptService.ToggleReveal)
}

// @Router /attempts/{id}/next [post]
func (h *AttemptHandler) NextQuestion(c *gin.Context) {
	h.respond(c, h.attemptService.Next)
}

// @Router /attempts/{id}/prev [post]
func (h *AttemptHandler) PrevQuestion(c *gin.Context) {
	h.respond(c, h.attemptService.Prev)
}

// @Router /attempts/{id}/jump [post]
func (h *AttemptHandler) JumpToQuestion(c *gin.Context) {
	var req models.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if req.Index == nil {
		h.RespondWithError(c, http.StatusBadRequest, "index is required")
		return
	}

	h.respond(c, func(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
		return h.attemptService.JumpTo(ctx, attemptID, userID, *req.Index)
	})
}

// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	h.respond(c, h.attemptService.Submit)
}

// ResetAttempt is "retake"
// @Router /attempts/{id}/reset [post]
func (h *AttemptHandler) ResetAttempt(c *gin.Context) {
	h.respond(c, h.attemptService.Reset)
}

// ExportResult downloads the result report of a submitted attempt
// @Router /attempts/{id}/result/export [get]
func (h *AttemptHandler) ExportResult(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	data, err := h.exportService.ExportAttemptResult(c.Request.Context(), attemptID, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attempt-%s-result.xlsx"`, attemptID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// @Router /completions [get]
func (h *AttemptHandler) ListCompletions(c *gin.Context) {
	completions, err := h.attemptService.ListCompletions(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"completions": completions})
}

// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	filters := repositories.AttemptFilters{
		AssessmentID: c.Query("assessment_id"),
		Phase:        models.AttemptPhase(c.Query("phase")),
		Limit:        size,
		Offset:       (page - 1) * size,
	}

	resp, err := h.attemptService.ListAttempts(c.Request.Context(), currentUserID(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /completions/{lesson_id} [get]
func (h *AttemptHandler) GetCompletion(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	completion, err := h.attemptService.GetCompletion(c.Request.Context(), currentUserID(c), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, completion)
}

type attemptCall func(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error)

type questionCall func(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error)

func (h *AttemptHandler) respond(c *gin.Context, call attemptCall) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	attempt, err := call(c.Request.Context(), attemptID, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

func (h *AttemptHandler) respondQuestion(c *gin.Context, call questionCall) {
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	h.respond(c, func(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
		return call(ctx, attemptID, questionID, userID)
	})
}
