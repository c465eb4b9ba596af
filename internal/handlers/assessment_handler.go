package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
	}
}

// CreateAssessment imports an assessment from the content provider
// @Router /assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req models.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating assessment", "lesson_id", req.LessonID, "questions", len(req.Questions))

	assessment, err := h.assessmentService.Create(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	assessment, err := h.assessmentService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentAssessment(c, assessment))
}

// GetLessonAssessment returns the assessment attached to a lesson
// @Router /assessments/lesson/{lesson_id} [get]
func (h *AssessmentHandler) GetLessonAssessment(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	assessment, err := h.assessmentService.GetByLesson(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, presentAssessment(c, assessment))
}

// @Router /assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	filters := repositories.AssessmentFilters{
		LessonID:  c.Query("lesson_id"),
		CreatedBy: c.Query("created_by"),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	resp, err := h.assessmentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	for i, a := range resp.Assessments {
		resp.Assessments[i] = presentAssessment(c, a)
	}

	c.JSON(http.StatusOK, resp)
}

// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting assessment", "assessment_id", id)

	if err := h.assessmentService.Delete(c.Request.Context(), id, currentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Router /assessments/{id}/stats [get]
func (h *AssessmentHandler) GetAssessmentStats(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	stats, err := h.assessmentService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// presentAssessment withholds answer keys from everyone but the author.
// Learners see a key only through an attempt's reveal.
func presentAssessment(c *gin.Context, a *models.Assessment) *models.Assessment {
	if a.CreatedBy != "" && a.CreatedBy == currentUserID(c) {
		return a
	}
	return a.LearnerView()
}
