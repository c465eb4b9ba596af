package handlers

import (
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type ServiceSet struct {
	Assessment services.AssessmentService
	Attempt    services.AttemptService
	Export     services.ExportService
}

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	attemptHandler    *AttemptHandler
	tokenParser       TokenParser
	metrics           *metrics.Metrics
	logger            utils.Logger
}

// NewHandlerManager builds the handlers. tokenParser and m may be nil.
func NewHandlerManager(svc ServiceSet, tokenParser TokenParser, m *metrics.Metrics, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(svc.Assessment, logger),
		attemptHandler:    NewAttemptHandler(svc.Attempt, svc.Export, logger),
		tokenParser:       tokenParser,
		metrics:           m,
		logger:            logger,
	}
}

// NewRouter returns an engine with the shared middleware stack and every
// route installed.
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware(hm.logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", userIDHeader, requestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", requestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	if hm.metrics != nil {
		router.Use(hm.metrics.GinMiddleware())
	}

	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	if hm.metrics != nil {
		router.GET("/metrics", gin.WrapH(hm.metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware(hm.tokenParser))
	{
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/lesson/:lesson_id", hm.assessmentHandler.GetLessonAssessment)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
			assessments.GET("/:id/stats", hm.assessmentHandler.GetAssessmentStats)
			assessments.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/progress", hm.attemptHandler.GetProgress)
			attempts.POST("/:id/begin", hm.attemptHandler.BeginAttempt)
			attempts.PUT("/:id/answers/:question_id", hm.attemptHandler.SetAnswer)
			attempts.POST("/:id/marks/:question_id", hm.attemptHandler.ToggleMark)
			attempts.POST("/:id/reveals/:question_id", hm.attemptHandler.ToggleReveal)
			attempts.POST("/:id/next", hm.attemptHandler.NextQuestion)
			attempts.POST("/:id/prev", hm.attemptHandler.PrevQuestion)
			attempts.POST("/:id/jump", hm.attemptHandler.JumpToQuestion)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.POST("/:id/reset", hm.attemptHandler.ResetAttempt)
			attempts.GET("/:id/result/export", hm.attemptHandler.ExportResult)
		}

		v1.GET("/completions", hm.attemptHandler.ListCompletions)
		v1.GET("/completions/:lesson_id", hm.attemptHandler.GetCompletion)
	}
}
