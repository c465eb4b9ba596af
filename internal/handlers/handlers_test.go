package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/models"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAssessmentService struct {
	mock.Mock
}

func (m *mockAssessmentService) Create(ctx context.Context, req *models.CreateAssessmentRequest, creatorID string) (*models.Assessment, error) {
	args := m.Called(ctx, req, creatorID)
	a, _ := args.Get(0).(*models.Assessment)
	return a, args.Error(1)
}

func (m *mockAssessmentService) Get(ctx context.Context, id string) (*models.Assessment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*models.Assessment)
	return a, args.Error(1)
}

func (m *mockAssessmentService) GetByLesson(ctx context.Context, lessonID string) (*models.Assessment, error) {
	args := m.Called(ctx, lessonID)
	a, _ := args.Get(0).(*models.Assessment)
	return a, args.Error(1)
}

func (m *mockAssessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*services.AssessmentListResponse, error) {
	args := m.Called(ctx, filters)
	r, _ := args.Get(0).(*services.AssessmentListResponse)
	return r, args.Error(1)
}

func (m *mockAssessmentService) Delete(ctx context.Context, id string, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockAssessmentService) GetStats(ctx context.Context, id string) (*repositories.AssessmentStats, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*repositories.AssessmentStats)
	return s, args.Error(1)
}

type mockAttemptService struct {
	mock.Mock
}

func (m *mockAttemptService) attempt(args mock.Arguments) (*models.AttemptResponse, error) {
	a, _ := args.Get(0).(*models.AttemptResponse)
	return a, args.Error(1)
}

func (m *mockAttemptService) Start(ctx context.Context, assessmentID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, assessmentID, userID))
}

func (m *mockAttemptService) Get(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID))
}

func (m *mockAttemptService) Progress(ctx context.Context, attemptID, userID string) (*services.ProgressResponse, error) {
	args := m.Called(ctx, attemptID, userID)
	p, _ := args.Get(0).(*services.ProgressResponse)
	return p, args.Error(1)
}

func (m *mockAttemptService) Begin(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID))
}

func (m *mockAttemptService) SetAnswer(ctx context.Context, attemptID, questionID, userID string, raw json.RawMessage) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, questionID, userID, string(raw)))
}

func (m *mockAttemptService) ToggleMark(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, questionID, userID))
}

func (m *mockAttemptService) ToggleReveal(ctx context.Context, attemptID, questionID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, questionID, userID))
}

func (m *mockAttemptService) Next(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID))
}

func (m *mockAttemptService) Prev(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID))
}

func (m *mockAttemptService) JumpTo(ctx context.Context, attemptID, userID string, index int) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID, index))
}

func (m *mockAttemptService) Submit(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID))
}

func (m *mockAttemptService) Reset(ctx context.Context, attemptID, userID string) (*models.AttemptResponse, error) {
	return m.attempt(m.Called(ctx, attemptID, userID))
}

func (m *mockAttemptService) ListCompletions(ctx context.Context, userID string) ([]*models.LessonCompletion, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]*models.LessonCompletion)
	return c, args.Error(1)
}

func (m *mockAttemptService) ListAttempts(ctx context.Context, userID string, filters repositories.AttemptFilters) (*services.AttemptListResponse, error) {
	args := m.Called(ctx, userID, filters)
	r, _ := args.Get(0).(*services.AttemptListResponse)
	return r, args.Error(1)
}

func (m *mockAttemptService) GetCompletion(ctx context.Context, userID, lessonID string) (*models.LessonCompletion, error) {
	args := m.Called(ctx, userID, lessonID)
	c, _ := args.Get(0).(*models.LessonCompletion)
	return c, args.Error(1)
}

type mockExportService struct {
	mock.Mock
}

func (m *mockExportService) ExportAttemptResult(ctx context.Context, attemptID, userID string) ([]byte, error) {
	args := m.Called(ctx, attemptID, userID)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type stubTokenParser struct {
	claims *casdoorsdk.Claims
	err    error
}

func (p stubTokenParser) ParseJwtToken(string) (*casdoorsdk.Claims, error) {
	return p.claims, p.err
}

type testServer struct {
	router      *gin.Engine
	assessments *mockAssessmentService
	attempts    *mockAttemptService
	exports     *mockExportService
}

func newTestServer(parser TokenParser) *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		assessments: &mockAssessmentService{},
		attempts:    &mockAttemptService{},
		exports:     &mockExportService{},
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hm := NewHandlerManager(ServiceSet{
		Assessment: ts.assessments,
		Attempt:    ts.attempts,
		Export:     ts.exports,
	}, parser, metrics.New(), logger)
	ts.router = hm.NewRouter()
	return ts
}

func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

var asUser = map[string]string{"X-User-ID": "user-1"}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(nil)

	w := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestIdentity(t *testing.T) {
	t.Run("missing identity", func(t *testing.T) {
		ts := newTestServer(nil)
		w := ts.do(http.MethodGet, "/api/v1/attempts/att-1", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		ts.attempts.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bearer token", func(t *testing.T) {
		parser := stubTokenParser{claims: &casdoorsdk.Claims{User: casdoorsdk.User{Id: "casdoor-user"}}}
		ts := newTestServer(parser)
		ts.attempts.On("Get", mock.Anything, "att-1", "casdoor-user").Return(&models.AttemptResponse{ID: "att-1"}, nil)

		w := ts.do(http.MethodGet, "/api/v1/attempts/att-1", "", map[string]string{"Authorization": "Bearer abc.def.ghi"})
		assert.Equal(t, http.StatusOK, w.Code)
		ts.attempts.AssertExpectations(t)
	})

	t.Run("rejected token", func(t *testing.T) {
		ts := newTestServer(stubTokenParser{err: errors.New("token expired")})
		w := ts.do(http.MethodGet, "/api/v1/attempts/att-1", "", map[string]string{
			"Authorization": "Bearer stale",
			"X-User-ID":     "user-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAttemptRoutes(t *testing.T) {
	ts := newTestServer(nil)
	ts.attempts.On("Start", mock.Anything, "asm-1", "user-1").
		Return(&models.AttemptResponse{ID: "att-1", State: models.AttemptState{Phase: models.PhaseIntro}}, nil)
	ts.attempts.On("SetAnswer", mock.Anything, "att-1", "q1", "user-1", "[0,2]").
		Return(&models.AttemptResponse{ID: "att-1", AnsweredCount: 1}, nil)
	ts.attempts.On("JumpTo", mock.Anything, "att-1", "user-1", 3).
		Return(&models.AttemptResponse{ID: "att-1"}, nil)

	w := ts.do(http.MethodPost, "/api/v1/assessments/asm-1/attempts", "", asUser)
	require.Equal(t, http.StatusCreated, w.Code)
	var started models.AttemptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.Equal(t, models.PhaseIntro, started.State.Phase)

	w = ts.do(http.MethodPut, "/api/v1/attempts/att-1/answers/q1", `{"answer":[0,2]}`, asUser)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/attempts/att-1/jump", `{"index":3}`, asUser)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/attempts/att-1/jump", `{}`, asUser)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.attempts.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", services.ErrAttemptNotFound, http.StatusNotFound, ""},
		{"other user", services.NewPermissionError("user-1", "att-1", "attempt", "view", "attempt belongs to another user"), http.StatusForbidden, ""},
		{"not started", services.ErrAttemptNotStarted, http.StatusConflict, "attempt_not_started"},
		{"submitted", services.ErrAttemptAlreadySubmitted, http.StatusConflict, "attempt_already_submitted"},
		{"not last", services.ErrNotOnLastQuestion, http.StatusConflict, "not_on_last_question"},
		{"bad answer", services.ErrInvalidAnswer, http.StatusBadRequest, ""},
		{"validation", services.ValidationErrors{{Field: "title", Message: "is required"}}, http.StatusBadRequest, ""},
		{"business rule", services.NewBusinessRuleError("one_assessment_per_lesson", "lesson already has an assessment", nil), http.StatusUnprocessableEntity, ""},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(nil)
			ts.attempts.On("Submit", mock.Anything, "att-1", "user-1").Return(nil, tt.err)

			w := ts.do(http.MethodPost, "/api/v1/attempts/att-1/submit", "", asUser)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestExportResult(t *testing.T) {
	ts := newTestServer(nil)
	ts.exports.On("ExportAttemptResult", mock.Anything, "att-1", "user-1").Return([]byte("xlsx-bytes"), nil)

	w := ts.do(http.MethodGet, "/api/v1/attempts/att-1/result/export", "", asUser)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attempt-att-1-result.xlsx")
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestAssessmentRoutes(t *testing.T) {
	ts := newTestServer(nil)
	ts.assessments.On("GetByLesson", mock.Anything, "lesson-7").Return(&models.Assessment{ID: "asm-1", LessonID: "lesson-7"}, nil)
	ts.assessments.On("Delete", mock.Anything, "asm-1", "user-1").Return(services.ErrAssessmentNotDeletable)
	ts.assessments.On("Create", mock.Anything, mock.AnythingOfType("*models.CreateAssessmentRequest"), "user-1").
		Return(&models.Assessment{ID: "asm-2"}, nil)

	w := ts.do(http.MethodGet, "/api/v1/assessments/lesson/lesson-7", "", asUser)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodDelete, "/api/v1/assessments/asm-1", "", asUser)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "assessment_has_attempts", decodeError(t, w).Code)

	w = ts.do(http.MethodPost, "/api/v1/assessments", `{"lesson_id":"l-1","title":"T","passing_score":50,"questions":[]}`, asUser)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/assessments", `{"title":`, asUser)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryRoutes(t *testing.T) {
	ts := newTestServer(nil)
	ts.attempts.On("ListAttempts", mock.Anything, "user-1", repositories.AttemptFilters{
		AssessmentID: "asm-1",
		Phase:        models.PhaseSubmitted,
		Limit:        10,
		Offset:       10,
	}).Return(&services.AttemptListResponse{Total: 12, Limit: 10, Offset: 10}, nil)
	ts.attempts.On("GetCompletion", mock.Anything, "user-1", "lesson-7").
		Return(&models.LessonCompletion{UserID: "user-1", LessonID: "lesson-7", Score: 90}, nil)
	ts.attempts.On("GetCompletion", mock.Anything, "user-1", "lesson-8").
		Return(nil, services.ErrCompletionNotFound)

	w := ts.do(http.MethodGet, "/api/v1/attempts?assessment_id=asm-1&phase=submitted&page=2&size=10", "", asUser)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/completions/lesson-7", "", asUser)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"score":90`)

	w = ts.do(http.MethodGet, "/api/v1/completions/lesson-8", "", asUser)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ts.attempts.AssertExpectations(t)
}

func TestAssessmentRoutes_HideKeysFromLearners(t *testing.T) {
	ts := newTestServer(nil)
	assessment := &models.Assessment{
		ID:        "asm-1",
		LessonID:  "lesson-7",
		CreatedBy: "author-1",
		Questions: []models.Question{
			{ID: "q1", Type: models.TrueFalse, Prompt: "Water is wet.", CorrectAnswer: json.RawMessage(`true`), Feedback: "It is."},
		},
	}
	ts.assessments.On("Get", mock.Anything, "asm-1").Return(assessment, nil)
	ts.assessments.On("GetByLesson", mock.Anything, "lesson-7").Return(assessment, nil)

	w := ts.do(http.MethodGet, "/api/v1/assessments/asm-1", "", asUser)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct_answer")
	assert.NotContains(t, w.Body.String(), "It is.")

	w = ts.do(http.MethodGet, "/api/v1/assessments/lesson/lesson-7", "", asUser)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct_answer")

	w = ts.do(http.MethodGet, "/api/v1/assessments/asm-1", "", map[string]string{"X-User-ID": "author-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"correct_answer":true`)
}
