package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsAttemptOutcomes(t *testing.T) {
	m := New()

	m.AttemptStarted()
	m.AttemptSubmitted(75, true)
	m.AttemptSubmitted(40, false)
	m.AttemptSubmitted(90, true)
	m.MalformedKeys(2)
	m.MalformedKeys(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attemptsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attemptsSubmitted.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attemptsSubmitted.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.malformedKeys))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AttemptStarted()
		m.AttemptSubmitted(10, false)
		m.AnswerRecorded("mcq_single")
		m.MalformedKeys(1)
	})
}

func TestMetrics_HandlerExposesRequestLatency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_request_duration_seconds_count{method="GET",route="/ping",status="200"} 1`)
}
