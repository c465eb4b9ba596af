// Package metrics exposes Prometheus instruments for attempts and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	attemptsStarted   prometheus.Counter
	attemptsSubmitted *prometheus.CounterVec
	attemptScores     prometheus.Histogram
	answersRecorded   *prometheus.CounterVec
	malformedKeys     prometheus.Counter
	requestDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		attemptsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_attempts_started_total",
			Help: "Attempts moved from intro to in progress",
		}),
		attemptsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_attempts_submitted_total",
			Help: "Submitted attempts by outcome",
		}, []string{"passed"}),
		attemptScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_attempt_score_percent",
			Help:    "Distribution of submitted attempt scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		answersRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_answers_recorded_total",
			Help: "Answers stored, by question type",
		}, []string{"question_type"}),
		malformedKeys: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_malformed_answer_keys_total",
			Help: "Questions graded incorrect because their answer key was malformed",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) AttemptStarted() {
	if m == nil {
		return
	}
	m.attemptsStarted.Inc()
}

func (m *Metrics) AttemptSubmitted(score int, passed bool) {
	if m == nil {
		return
	}
	m.attemptsSubmitted.WithLabelValues(strconv.FormatBool(passed)).Inc()
	m.attemptScores.Observe(float64(score))
}

func (m *Metrics) AnswerRecorded(questionType string) {
	if m == nil {
		return
	}
	m.answersRecorded.WithLabelValues(questionType).Inc()
}

func (m *Metrics) MalformedKeys(n int) {
	if m == nil || n == 0 {
		return
	}
	m.malformedKeys.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware records request latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
