package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crackledate/internal/models"
)

// Metrics holds the Prometheus collectors for the game API
type Metrics struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	solutions   *prometheus.CounterVec
	scores      prometheus.Histogram
	requests    *prometheus.HistogramVec
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crackledate",
			Name:      "submissions_total",
			Help:      "Equation submissions by outcome.",
		}, []string{"outcome"}),
		solutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crackledate",
			Name:      "solutions_total",
			Help:      "Accepted solutions by complexity.",
		}, []string{"complexity"}),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crackledate",
			Name:      "solution_score",
			Help:      "Points awarded per accepted solution.",
			Buckets:   []float64{20, 25, 35, 55, 95},
		}),
		requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crackledate",
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveSubmission records one submission outcome
func (m *Metrics) ObserveSubmission(result models.ValidationResult, score int) {
	if !result.IsValid {
		m.submissions.WithLabelValues(models.KindName(result.Err())).Inc()
		return
	}
	m.submissions.WithLabelValues("solved").Inc()
	m.solutions.WithLabelValues(string(result.Complexity)).Inc()
	m.scores.Observe(float64(score))
}

// observeRequest records the latency of one request
func (m *Metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
