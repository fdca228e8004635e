package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthEvents counts registrations, logins and token resolves by outcome.
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Registrations, logins and token resolves by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	// TodoOperations counts successful todo operations (create, list, get, update, delete).
	TodoOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_operations_total",
			Help: "Successful todo operations by kind",
		},
		[]string{"op"},
	)

	// DBUp is 1 when the last scheduled database ping succeeded, 0 otherwise.
	DBUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_up",
			Help: "Whether the last database health check succeeded",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthEvents, TodoOperations, DBUp)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /todos/123 -> /todos/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuthEvent records a register, login or token resolve with its outcome (ok, conflict, invalid, error).
func IncAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// IncTodoOperation records a successful todo operation.
func IncTodoOperation(op string) {
	TodoOperations.WithLabelValues(op).Inc()
}

// SetDBUp records the result of a database health check.
func SetDBUp(up bool) {
	if up {
		DBUp.Set(1)
		return
	}
	DBUp.Set(0)
}
