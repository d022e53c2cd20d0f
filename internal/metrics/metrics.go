package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyaid_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Generation Metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_generations_total",
			Help: "Total number of generation requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyaid_provider_call_duration_seconds",
			Help:    "Text-generation provider latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"provider", "status"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_generation_fallbacks_total",
			Help: "Generations answered with placeholder content",
		},
		[]string{"kind", "reason"},
	)

	// Quota Metrics
	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studyaid_quota_rejections_total",
			Help: "Requests refused because the free tier was used up",
		},
	)

	QuotaChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_quota_charges_total",
			Help: "Billable requests charged to free-tier users",
		},
		[]string{"request_type"},
	)

	// Payment Metrics
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_payments_total",
			Help: "Payment state transitions by plan",
		},
		[]string{"plan", "status"},
	)

	// Database Metrics
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyaid_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "status"},
	)

	// Session Metrics
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_sessions_total",
			Help: "Session lifecycle events",
		},
		[]string{"event"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyaid_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordGeneration records the outcome of a generation request.
// outcome is one of generated, fallback, rejected.
func RecordGeneration(kind, outcome string) {
	GenerationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordProviderCall records a provider round trip
func RecordProviderCall(provider, status string, duration float64) {
	ProviderCallDuration.WithLabelValues(provider, status).Observe(duration)
}

// RecordFallback records a placeholder answer
func RecordFallback(kind, reason string) {
	FallbacksTotal.WithLabelValues(kind, reason).Inc()
	RecordGeneration(kind, "fallback")
}

// RecordQuotaRejection records a refused request
func RecordQuotaRejection() {
	QuotaRejectionsTotal.Inc()
}

// RecordQuotaCharge records a billed request
func RecordQuotaCharge(requestType string) {
	QuotaChargesTotal.WithLabelValues(requestType).Inc()
}

// RecordPayment records a payment transition
func RecordPayment(plan, status string) {
	PaymentsTotal.WithLabelValues(plan, status).Inc()
}

// RecordDatabaseOperation records database operation metrics
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationDuration.WithLabelValues(operation, status).Observe(duration)
}

// RecordSession records a login, signup or logout
func RecordSession(event string) {
	SessionsTotal.WithLabelValues(event).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
