package prometheus

import (
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors stay nil until InitMetrics runs; the Record helpers are no-ops
// before that so core packages can be exercised without a registry.
var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Product metrics
	ProductOperationsCounter *prometheus.CounterVec

	// Verification outcomes
	VerificationsCounter *prometheus.CounterVec

	// Degraded-mode fallbacks per external collaborator
	DegradedCounter *prometheus.CounterVec

	// Custody chain forks
	ChainForksCounter prometheus.Counter

	// Invoice risk scores
	RiskScoreHistogram prometheus.Histogram
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	InitMetricsWith(config.Metrics.Prefix, prometheus.DefaultRegisterer)
}

// InitMetricsWith registers the collectors on reg using prefix.
func InitMetricsWith(prefix string, reg prometheus.Registerer) {
	factory := promauto.With(reg)

	HttpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts by outcome",
		},
		[]string{"outcome"},
	)

	DbOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ProductOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of product, tracking and invoice operations",
		},
		[]string{"operation"},
	)

	VerificationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_verifications_total",
			Help: "Total number of verification verdicts by status",
		},
		[]string{"status"},
	)

	DegradedCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_degraded_total",
			Help: "Total number of fallbacks to degraded mode by component",
		},
		[]string{"component"},
	)

	ChainForksCounter = factory.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tracking_chain_forks_total",
			Help: "Total number of custody events that forked a product chain",
		},
	)

	RiskScoreHistogram = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_invoice_risk_score",
			Help:    "Distribution of computed invoice risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthAttempt increments the authentication counter
func RecordAuthAttempt(outcome string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordProductOperation increments the counter for domain operations
func RecordProductOperation(operation string) {
	if ProductOperationsCounter != nil {
		ProductOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordVerification increments the verdict counter
func RecordVerification(status string) {
	if VerificationsCounter != nil {
		VerificationsCounter.WithLabelValues(status).Inc()
	}
}

// RecordDegraded increments the fallback counter for a component
func RecordDegraded(component string) {
	if DegradedCounter != nil {
		DegradedCounter.WithLabelValues(component).Inc()
	}
}

// RecordChainFork increments the fork counter
func RecordChainFork() {
	if ChainForksCounter != nil {
		ChainForksCounter.Inc()
	}
}

// ObserveRiskScore records a computed invoice risk score
func ObserveRiskScore(score int) {
	if RiskScoreHistogram != nil {
		RiskScoreHistogram.Observe(float64(score))
	}
}
