package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status", "table"},
	)

	// Provisioning outcomes
	ProvisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provision_total",
			Help: "Total number of partition provisioning attempts",
		},
		[]string{"result"}, // success, failure
	)

	// Resolver outcomes
	ResolveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Total number of hostname resolutions",
		},
		[]string{"outcome"}, // matched, public_fallback, cache_hit
	)

	// Lifecycle operations
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_operations_total",
			Help: "Total number of tenant lifecycle operations",
		},
		[]string{"operation", "result"},
	)

	// Policy rejections
	PolicyDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_policy_denied_total",
			Help: "Total number of requests rejected by the tenant policy",
		},
		[]string{"reason"}, // surface, table, inactive, partition_mismatch
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Lifecycle operation duration
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_operation_duration_seconds",
			Help:    "Duration of tenant lifecycle operations in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"}, // provision, migrate, decommission, create_admin
	)
)

// Gauge metrics
var (
	// Active client tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenant_active",
			Help: "Number of active client tenants",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tenant_info",
			Help: "Information about the tenant service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(ProvisionCounter)
	prometheus.MustRegister(ResolveCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(PolicyDeniedCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(OperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTenantsGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// TrackOperation measures lifecycle operation durations
func TrackOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		OperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request.
// The table label is read from the "route_table" context key set by the tenant middleware.
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method
			table, _ := c.Get("route_table").(string)

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
				"table":    table,
			}).Inc()

			return err
		}
	}
}

// RecordProvision records a provisioning outcome
func RecordProvision(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ProvisionCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordResolve records a resolver outcome
func RecordResolve(outcome string) {
	ResolveCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordTenantOperation records a lifecycle operation and its outcome
func RecordTenantOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	TenantOperationCounter.With(prometheus.Labels{"operation": operation, "result": result}).Inc()
}

// RecordPolicyDenied records a request rejected by the policy layer
func RecordPolicyDenied(reason string) {
	PolicyDeniedCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}
