// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the entity/transaction engines.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Tenant context metrics
	OrgContextMissingCounter prometheus.Counter

	// Entity and transaction operation metrics
	EntityOperationsCounter      *prometheus.CounterVec
	TransactionOperationsCounter *prometheus.CounterVec

	// Optimistic concurrency metrics
	VersionConflictsCounter prometheus.Counter
)

// Init registers all metrics under the given name prefix. Call once at
// startup.
func Init(prefix string) {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	OrgContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_org_context_missing_total",
			Help: "Total number of requests without an organization context",
		},
	)

	EntityOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"operation", "entity_type"},
	)

	TransactionOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_transaction_operations_total",
			Help: "Total number of transaction operations",
		},
		[]string{"operation", "transaction_type"},
	)

	VersionConflictsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_version_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts",
		},
	)
}

// RecordEntityOperation increments the counter for entity operations
func RecordEntityOperation(operation, entityType string) {
	if EntityOperationsCounter != nil {
		EntityOperationsCounter.WithLabelValues(operation, entityType).Inc()
	}
}

// RecordTransactionOperation increments the counter for transaction operations
func RecordTransactionOperation(operation, transactionType string) {
	if TransactionOperationsCounter != nil {
		TransactionOperationsCounter.WithLabelValues(operation, transactionType).Inc()
	}
}

// RecordVersionConflict increments the optimistic concurrency conflict counter
func RecordVersionConflict() {
	if VersionConflictsCounter != nil {
		VersionConflictsCounter.Inc()
	}
}

// RecordOrgContextMissing increments the missing organization context counter
func RecordOrgContextMissing() {
	if OrgContextMissingCounter != nil {
		OrgContextMissingCounter.Inc()
	}
}

// Middleware tracks request counts and durations per method, route and status.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if HTTPRequestsTotal == nil {
			return
		}
		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
