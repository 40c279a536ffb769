// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PipelineOutcomes counts finished pipeline executions by terminal state
	PipelineOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_pipeline_outcomes_total",
			Help: "Pipeline executions by final state",
		},
		[]string{"state"},
	)

	// PipelineRejections counts rejections by error kind and stage
	PipelineRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_pipeline_rejections_total",
			Help: "Pipeline rejections",
		},
		[]string{"kind", "stage"},
	)

	// ValidationViolations counts violated fields on write payloads
	ValidationViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_validation_violations_total",
			Help: "Field violations on write payloads",
		},
		[]string{"field"},
	)

	// TenantCacheLookups counts tenant snapshot cache lookups by result
	TenantCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_tenant_cache_lookups_total",
			Help: "Tenant snapshot cache lookups",
		},
		[]string{"result"},
	)

	// AuditEntries counts audit entries by outcome (persisted, skipped, dropped, failed)
	AuditEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_audit_entries_total",
			Help: "Audit entries by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequestDuration records request latency in seconds
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "records_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PipelineOutcomes,
			PipelineRejections,
			ValidationViolations,
			TenantCacheLookups,
			AuditEntries,
			HTTPRequestDuration,
		)
	})
}
