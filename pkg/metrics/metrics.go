package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Facade operation metrics. The result label is "ok" or the error kind.
	ClusterOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cluster_operations_total",
		Help: "Total number of cluster operations grouped by backend and result",
	}, []string{"cluster", "backend", "operation", "result"})
	ClusterOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_cluster_operation_duration_seconds",
		Help:    "Duration of cluster operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"cluster", "backend", "operation"})

	// Remote shell session metrics
	ShellConnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_shell_connects_total",
		Help: "Total number of SSH sessions established",
	}, []string{"cluster"})
	ShellConnectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_shell_connect_failures_total",
		Help: "Total number of failed SSH session establishments",
	}, []string{"cluster"})
	ShellReconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_shell_reconnects_total",
		Help: "Total number of reconnects triggered by an inactive SSH session",
	}, []string{"cluster"})
	ShellProbeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_shell_probe_failures_total",
		Help: "Total number of liveness probe failures that did not trigger a reconnect",
	}, []string{"cluster"})
	ShellCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_shell_commands_total",
		Help: "Total number of remote commands executed, grouped by exit status",
	}, []string{"cluster", "status"})

	// Direct API metrics
	APIClientBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_client_builds_total",
		Help: "Total number of API client reconfigurations",
	}, []string{"cluster"})
	APIClientBuildFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_client_build_failures_total",
		Help: "Total number of API client reconfigurations that failed",
	}, []string{"cluster"})

	// Registry metrics
	RegisteredClusters = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_registered_clusters",
		Help: "Number of clusters currently in the registry",
	})
	ClusterInitFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cluster_init_failures_total",
		Help: "Total number of cluster client constructions that failed",
	}, []string{"cluster"})
	SecretDecryptFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_secret_decrypt_failures_total",
		Help: "Total number of registry secrets that could not be decrypted",
	}, []string{"cluster"})

	// Audit metrics
	AuditEventsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_audit_events_written_total",
		Help: "Total number of audit events written per sink",
	}, []string{"sink"})
	AuditEventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_audit_events_failed_total",
		Help: "Total number of audit events a sink failed to write",
	}, []string{"sink"})
	AuditEventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_audit_events_dropped_total",
		Help: "Total number of audit events dropped before reaching a sink",
	}, []string{"sink", "reason"})

	// API endpoint metrics
	APIEndpointRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_requests_total",
		Help: "Total number of HTTP API requests by route and status code",
	}, []string{"method", "route", "status"})
	APIRateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_rate_limited_total",
		Help: "Total number of HTTP API requests rejected by the rate limiter",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(ClusterOperations)
	prometheus.MustRegister(ClusterOperationDuration)
	prometheus.MustRegister(ShellConnects)
	prometheus.MustRegister(ShellConnectFailures)
	prometheus.MustRegister(ShellReconnects)
	prometheus.MustRegister(ShellProbeFailures)
	prometheus.MustRegister(ShellCommands)
	prometheus.MustRegister(APIClientBuilds)
	prometheus.MustRegister(APIClientBuildFailures)
	prometheus.MustRegister(RegisteredClusters)
	prometheus.MustRegister(ClusterInitFailures)
	prometheus.MustRegister(SecretDecryptFailures)
	prometheus.MustRegister(AuditEventsWritten)
	prometheus.MustRegister(AuditEventsFailed)
	prometheus.MustRegister(AuditEventsDropped)
	prometheus.MustRegister(APIEndpointRequests)
	prometheus.MustRegister(APIRateLimited)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
