// Package metrics defines Prometheus metrics for the dashboard backend,
// covering cluster operations, SSH sessions, API client builds, the cluster
// registry, audit delivery, and HTTP endpoints.
package metrics
