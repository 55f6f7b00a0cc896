// Package metrics exposes Prometheus instrumentation for warden.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event processing metrics
	GatewayEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_gateway_events_total",
			Help: "Total number of gateway events processed",
		},
		[]string{"type"},
	)

	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_security_events_total",
			Help: "Total number of security events recorded",
		},
		[]string{"type"},
	)

	// Detection metrics
	Detections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_detections_total",
			Help: "Total number of rule detections",
		},
		[]string{"rule"},
	)

	SuspicionPoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_suspicion_points_total",
			Help: "Total suspicion points granted across all users",
		},
	)

	// Effect metrics
	ActionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_actions_total",
			Help: "Total moderation actions issued",
		},
		[]string{"action", "status"},
	)

	AlertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_alert_failures_total",
			Help: "Total alert deliveries that failed (dropped, not retried)",
		},
	)

	SinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_sink_failures_total",
			Help: "Total durable sink writes that failed",
		},
		[]string{"kind"},
	)

	// Health scan metrics
	HealthScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_health_scans_total",
			Help: "Total completed guild health scans",
		},
	)
)
