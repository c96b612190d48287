package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PairingAttempts counts partner binding attempts and their outcome
	// (success|invalid|not_found|conflict).
	PairingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_pairing_attempts_total",
			Help: "Total number of partner binding attempts",
		},
		[]string{"result"},
	)

	// ScoreDecisions counts score request resolutions (approved|rejected).
	ScoreDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_score_decisions_total",
			Help: "Total number of resolved score requests",
		},
		[]string{"action"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heartbeat_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heartbeat_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
