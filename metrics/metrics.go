// Package metrics exposes Prometheus metrics for the session coordinator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionMetrics holds all Prometheus metrics for session coordination.
// It satisfies auth.Recorder.
type SessionMetrics struct {
	ChecksTotal    *prometheus.CounterVec
	RefreshesTotal *prometheus.CounterVec
	FailureLevel   prometheus.Gauge
}

// NewSessionMetrics initializes and registers the Prometheus metrics.
func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal_session",
			Subsystem: "auth",
			Name:      "checks_total",
			Help:      "Total number of session checks by outcome.",
		}, []string{"status"}), // status: authenticated, unauthenticated, rate_limited, error
		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal_session",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Total number of session refresh attempts by outcome.",
		}, []string{"status"}), // status: success, failure
		FailureLevel: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "portal_session",
			Subsystem: "auth",
			Name:      "consecutive_failures",
			Help:      "Current consecutive refresh failure count driving backoff.",
		}),
	}
}

// RecordCheck counts a session check outcome.
func (m *SessionMetrics) RecordCheck(status string) {
	m.ChecksTotal.WithLabelValues(status).Inc()
}

// RecordRefresh counts a refresh attempt outcome.
func (m *SessionMetrics) RecordRefresh(status string) {
	m.RefreshesTotal.WithLabelValues(status).Inc()
}

// SetFailureLevel records the consecutive failure count.
func (m *SessionMetrics) SetFailureLevel(level int) {
	m.FailureLevel.Set(float64(level))
}
