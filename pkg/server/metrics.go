package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the server
type Metrics struct {
	// Session metrics
	activeSessions       prometheus.Gauge
	sessionsCreated      prometheus.Counter
	sessionsDisconnected prometheus.Counter

	// Broadcast metrics
	messagesBroadcast prometheus.Counter
	broadcastFanout   prometheus.Histogram
	whispersDelivered prometheus.Counter

	// Command metrics
	commandsProcessed *prometheus.CounterVec

	// Auth metrics
	authAttempts *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		activeSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "parley_active_sessions",
				Help: "Current number of active sessions",
			},
		),
		sessionsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		sessionsDisconnected: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_sessions_disconnected_total",
				Help: "Total number of sessions disconnected",
			},
		),
		messagesBroadcast: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_messages_broadcast_total",
				Help: "Total number of messages broadcast (unique messages, not deliveries)",
			},
		),
		broadcastFanout: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "parley_broadcast_fanout",
				Help:    "Number of clients that received each broadcast message",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		whispersDelivered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_whispers_delivered_total",
				Help: "Total number of private messages delivered",
			},
		),
		commandsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_commands_processed_total",
				Help: "Total number of commands processed by verb",
			},
			[]string{"verb"},
		),
		authAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_auth_attempts_total",
				Help: "Total number of authentication attempts by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
	}
}

// RecordActiveSessions updates the active session count
func (m *Metrics) RecordActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

// RecordSessionCreated increments the session creation counter
func (m *Metrics) RecordSessionCreated() {
	m.sessionsCreated.Inc()
}

// RecordSessionDisconnected increments the session disconnection counter
func (m *Metrics) RecordSessionDisconnected() {
	m.sessionsDisconnected.Inc()
}

// RecordBroadcast records a broadcast and how many clients received it
func (m *Metrics) RecordBroadcast(recipientCount int) {
	m.messagesBroadcast.Inc()
	m.broadcastFanout.Observe(float64(recipientCount))
}

// RecordWhisperDelivered increments the whisper delivery counter
func (m *Metrics) RecordWhisperDelivered() {
	m.whispersDelivered.Inc()
}

// RecordCommand increments the command counter for a verb
func (m *Metrics) RecordCommand(verb string) {
	m.commandsProcessed.WithLabelValues(verb).Inc()
}

// RecordAuthAttempt increments the auth counter for a mode ("login" or
// "register") and outcome ("ok" or "failed")
func (m *Metrics) RecordAuthAttempt(mode, outcome string) {
	m.authAttempts.WithLabelValues(mode, outcome).Inc()
}
