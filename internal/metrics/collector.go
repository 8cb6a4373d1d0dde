package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records orchestration metrics. A nil *Collector is valid and
// records nothing, so callers never need to guard their call sites.
type Collector struct {
	turnsTotal    *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	oracleTotal   *prometheus.CounterVec
	oracleDur     *prometheus.HistogramVec
	compactions   prometheus.Counter
	redirects     *prometheus.CounterVec
	roundDuration prometheus.Histogram
	sessionsTotal *prometheus.CounterVec
	sessionDur    prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector registered on the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWith(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWith creates a collector on the given registerer. Tests use
// a private registry to avoid duplicate-registration panics.
func NewCollectorWith(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of participant turns",
		},
		[]string{"participant", "status"},
	)

	c.turnDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Turn execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"participant"},
	)

	c.oracleTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Total number of decision oracle calls",
		},
		[]string{"kind", "status"},
	)

	c.oracleDur = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_call_duration_seconds",
			Help:      "Decision oracle call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 8, 15},
		},
		[]string{"kind"},
	)

	c.compactions = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compactions_total",
			Help:      "Total number of transcript compactions",
		},
	)

	c.redirects = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Total number of mid-sequence redirects",
		},
		[]string{"mode"},
	)

	c.roundDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Round duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	c.sessionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions by terminal state",
		},
		[]string{"terminal_state"},
	)

	c.sessionDur = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Session duration in seconds",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordTurn records one participant turn.
func (c *Collector) RecordTurn(participant, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.turnsTotal.WithLabelValues(participant, status).Inc()
	c.turnDuration.WithLabelValues(participant).Observe(duration.Seconds())
}

// RecordOracleCall records one decision oracle call.
func (c *Collector) RecordOracleCall(kind, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.oracleTotal.WithLabelValues(kind, status).Inc()
	c.oracleDur.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCompaction records one transcript compaction.
func (c *Collector) RecordCompaction() {
	if c == nil {
		return
	}
	c.compactions.Inc()
}

// RecordRedirect records one mid-sequence redirect.
func (c *Collector) RecordRedirect(mode string) {
	if c == nil {
		return
	}
	c.redirects.WithLabelValues(mode).Inc()
}

// RecordRound records one completed round.
func (c *Collector) RecordRound(duration time.Duration) {
	if c == nil {
		return
	}
	c.roundDuration.Observe(duration.Seconds())
}

// RecordSession records one terminated session.
func (c *Collector) RecordSession(terminalState string, duration time.Duration) {
	if c == nil {
		return
	}
	c.sessionsTotal.WithLabelValues(terminalState).Inc()
	c.sessionDur.Observe(duration.Seconds())
}
