package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records movement commits, rejected mutations, and the
// latency of the atomic checkout/receipt paths.
type LedgerMetrics struct {
	movements *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	conflicts prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_committed_total",
		Help: "Committed stock movements by type.",
	}, []string{"type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_mutations_rejected_total",
		Help: "Rejected ledger mutations by error code.",
	}, []string{"code"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_lock_conflicts_total",
		Help: "Per-product lock waits that timed out.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of atomic ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(movements, rejected, conflicts, duration)
	return &LedgerMetrics{
		movements: movements,
		rejected:  rejected,
		conflicts: conflicts,
		duration:  duration,
	}
}

// IncMovement counts one committed movement of the given type.
func (m *LedgerMetrics) IncMovement(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncRejected counts one rejected mutation by taxonomy code.
func (m *LedgerMetrics) IncRejected(code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncConflict counts one bounded-wait lock timeout.
func (m *LedgerMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// ObserveDuration records the duration of the named atomic operation.
func (m *LedgerMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
