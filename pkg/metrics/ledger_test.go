package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLedgerMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.IncMovement("sale")
	m.IncMovement("sale")
	m.IncMovement("purchase")
	m.IncRejected("NEGATIVE_STOCK")
	m.IncConflict()
	m.ObserveDuration("checkout", 120*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	moves, ok := byName["ledger_movements_committed_total"]
	if !ok {
		t.Fatal("movements counter not registered")
	}
	total := 0.0
	for _, metric := range moves.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	if total != 3 {
		t.Fatalf("expected 3 movements counted, got %v", total)
	}

	if _, ok := byName["ledger_mutations_rejected_total"]; !ok {
		t.Fatal("rejected counter not registered")
	}
	if _, ok := byName["ledger_lock_conflicts_total"]; !ok {
		t.Fatal("conflict counter not registered")
	}
	if _, ok := byName["ledger_operation_duration_seconds"]; !ok {
		t.Fatal("duration histogram not registered")
	}
}

func TestNilRegistererIsInert(t *testing.T) {
	m := NewLedgerMetrics(nil)
	m.IncMovement("sale")
	m.IncRejected("VALIDATION_ERROR")
	m.IncConflict()
	m.ObserveDuration("refund", time.Second)
}

func TestNormalizeLabel(t *testing.T) {
	if normalizeLabel("") != "unknown" {
		t.Fatal("empty label should normalize")
	}
	if normalizeLabel("sale") != "sale" {
		t.Fatal("labels pass through")
	}
}
