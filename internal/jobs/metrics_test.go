package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	if err := metrics.Track("drawer:sweep").End(nil); err != nil {
		t.Fatalf("expected nil passthrough, got %v", err)
	}
	wantErr := errors.New("boom")
	if err := metrics.Track("drawer:sweep").End(wantErr); err != wantErr {
		t.Fatalf("expected error passthrough, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("drawer:sweep", "success")); got != 1 {
		t.Fatalf("expected 1 success run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("drawer:sweep", "failure")); got != 1 {
		t.Fatalf("expected 1 failure run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("drawer:sweep")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestAddStaleDrawersAccumulates(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.AddStaleDrawers(3)
	metrics.AddStaleDrawers(0)
	metrics.AddStaleDrawers(-1)
	metrics.AddStaleDrawers(2)

	if got := testutil.ToFloat64(metrics.staleDrawers); got != 5 {
		t.Fatalf("expected counter at 5, got %v", got)
	}
}
