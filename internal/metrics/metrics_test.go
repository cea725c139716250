package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRefreshOutcomes(t *testing.T) {
	okBefore := testutil.ToFloat64(SnapshotRefreshes.WithLabelValues("ok"))
	partialBefore := testutil.ToFloat64(SnapshotRefreshes.WithLabelValues("partial"))
	staleBefore := testutil.ToFloat64(SnapshotRefreshes.WithLabelValues("stale"))

	RecordRefresh(5*time.Millisecond, nil, false)
	RecordRefresh(5*time.Millisecond, errors.New("no such table"), false)
	RecordRefresh(5*time.Millisecond, nil, true)

	if got := testutil.ToFloat64(SnapshotRefreshes.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SnapshotRefreshes.WithLabelValues("partial")) - partialBefore; got != 1 {
		t.Errorf("partial delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SnapshotRefreshes.WithLabelValues("stale")) - staleBefore; got != 1 {
		t.Errorf("stale delta = %v, want 1", got)
	}
}

func TestRecordMutationFailureDefaultsKind(t *testing.T) {
	before := testutil.ToFloat64(MutationFailures.WithLabelValues("unknown"))
	RecordMutationFailure("")
	if got := testutil.ToFloat64(MutationFailures.WithLabelValues("unknown")) - before; got != 1 {
		t.Errorf("unknown delta = %v, want 1", got)
	}
}

func TestRecordUpload(t *testing.T) {
	before := testutil.ToFloat64(LayoutUploads.WithLabelValues("permission"))
	RecordUpload("permission")
	if got := testutil.ToFloat64(LayoutUploads.WithLabelValues("permission")) - before; got != 1 {
		t.Errorf("permission delta = %v, want 1", got)
	}
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer,
		"acocameras_snapshot_refreshes_total",
		"acocameras_mutation_failures_total",
		"acocameras_layout_uploads_total",
	)
	if err != nil {
		t.Fatalf("GatherAndLint: %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint %s: %s", p.Metric, p.Text)
	}
}
