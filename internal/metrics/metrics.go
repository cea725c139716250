// Package metrics exposes prometheus instrumentation for the dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acocameras_snapshot_refreshes_total",
			Help: "Total number of snapshot refreshes by outcome",
		},
		[]string{"outcome"}, // "ok", "partial", "stale"
	)

	SnapshotRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "acocameras_snapshot_refresh_duration_seconds",
			Help:    "Duration of full snapshot refreshes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MutationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acocameras_mutation_failures_total",
			Help: "Total number of rejected mutations by error kind",
		},
		[]string{"kind"},
	)

	LayoutUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acocameras_layout_uploads_total",
			Help: "Total number of layout background uploads by outcome",
		},
		[]string{"outcome"}, // "ok", "permission", "transport", "url", "disk_full"
	)

	BlobCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "acocameras_blob_cleanup_failures_total",
			Help: "Total number of layout images that could not be removed",
		},
	)

	BlobsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "acocameras_blobs_swept_total",
			Help: "Total number of orphaned layout images removed by the sweeper",
		},
	)

	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "acocameras_feed_subscribers",
			Help: "Current number of change feed subscribers",
		},
	)
)

// RecordRefresh records one snapshot refresh. Stale refreshes finished after
// a newer one and were discarded.
func RecordRefresh(duration time.Duration, err error, stale bool) {
	SnapshotRefreshDuration.Observe(duration.Seconds())
	switch {
	case stale:
		SnapshotRefreshes.WithLabelValues("stale").Inc()
	case err != nil:
		SnapshotRefreshes.WithLabelValues("partial").Inc()
	default:
		SnapshotRefreshes.WithLabelValues("ok").Inc()
	}
}

func RecordMutationFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	MutationFailures.WithLabelValues(kind).Inc()
}

func RecordUpload(outcome string) {
	LayoutUploads.WithLabelValues(outcome).Inc()
}
