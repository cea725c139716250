// Package cleanup sweeps layout images that no layout references any more.
// A background replace that fails between saving the layout and removing the
// old image leaves such an orphan behind.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/denissonlm/AcoCameras/internal/blob"
	"github.com/denissonlm/AcoCameras/internal/metrics"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
)

type Bucket interface {
	List(ctx context.Context) ([]blob.Object, error)
	Remove(ctx context.Context, keys ...string) error
	KeyFromURL(u string) (string, bool)
}

type Snapshots interface {
	Current() snapshot.Snapshot
	Refresh(ctx context.Context) error
}

// Cleaner removes unreferenced objects older than Grace every Interval. Grace
// keeps an image uploaded moments ago, whose layout write has not landed yet.
type Cleaner struct {
	Bucket   Bucket
	Cache    Snapshots
	Interval time.Duration
	Grace    time.Duration
	Now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func (c *Cleaner) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx)
	slog.Info("cleanup scheduler started", "interval", c.Interval, "grace", c.Grace)
}

func (c *Cleaner) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	slog.Info("cleanup scheduler stopped")
}

func (c *Cleaner) loop(ctx context.Context) {
	defer close(c.done)

	c.RunOnce(ctx)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and returns the number of removed objects.
func (c *Cleaner) RunOnce(ctx context.Context) int {
	// A fresh read keeps a layout saved since the last refresh from losing
	// its image.
	if err := c.Cache.Refresh(ctx); err != nil {
		slog.Error("cleanup: refresh snapshot, skipping sweep", "error", err)
		return 0
	}
	referenced := make(map[string]struct{})
	for _, l := range c.Cache.Current().Layouts {
		if !l.HasBackground() {
			continue
		}
		if key, ok := c.Bucket.KeyFromURL(*l.BackgroundImageURL); ok {
			referenced[key] = struct{}{}
		}
	}

	objects, err := c.Bucket.List(ctx)
	if err != nil {
		slog.Error("cleanup: list layout images", "error", err)
		return 0
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cutoff := now().Add(-c.Grace)
	var orphans []string
	for _, o := range objects {
		if _, ok := referenced[o.Key]; ok || o.ModTime.After(cutoff) {
			continue
		}
		orphans = append(orphans, o.Key)
	}
	if len(orphans) == 0 {
		return 0
	}

	if err := c.Bucket.Remove(ctx, orphans...); err != nil {
		metrics.BlobCleanupFailures.Inc()
		slog.Warn("cleanup: remove orphaned layout images", "keys", orphans, "error", err)
		return 0
	}
	metrics.BlobsSwept.Add(float64(len(orphans)))
	slog.Info("cleanup: removed orphaned layout images", "count", len(orphans))
	return len(orphans)
}
