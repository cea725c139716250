package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	acocameras "github.com/denissonlm/AcoCameras"
	"github.com/denissonlm/AcoCameras/internal/auth"
	"github.com/denissonlm/AcoCameras/internal/blob"
	"github.com/denissonlm/AcoCameras/internal/cleanup"
	"github.com/denissonlm/AcoCameras/internal/config"
	"github.com/denissonlm/AcoCameras/internal/db"
	"github.com/denissonlm/AcoCameras/internal/diskstat"
	"github.com/denissonlm/AcoCameras/internal/fleet"
	"github.com/denissonlm/AcoCameras/internal/gateway"
	"github.com/denissonlm/AcoCameras/internal/handler"
	"github.com/denissonlm/AcoCameras/internal/layout"
	"github.com/denissonlm/AcoCameras/internal/report"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
	"github.com/denissonlm/AcoCameras/internal/sse"
)

func Run(ctx context.Context, cfg *config.Config) error {
	// Ensure data directories exist
	for _, dir := range []string{cfg.DataDir, filepath.Join(cfg.DataDir, "db"), filepath.Join(cfg.DataDir, "blobs")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, acocameras.MigrationFS); err != nil {
		return err
	}
	slog.Info("database ready", "read_only", cfg.ReadOnly)

	// Change feed shared by the snapshot watcher and SSE clients
	sseHub := sse.New()
	defer sseHub.Close()

	store := gateway.New(database, sseHub, cfg.ReadOnly)
	bucket, err := blob.NewFS(cfg.DataDir, blob.LayoutsBucket, cfg.BaseURL)
	if err != nil {
		return err
	}
	bucket.ReadOnly = cfg.ReadOnly

	// Tables that fail to load start empty; the feed watcher and manual
	// refresh resync them later.
	cache := snapshot.New(store)
	if err := cache.Refresh(ctx); err != nil {
		slog.Warn("initial snapshot load", "error", err)
	}
	snap := cache.Current()
	slog.Info("snapshot loaded", "divisions", len(snap.Divisions), "devices", len(snap.Devices))

	feed, unsubscribe := store.Subscribe()
	defer unsubscribe()
	go cache.Watch(ctx, feed)

	fleetSvc := fleet.NewService(store, cache)
	layouts := layout.NewService(store, bucket, cache)

	templateFS, err := fs.Sub(acocameras.TemplateFS, "templates")
	if err != nil {
		return err
	}
	renderer, err := report.New(templateFS, cfg.ReportSignature)
	if err != nil {
		return err
	}

	secure := strings.HasPrefix(cfg.BaseURL, "https")
	gate, err := auth.NewGate(cfg.AdminPassword, cfg.SessionSecret, secure)
	if err != nil {
		return err
	}

	// Start orphaned image sweeper
	cleaner := &cleanup.Cleaner{
		Bucket:   bucket,
		Cache:    cache,
		Interval: time.Duration(cfg.CleanupIntervalMins) * time.Minute,
		Grace:    time.Duration(cfg.OrphanGraceMins) * time.Minute,
		Now:      time.Now,
	}
	if !cfg.ReadOnly {
		cleaner.Start(ctx)
		defer cleaner.Stop()
	}

	// Rate limiter for admin login: 5 requests/minute, burst of 5
	loginRL := handler.NewRateLimiter(5.0/60.0, 5)
	defer loginRL.Stop()

	diskCache := diskstat.New(cfg.DataDir, 60*time.Second)
	diskCache.Start()
	defer diskCache.Stop()

	h := handler.New(cfg, cache, fleetSvc, layouts, renderer, gate, sseHub)
	h.DiskCache = diskCache
	h.LoginRL = loginRL

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
