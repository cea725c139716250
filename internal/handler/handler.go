// Package handler is the HTTP surface of the dashboard: read views derived
// from the snapshot, admin mutations and the change-feed stream.
package handler

import (
	"context"
	"time"

	"github.com/denissonlm/AcoCameras/internal/auth"
	"github.com/denissonlm/AcoCameras/internal/config"
	"github.com/denissonlm/AcoCameras/internal/diskstat"
	"github.com/denissonlm/AcoCameras/internal/fleet"
	"github.com/denissonlm/AcoCameras/internal/layout"
	"github.com/denissonlm/AcoCameras/internal/report"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
	"github.com/denissonlm/AcoCameras/internal/sse"
)

type Snapshots interface {
	Current() snapshot.Snapshot
	Refresh(ctx context.Context) error
}

type Handler struct {
	Cfg       *config.Config
	Cache     Snapshots
	Fleet     *fleet.Service
	Layouts   *layout.Service
	Report    *report.Renderer
	Gate      *auth.Gate
	SSE       *sse.Hub
	DiskCache *diskstat.Cache
	LoginRL   *RateLimiter
	Now       func() time.Time
}

func New(cfg *config.Config, cache Snapshots, fleetSvc *fleet.Service, layouts *layout.Service, renderer *report.Renderer, gate *auth.Gate, hub *sse.Hub) *Handler {
	return &Handler{
		Cfg:     cfg,
		Cache:   cache,
		Fleet:   fleetSvc,
		Layouts: layouts,
		Report:  renderer,
		Gate:    gate,
		SSE:     hub,
		Now:     time.Now,
	}
}

func (h *Handler) diskThresholds() diskstat.Thresholds {
	return diskstat.Thresholds{
		YellowPct: h.Cfg.DiskWarnYellowPct,
		RedPct:    h.Cfg.DiskWarnRedPct,
		BlockPct:  h.Cfg.DiskWarnBlockPct,
	}
}
