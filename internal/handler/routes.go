package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denissonlm/AcoCameras/internal/blob"
	"github.com/denissonlm/AcoCameras/internal/fleet"
)

// Routes is the full HTTP surface with CSRF protection on unsafe methods.
func (h *Handler) Routes() http.Handler {
	csrfProtect := csrf.Protect(
		[]byte(h.Cfg.SessionSecret),
		csrf.Secure(strings.HasPrefix(h.Cfg.BaseURL, "https")),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)
	return csrfProtect(h.API())
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	writeError(w, &fleet.Error{
		Kind:    fleet.KindPolicy,
		Message: "Token CSRF ausente ou inválido: " + csrf.FailureReason(r).Error(),
	}, "")
}

// API is the router without CSRF protection.
func (h *Handler) API() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(h.Gate.Middleware)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	images := filepath.Join(h.Cfg.DataDir, "blobs", blob.LayoutsBucket)
	prefix := "/blobs/" + blob.LayoutsBucket + "/"
	r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(images))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", h.Snapshot)
		r.Get("/stats", h.Stats)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/filters", h.FilterTransition)
		r.Get("/layouts/{divisionID}", h.LayoutGet)
		r.Get("/channels/{id}/logs", h.ChannelLogs)
		r.Get("/events", h.Events)
		r.Get("/report", h.ReportDownload)
		r.Post("/report", h.ReportDownload)
		r.Post("/refresh", h.Refresh)

		r.Get("/admin/session", h.AdminSession)
		r.Group(func(r chi.Router) {
			if h.LoginRL != nil {
				r.Use(h.LoginRL.Middleware)
			}
			r.Post("/admin/login", h.AdminLogin)
		})
		r.Post("/admin/logout", h.AdminLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Get("/admin/storage", h.AdminStorageJSON)

			r.Post("/divisions", h.DivisionCreate)
			r.Put("/divisions/{id}", h.DivisionUpdate)
			r.Delete("/divisions/{id}", h.DivisionDelete)

			r.Post("/devices", h.DeviceCreate)
			r.Put("/devices/{id}", h.DeviceUpdate)
			r.Delete("/devices/{id}", h.DeviceDelete)
			r.Post("/devices/{id}/channels", h.ChannelCreate)
			r.Post("/devices/{id}/channels/auto", h.ChannelsAutoCreate)

			r.Put("/channels/{id}", h.ChannelRename)
			r.Delete("/channels/{id}", h.ChannelDelete)
			r.Post("/channels/{id}/action", h.ChannelTakeAction)
			r.Put("/channels/{id}/status", h.ChannelSetStatus)
			r.Post("/channels/{id}/logs", h.LogCreate)
			r.Put("/logs/{id}", h.LogUpdate)
			r.Delete("/logs/{id}", h.LogDelete)

			r.Post("/layouts/{divisionID}/cameras", h.LayoutPlace)
			r.Put("/layouts/{divisionID}/cameras/{channelID}/position", h.LayoutMove)
			r.Post("/layouts/{divisionID}/cameras/{channelID}/rotate", h.LayoutRotate)
			r.Post("/layouts/{divisionID}/cameras/{channelID}/flip", h.LayoutFlip)
			r.Delete("/layouts/{divisionID}/cameras/{channelID}", h.LayoutRemove)
			r.Post("/layouts/{divisionID}/background", h.LayoutBackgroundUpload)
			r.Post("/layouts/{divisionID}/background/rotate", h.LayoutBackgroundRotate)
			r.Post("/layouts/{divisionID}/background/reset", h.LayoutBackgroundReset)
		})
	})

	return r
}
