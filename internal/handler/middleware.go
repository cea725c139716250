package handler

import (
	"net/http"

	"github.com/denissonlm/AcoCameras/internal/auth"
	"github.com/denissonlm/AcoCameras/internal/fleet"
)

// RequireAdmin rejects requests without an unlocked admin session. It expects
// the gate middleware to have run.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, &fleet.Error{Kind: fleet.KindPolicy, Message: "Acesso restrito: entre no modo administrador para continuar."}, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAdmin(r *http.Request) bool {
	return auth.IsAdmin(r.Context())
}
