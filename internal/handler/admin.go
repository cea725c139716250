package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/denissonlm/AcoCameras/internal/auth"
	"github.com/denissonlm/AcoCameras/internal/fleet"
)

type sessionResponse struct {
	Admin     bool   `json:"admin"`
	CSRFToken string `json:"csrf_token"`
}

// AdminSession reports the admin flag and hands out the CSRF token the
// client must echo in X-CSRF-Token on every mutation.
func (h *Handler) AdminSession(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, sessionResponse{Admin: isAdmin(r), CSRFToken: csrf.Token(r)})
}

type loginRequest struct {
	Password string `json:"password" label:"senha" validate:"required"`
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "entrar no modo administrador")
		return
	}
	if err := fleet.ValidateStruct(req); err != nil {
		writeError(w, err, "entrar no modo administrador")
		return
	}
	if err := h.Gate.Login(w, req.Password); err != nil {
		if errors.Is(err, auth.ErrBadPassword) {
			validationError(w, "Senha incorreta.")
			return
		}
		writeError(w, err, "entrar no modo administrador")
		return
	}
	jsonOK(w, sessionResponse{Admin: true, CSRFToken: csrf.Token(r)})
}

func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.Gate.Logout(w, r)
	jsonOK(w, sessionResponse{Admin: false, CSRFToken: csrf.Token(r)})
}
