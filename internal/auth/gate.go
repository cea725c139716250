// Package auth implements the admin gate: one shared password unlocks the
// mutation surface for a browser session. It hides affordances from casual
// visitors and is not a security boundary.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadPassword = errors.New("senha incorreta")

type Gate struct {
	hash   []byte
	secret string
	secure bool

	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewGate hashes password once so the plain secret is not kept in memory.
// secure marks the session cookie HTTPS only.
func NewGate(password, secret string, secure bool) (*Gate, error) {
	if password == "" {
		return nil, errors.New("admin password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Gate{
		hash:     hash,
		secret:   secret,
		secure:   secure,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}, nil
}

// Login starts an admin session when password matches.
func (g *Gate) Login(w http.ResponseWriter, password string) error {
	if bcrypt.CompareHashAndPassword(g.hash, []byte(password)) != nil {
		return ErrBadPassword
	}
	id := uuid.NewString()

	g.mu.Lock()
	now := g.now()
	for sid, exp := range g.sessions {
		if !exp.After(now) {
			delete(g.sessions, sid)
		}
	}
	g.sessions[id] = now.Add(SessionMaxAge)
	g.mu.Unlock()

	SetSessionCookie(w, id, g.secret, g.secure)
	return nil
}

func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := GetSessionID(r, g.secret); ok {
		g.mu.Lock()
		delete(g.sessions, id)
		g.mu.Unlock()
	}
	ClearSessionCookie(w)
}

// Authenticated reports whether r carries a live admin session.
func (g *Gate) Authenticated(r *http.Request) bool {
	id, ok := GetSessionID(r, g.secret)
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.sessions[id]
	if !ok {
		return false
	}
	if !exp.After(g.now()) {
		delete(g.sessions, id)
		return false
	}
	return true
}

// Middleware records the admin flag in the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithAdmin(r.Context(), g.Authenticated(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
