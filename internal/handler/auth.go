package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/snipbin/internal/apperror"
	"github.com/sakif/snipbin/internal/auth"
	"github.com/sakif/snipbin/internal/session"
)

// errBadForm wraps an unparseable request body as a validation error.
func errBadForm(err error) error {
	return apperror.ValidationFailed("body", fmt.Sprintf("malformed form body: %v", err))
}

// errNoSession covers the case of a request reaching a handler without
// the session middleware having run; it maps to 403 like any other token
// failure.
func errNoSession() error {
	return apperror.TokenInvalid("no session")
}

// AuthHandler serves login and logout for the admin area.
//
// There is no user model: a single configured bcrypt hash guards the
// whole admin surface, and a successful comparison flips the session's
// authenticated flag.
type AuthHandler struct {
	passwords    *auth.PasswordService
	sessions     *session.Manager
	passwordHash string
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. passwordHash is the bcrypt hash
// from config (see cmd/hashpw).
func NewAuthHandler(ps *auth.PasswordService, m *session.Manager, passwordHash string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		passwords:    ps,
		sessions:     m,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

// HandleLogin compares the submitted password against the configured
// hash and marks the session authenticated on success.
//
// HTTP: POST /login, form field `password`. Token-guarded by the router
// (login is a mutating request).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, errBadForm(err))
		return
	}

	id, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, errNoSession())
		return
	}

	password := r.Form.Get("password")
	if password == "" {
		writeError(w, r, apperror.ValidationFailed("password", "password is required"))
		return
	}

	if err := h.passwords.Verify(h.passwordHash, password); err != nil {
		h.logger.Warn("failed admin login", slog.String("remote", r.RemoteAddr))
		writeError(w, r, apperror.Unauthenticated("invalid password"))
		return
	}

	if err := h.sessions.SetAuthenticated(id, true); err != nil {
		writeError(w, r, err)
		return
	}

	h.logger.Info("admin login", slog.String("session", id))
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// HandleLogout clears the session's authenticated flag.
//
// HTTP: POST /logout. Token-guarded by the router.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, errNoSession())
		return
	}

	if err := h.sessions.SetAuthenticated(id, false); err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
