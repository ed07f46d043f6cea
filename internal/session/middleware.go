package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// session ID in a request context.
type contextKey string

const sessionIDKey contextKey = "sessionID"

// FromContext returns the session ID attached by Attach.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

// TokenField is the form field checked for the anti-forgery token;
// TokenHeader is the header alternative for JSON callers.
const (
	TokenField  = "csrfToken"
	TokenHeader = "X-CSRF-Token"
)

// Attach ensures every request runs with a live session: it decodes the
// cookie, mints a replacement session when the cookie is absent, invalid
// or expired, and stores the session ID in the request context.
func Attach(m *Manager, codec *CookieCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := codec.Decode(r)
			if err != nil || !m.Valid(id) {
				id = m.Create()
				// Best effort: if the cookie cannot be written the
				// request still runs, it just gets a new session next
				// time.
				_ = codec.Encode(w, id)
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireToken gates mutating requests on the session's current CSRF
// token. The token is read from the csrfToken form field or the
// X-CSRF-Token header. Rejection happens here, before any handler or
// store code runs, with the dedicated stale-token error shape and 403.
func RequireToken(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				rejectToken(w, "no session")
				return
			}

			presented := r.Header.Get(TokenHeader)
			if presented == "" {
				// ParseForm reads both the body and the query string for
				// POST forms; the token may arrive either way.
				if err := r.ParseForm(); err == nil {
					presented = r.Form.Get(TokenField)
				}
			}

			if err := m.Validate(id, presented); err != nil {
				rejectToken(w, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectToken writes the dedicated stale-token 403. Kept distinct from
// the generic error writer so the guard has no dependency on the handler
// package.
func rejectToken(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "stale_token",
		"message": message,
	})
}

// RequireAuth gates admin routes on the session's authenticated flag.
// Browsers are redirected to the login page; JSON callers get a 401.
func RequireAuth(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok || !m.Authenticated(id) {
				if wantsJSON(r) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success": false,
						"error":   "unauthenticated",
						"message": "login required",
					})
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
