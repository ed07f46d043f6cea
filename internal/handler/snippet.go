// Package handler is the HTTP boundary: it parses requests, calls the
// service, and renders JSON or redirects. No business rules live here and
// no markup is produced — page rendering is a separate front-end concern.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipbin/internal/query"
	"github.com/sakif/snipbin/internal/service"
	"github.com/sakif/snipbin/internal/session"
)

// SnippetHandler serves the snippet CRUD and search endpoints.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// createResponse is the body returned to JSON callers on submit.
type createResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// HandleSubmit creates a snippet from a public submission.
//
// HTTP: POST /submit, form fields `language` and `code`.
// Token-guarded but deliberately not session-authenticated: anyone may
// submit, nobody may forge a cross-site submission.
func (h *SnippetHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, errBadForm(err))
		return
	}

	// Presence and emptiness are different things here: an empty code
	// field is a valid (empty) snippet, an absent field is a bad request.
	codeValues, hasCode := r.Form["code"]
	code := ""
	if hasCode {
		code = codeValues[0]
	}

	snippet, err := h.service.Create(r.Context(), r.Form.Get("language"), code, hasCode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, createResponse{
			Success:  true,
			Message:  "snippet saved",
			Filename: snippet.Filename,
		})
		return
	}

	// Plain callers get the created identity directly.
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(snippet.Filename + "\n"))
}

// HandleSearch runs the query engine over the full snippet set.
//
// HTTP: GET /search?q=...&lang=...&sort=...
// Always JSON; unauthenticated.
func (h *SnippetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	lang := r.URL.Query().Get("lang")
	order := query.ParseOrder(r.URL.Query().Get("sort"))

	snippets, err := h.service.Search(r.Context(), q, lang, order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns a single record.
//
// HTTP: GET /snippets/{file}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.service.Get(r.Context(), chi.URLParam(r, "file"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleList returns the full listing for the admin area.
//
// HTTP: GET /admin?sort=...
// Session-guarded by the router.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	order := query.ParseOrder(r.URL.Query().Get("sort"))

	snippets, err := h.service.Search(r.Context(), "", "", order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleEdit updates a snippet's language and code.
//
// HTTP: POST /edit?file=..., form fields `language` and `code`; the file
// parameter is read from the query string first, the form body as a
// fallback. Session- and token-guarded by the router.
func (h *SnippetHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, errBadForm(err))
		return
	}

	file := r.URL.Query().Get("file")
	if file == "" {
		file = r.PostForm.Get("file")
	}

	_, err := h.service.Update(r.Context(), file, r.Form.Get("language"), r.Form.Get("code"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// HandleDelete removes a snippet.
//
// HTTP: POST /delete with `file` in the form body or the query string —
// both shapes are in use by callers and both are supported. Session- and
// token-guarded by the router.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, errBadForm(err))
		return
	}

	// r.Form already merges body and query parameters.
	file := r.Form.Get("file")

	if err := h.service.Delete(r.Context(), file); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// TokenHandler serves the CSRF token endpoints.
type TokenHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(m *session.Manager, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{sessions: m, logger: logger}
}

// HandleGetCSRF returns the session's current anti-forgery token, minting
// one if the session has none yet.
//
// HTTP: GET /get-csrf → {"csrfToken": "..."}
func (h *TokenHandler) HandleGetCSRF(w http.ResponseWriter, r *http.Request) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, errNoSession())
		return
	}

	token, err := h.sessions.Token(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// HandleRefreshCSRF rotates the session's token on demand.
//
// HTTP: POST /refresh-csrf → {"csrfToken": "..."}
func (h *TokenHandler) HandleRefreshCSRF(w http.ResponseWriter, r *http.Request) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, errNoSession())
		return
	}

	token, err := h.sessions.Refresh(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}
