// Package server wires the application together: config to store backend
// to service to handlers, plus the middleware chain and route table. It
// is the only place dependencies are assembled.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snipbin/internal/auth"
	"github.com/sakif/snipbin/internal/config"
	"github.com/sakif/snipbin/internal/handler"
	"github.com/sakif/snipbin/internal/middleware"
	"github.com/sakif/snipbin/internal/service"
	"github.com/sakif/snipbin/internal/session"
	"github.com/sakif/snipbin/internal/store"
	"github.com/sakif/snipbin/internal/store/fsstore"
	"github.com/sakif/snipbin/internal/store/sqlitestore"
)

// Server owns the router and the store handle; the store is closed during
// graceful shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
}

// newStore builds the configured backend. The rest of the program only
// ever sees the store.Store interface.
func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return fsstore.New(cfg.Store.Path)
	case config.BackendSQLite:
		return sqlitestore.New(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// New assembles the server from config.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  st,
	}
	if err := s.setupRoutes(); err != nil {
		st.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes builds the middleware chain and the route table.
//
// Route map:
//
//	GET  /search          public   search results (JSON)
//	GET  /snippets/{file} public   single record (JSON)
//	GET  /get-csrf        public   current anti-forgery token
//	POST /submit          token    create snippet
//	POST /refresh-csrf    session  rotate token
//	POST /login           token    admin login
//	POST /logout          token    admin logout
//	GET  /admin           session  full listing (JSON)
//	POST /edit            both     update snippet
//	POST /delete          both     delete snippet
func (s *Server) setupRoutes() error {
	sessions := session.NewManager(s.cfg.Auth.SessionTTL)

	secret := s.cfg.Auth.SessionSecret
	if secret == "" {
		// No configured secret: sessions are still well-formed, they just
		// do not survive a restart. Fine for development, loud in logs.
		var err error
		secret, err = randomSecret()
		if err != nil {
			return fmt.Errorf("generating session secret: %w", err)
		}
		s.logger.Warn("SESSION_SECRET not set, sessions will not survive restarts")
	}
	codec, err := session.NewCookieCodec(secret, s.cfg.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating cookie codec: %w", err)
	}

	snippetService := service.NewSnippetService(s.store, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	tokenHandler := handler.NewTokenHandler(sessions, s.logger)
	authHandler := handler.NewAuthHandler(
		auth.NewPasswordService(), sessions, s.cfg.Auth.AdminPasswordHash, s.logger)

	if s.cfg.Auth.AdminPasswordHash == "" {
		s.logger.Warn("ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(session.Attach(sessions, codec))

	// Public reads and token minting.
	s.router.Get("/search", snippetHandler.HandleSearch)
	s.router.Get("/snippets/{file}", snippetHandler.HandleGet)
	s.router.Get("/get-csrf", tokenHandler.HandleGetCSRF)
	s.router.Post("/refresh-csrf", tokenHandler.HandleRefreshCSRF)

	// Mutations: every mutating verb sits behind the token guard. The
	// public submission form needs no login, only the token.
	s.router.Group(func(r chi.Router) {
		r.Use(session.RequireToken(sessions))
		r.Post("/submit", snippetHandler.HandleSubmit)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// Admin area: session authentication on top of the token guard.
	s.router.Group(func(r chi.Router) {
		r.Use(session.RequireAuth(sessions))
		r.Get("/admin", snippetHandler.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireToken(sessions))
			r.Post("/edit", snippetHandler.HandleEdit)
			r.Post("/delete", snippetHandler.HandleDelete)
		})
	})

	return nil
}

// randomSecret produces an ephemeral cookie-signing secret for
// deployments that did not configure one.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("backend", s.cfg.Store.Backend),
			slog.String("store_path", s.cfg.Store.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
