// Package api is the HTTP front controller.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"

	"github.com/mixelka/inboxlens/internal/ai"
	"github.com/mixelka/inboxlens/internal/mailbox"
	"github.com/mixelka/inboxlens/internal/session"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Session transport
const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "inboxlens_session"
	RequestHeader = "X-Request-ID"
)

// Deps dependencies for creating a server
type Deps struct {
	Sessions       *session.Manager
	Mailbox        *mailbox.Service
	AI             *ai.Service // nil when no provider could be configured
	FrontendURL    string
	AllowedOrigins []string
	SecureCookie   bool
	Logger         *slog.Logger
}

// Server serves the HTTP API
type Server struct {
	sessions     *session.Manager
	mailbox      *mailbox.Service
	ai           *ai.Service
	frontendURL  string
	origins      []string
	secureCookie bool
	logger       *slog.Logger
	router       chi.Router
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	s := &Server{
		sessions:     deps.Sessions,
		mailbox:      deps.Mailbox,
		ai:           deps.AI,
		frontendURL:  deps.FrontendURL,
		origins:      deps.AllowedOrigins,
		secureCookie: deps.SecureCookie,
		logger:       deps.Logger.With("component", "api"),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(cors.New(cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   s.origins,
		AllowedHeaders:   []string{"Content-Type", "Accept", SessionHeader},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		ExposedHeaders:   []string{SessionHeader, RequestHeader},
	}).Handler)

	r.Get("/health", s.handleHealth)

	// The callback is routed by its state parameter, not by cookie or header
	r.Get("/auth/gmail/callback", s.handleAuthCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Route("/auth/gmail", func(r chi.Router) {
			r.Get("/url", s.handleAuthURL)
			r.Get("/status", s.handleAuthStatus)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/api/emails", func(r chi.Router) {
			r.Get("/domains", s.handleDomains)
			r.Get("/domains/{domain}/emails", s.handleDomainEmails)
			r.Get("/messages/{id}", s.handleMessage)
			r.Post("/summarize", s.handleSummarize)
			r.Post("/generate-response", s.handleGenerateResponse)
			r.Post("/send-reply", s.handleSendReply)
		})

		r.Get("/api/ai/provider", s.handleAIProvider)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
