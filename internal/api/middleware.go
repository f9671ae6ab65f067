package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mixelka/inboxlens/internal/session"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	loggerKey
)

// requestID tags the request with an id and a logger carrying it
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestHeader, id)

		logger := s.logger.With("request_id", id)
		ctx := context.WithValue(r.Context(), loggerKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withSession resolves the caller's session: header first, then cookie, else a new one.
// Unknown but well-formed ids are recreated so each browser tab keeps its own session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := presentedSessionID(r)

		switch {
		case id != "" && s.sessions.IsValid(ctx, id):
		case session.ValidID(id):
			if _, err := s.sessions.CreateWithID(ctx, id); err != nil {
				s.fail(w, r, err)
				return
			}
			requestLogger(r).Info("session recreated")
		default:
			created, err := s.sessions.Create(ctx)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			id = created
		}

		s.setSessionCookie(w, id)
		w.Header().Set(SessionHeader, id)

		ctx = context.WithValue(ctx, sessionKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func presentedSessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	ttl := s.sessions.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey).(string)
	return id
}

func requestLogger(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
