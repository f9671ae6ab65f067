package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/mixelka/inboxlens/internal/apperr"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "inboxlens",
		"version": Version,
	})
}

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	s.respondJSON(w, http.StatusOK, map[string]string{
		"auth_url":   s.mailbox.AuthURL(id),
		"session_id": id,
	})
}

// handleAuthCallback completes the OAuth flow and sends the browser back to the frontend
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	logger := requestLogger(r)

	if reason := q.Get("error"); reason != "" {
		logger.Warn("authorization declined", "reason", reason)
		s.redirectFrontend(w, r, "error", reason)
		return
	}

	if err := s.mailbox.CompleteAuth(r.Context(), q.Get("code"), state); err != nil {
		logger.Warn("authorization failed", "error", err)
		s.redirectFrontend(w, r, "error", callbackReason(err))
		return
	}

	s.setSessionCookie(w, state)
	s.redirectFrontend(w, r, "success", "")
}

func callbackReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrAuthorizationFailed):
		return "authentication_failed"
	case errors.Is(err, apperr.ErrInvalidRequest):
		return "invalid_state"
	default:
		return "internal_error"
	}
}

func (s *Server) redirectFrontend(w http.ResponseWriter, r *http.Request, outcome, message string) {
	target, err := url.Parse(s.frontendURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := target.Query()
	q.Set("auth", outcome)
	if message != "" {
		q.Set("message", message)
	}
	target.RawQuery = q.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.mailbox.Status(r.Context(), sessionID(r)))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.mailbox.Logout(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out from Gmail"})
}
