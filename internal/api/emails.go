package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

type sendReplyRequest struct {
	Email *models.EmailMessage `json:"original_email"`
	Body  string               `json:"reply_body"`
}

type providerResponse struct {
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	Status         string            `json:"status"`
	PromptVersions map[string]string `json:"prompt_versions"`
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.mailbox.Domains(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleDomainEmails(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a positive integer", apperr.ErrInvalidRequest))
			return
		}
		limit = n
	}

	emails, err := s.mailbox.DomainEmails(r.Context(), sessionID(r), chi.URLParam(r, "domain"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if emails == nil {
		emails = []models.EmailMessage{}
	}
	s.respondJSON(w, http.StatusOK, emails)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	email, err := s.mailbox.Email(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, email)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		s.fail(w, r, apperr.ErrAIProviderUnavailable)
		return
	}

	var email models.EmailMessage
	if err := decode(w, r, &email); err != nil {
		s.fail(w, r, err)
		return
	}

	summary, err := s.ai.Summarize(r.Context(), email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGenerateResponse(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		s.fail(w, r, apperr.ErrAIProviderUnavailable)
		return
	}

	var req models.ReplyRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	draft, err := s.ai.GenerateReply(r.Context(), req, s.mailbox.ProfileSource(sessionID(r)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSendReply(w http.ResponseWriter, r *http.Request) {
	var req sendReplyRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.mailbox.SendReply(r.Context(), sessionID(r), req.Email, req.Body); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "Reply sent successfully"})
}

func (s *Server) handleAIProvider(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		s.fail(w, r, apperr.ErrAIProviderUnavailable)
		return
	}

	info := s.ai.Info()
	s.respondJSON(w, http.StatusOK, providerResponse{
		Provider:       info.Provider,
		Model:          info.Model,
		Status:         "active",
		PromptVersions: info.PromptVersions,
	})
}
