// Package ai summarizes emails and drafts replies through a chat completion provider.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

// ConfidenceScore is reported for every draft. It is not derived from the model.
const ConfidenceScore = 0.88

// Reply tones with a dedicated prompt
var tonePrompts = map[string]string{
	"formal":     "response_generation_formal",
	"friendly":   "response_generation_friendly",
	"urgent":     "response_generation_urgent",
	"apologetic": "response_generation_apologetic",
}

// ProviderInfo describes the active provider and prompt set
type ProviderInfo struct {
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	PromptVersions map[string]string `json:"prompt_versions"`
}

// Service orchestrates prompt rendering, completion and output parsing
type Service struct {
	prompts   *Prompts
	completer Completer
	model     string
	logger    *slog.Logger
}

// NewService creates a new AI service. model overrides the model named in the prompts file.
func NewService(prompts *Prompts, completer Completer, model string, logger *slog.Logger) *Service {
	if model == "" {
		model = prompts.Config().Model
	}
	return &Service{
		prompts:   prompts,
		completer: completer,
		model:     model,
		logger:    logger.With("component", "ai"),
	}
}

type promptData struct {
	Subject            string
	Sender             string
	ReceivedDate       string
	Body               string
	UserInput          string
	Tone               string
	OriginalSenderName string
	ReplySenderName    string
}

// Summarize produces a structured summary of email
func (s *Service) Summarize(ctx context.Context, email models.EmailMessage) (*models.EmailSummary, error) {
	prompt, err := s.prompts.Render(PromptSummarization, promptData{
		Subject:      email.Subject,
		Sender:       email.Sender,
		ReceivedDate: email.ReceivedAt.UTC().Format(time.RFC3339),
		Body:         email.Body,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, err := s.completer.Complete(ctx, Completion{
		Model:     s.model,
		Prompt:    prompt,
		MaxTokens: s.prompts.Config().MaxTokensSummarization,
	})
	if err != nil {
		s.logger.Error("summarization failed", "error", err)
		return nil, fmt.Errorf("%w: summarization: %v", apperr.ErrAIProviderCall, err)
	}

	parsed := parseSummary(content)
	if len(parsed.Defaults) > 0 {
		s.logger.Warn("summary fields missing from model output", "fields", parsed.Defaults)
	}

	s.logger.Info("email summarized",
		"prompt_version", s.prompts.Version(PromptSummarization),
		"urgency", parsed.Urgency,
		"action_required", parsed.ActionRequired,
		"duration", time.Since(start),
	)

	return &models.EmailSummary{
		Email:          email,
		Summary:        parsed.Summary,
		KeyPoints:      parsed.KeyPoints,
		ActionRequired: parsed.ActionRequired,
		Urgency:        parsed.Urgency,
		SuggestedTone:  parsed.Tone,
		Defaults:       parsed.Defaults,
	}, nil
}

// GenerateReply drafts a reply following the user's instructions.
// profiles may be nil; the signature then falls back to FallbackReplySender.
func (s *Service) GenerateReply(ctx context.Context, req models.ReplyRequest, profiles ProfileSource) (*models.ReplyDraft, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, fmt.Errorf("%w: user_input is required", apperr.ErrInvalidRequest)
	}

	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = DefaultTone
	}
	name := s.responsePrompt(tone)

	prompt, err := s.prompts.Render(name, promptData{
		Subject:            req.Email.Subject,
		Sender:             req.Email.Sender,
		Body:               req.Email.Body,
		UserInput:          req.UserInput,
		Tone:               tone,
		OriginalSenderName: SenderName(req.Email.Sender),
		ReplySenderName:    ReplySenderName(ctx, profiles),
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, err := s.completer.Complete(ctx, Completion{
		Model:     s.model,
		Prompt:    prompt,
		MaxTokens: s.prompts.Config().MaxTokensResponse,
	})
	if err != nil {
		s.logger.Error("response generation failed", "error", err, "prompt", name)
		return nil, fmt.Errorf("%w: response generation: %v", apperr.ErrAIProviderCall, err)
	}

	s.logger.Info("response generated",
		"prompt", name,
		"prompt_version", s.prompts.Version(name),
		"length", len(content),
		"duration", time.Since(start),
	)

	return &models.ReplyDraft{
		Email:           req.Email,
		UserInput:       req.UserInput,
		Body:            strings.TrimSpace(content),
		ConfidenceScore: ConfidenceScore,
	}, nil
}

// Info returns the provider name, model and prompt versions
func (s *Service) Info() ProviderInfo {
	return ProviderInfo{
		Provider:       ProviderName,
		Model:          s.model,
		PromptVersions: s.prompts.Versions(),
	}
}

// responsePrompt picks the tone-specific prompt, falling back to the generic one
func (s *Service) responsePrompt(tone string) string {
	if name, ok := tonePrompts[strings.ToLower(tone)]; ok && s.prompts.Has(name) {
		return name
	}
	return PromptResponse
}
