package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

type fakeCompleter struct {
	mu       sync.Mutex
	requests []Completion
	reply    string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req Completion) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeCompleter) last() Completion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestService(t *testing.T, c Completer, model string) *Service {
	t.Helper()
	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	return NewService(prompts, c, model, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var sampleEmail = models.EmailMessage{
	ID:         "m1",
	Subject:    "Contract renewal",
	Body:       "Please sign the attached contract by Friday.",
	Sender:     "Jane Roe <jane@vendor.com>",
	ReceivedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	Priority:   models.PriorityHigh,
	Domain:     "vendor.com",
}

func TestSummarize(t *testing.T) {
	fc := &fakeCompleter{reply: "SUMMARY: Sign the contract.\nKEY POINTS:\n- Due Friday\nACTION REQUIRED: yes\nURGENCY: high\nTONE: formal"}
	svc := newTestService(t, fc, "")

	summary, err := svc.Summarize(context.Background(), sampleEmail)
	require.NoError(t, err)

	assert.Equal(t, sampleEmail, summary.Email)
	assert.Equal(t, "Sign the contract.", summary.Summary)
	assert.Equal(t, []string{"Due Friday"}, summary.KeyPoints)
	assert.True(t, summary.ActionRequired)
	assert.Equal(t, models.PriorityHigh, summary.Urgency)
	assert.Equal(t, "formal", summary.SuggestedTone)
	assert.Empty(t, summary.Defaults)

	req := fc.last()
	assert.Contains(t, req.Prompt, "Contract renewal")
	assert.Contains(t, req.Prompt, "Jane Roe <jane@vendor.com>")
	assert.Contains(t, req.Prompt, "2025-06-02T09:00:00Z")
	assert.Contains(t, req.Prompt, "Please sign the attached contract by Friday.")
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.EqualValues(t, 500, req.MaxTokens)
}

func TestSummarizeUnparseableOutput(t *testing.T) {
	svc := newTestService(t, &fakeCompleter{reply: "Sorry, I can't help with that."}, "")

	summary, err := svc.Summarize(context.Background(), sampleEmail)
	require.NoError(t, err)

	assert.Equal(t, DefaultSummary, summary.Summary)
	assert.Equal(t, []string{DefaultKeyPoint}, summary.KeyPoints)
	assert.Equal(t, models.PriorityMedium, summary.Urgency)
	assert.Equal(t, DefaultTone, summary.SuggestedTone)
	assert.Len(t, summary.Defaults, 5)
}

func TestSummarizeProviderError(t *testing.T) {
	svc := newTestService(t, &fakeCompleter{err: errors.New("429 rate limited")}, "")

	_, err := svc.Summarize(context.Background(), sampleEmail)
	assert.ErrorIs(t, err, apperr.ErrAIProviderCall)
}

func TestGenerateReply(t *testing.T) {
	fc := &fakeCompleter{reply: "  Dear Jane Roe,\n\nSigned and attached.\n\nKind regards,\nMary Jones\n"}
	svc := newTestService(t, fc, "override-model")

	profiles := staticProfile{profile: &models.UserProfile{Email: "mary.jones@example.com"}}
	draft, err := svc.GenerateReply(context.Background(), models.ReplyRequest{
		Email:     sampleEmail,
		UserInput: "tell her it is signed",
		Tone:      "Formal",
	}, profiles)
	require.NoError(t, err)

	assert.Equal(t, "Dear Jane Roe,\n\nSigned and attached.\n\nKind regards,\nMary Jones", draft.Body)
	assert.Equal(t, ConfidenceScore, draft.ConfidenceScore)
	assert.Equal(t, "tell her it is signed", draft.UserInput)

	req := fc.last()
	assert.Equal(t, "override-model", req.Model)
	assert.EqualValues(t, 300, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Dear Jane Roe,")
	assert.Contains(t, req.Prompt, "Mary Jones")
	assert.Contains(t, req.Prompt, "tell her it is signed")
}

func TestGenerateReplyToneSelection(t *testing.T) {
	tests := []struct {
		tone string
		want string
	}{
		{"", PromptResponse},
		{"professional", PromptResponse},
		{"friendly", "response_generation_friendly"},
		{"URGENT", "response_generation_urgent"},
		{"apologetic", "response_generation_apologetic"},
		{"sarcastic", PromptResponse},
	}

	svc := newTestService(t, &fakeCompleter{}, "")
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.responsePrompt(tt.tone), tt.tone)
	}
}

func TestGenerateReplyFallbackSignature(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	svc := newTestService(t, fc, "")

	_, err := svc.GenerateReply(context.Background(), models.ReplyRequest{Email: sampleEmail, UserInput: "ack"}, nil)
	require.NoError(t, err)

	req := fc.last()
	assert.Contains(t, req.Prompt, `signature "User"`)
	assert.Contains(t, req.Prompt, "Use a professional tone")
}

func TestGenerateReplyValidation(t *testing.T) {
	fc := &fakeCompleter{}
	svc := newTestService(t, fc, "")

	_, err := svc.GenerateReply(context.Background(), models.ReplyRequest{Email: sampleEmail, UserInput: "   "}, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
	assert.Empty(t, fc.requests)

	fc.err = errors.New("timeout")
	_, err = svc.GenerateReply(context.Background(), models.ReplyRequest{Email: sampleEmail, UserInput: "ok"}, nil)
	assert.ErrorIs(t, err, apperr.ErrAIProviderCall)
}

func TestInfo(t *testing.T) {
	svc := newTestService(t, &fakeCompleter{}, "")

	info := svc.Info()
	assert.Equal(t, ProviderName, info.Provider)
	assert.Equal(t, "gpt-4o-mini", info.Model)
	assert.Equal(t, "1.2", info.PromptVersions[PromptSummarization])
}
