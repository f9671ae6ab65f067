package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mixelka/inboxlens/internal/apperr"
)

// ProviderName identifies the completion backend in the provider endpoint
const ProviderName = "openai"

// Completion is a single-prompt completion request
type Completion struct {
	Model     string
	Prompt    string
	MaxTokens int64
}

// Completer produces text for a prompt
type Completer interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

var _ Completer = (*OpenAIProvider)(nil)

// OpenAIProvider completes prompts against any OpenAI-compatible chat endpoint
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider. baseURL may be empty for the default endpoint.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is not configured", apperr.ErrAIProviderUnavailable)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client}, nil
}

// Complete sends the prompt as a single user message
func (p *OpenAIProvider) Complete(ctx context.Context, req Completion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Model: req.Model,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return completion.Choices[0].Message.Content, nil
}
