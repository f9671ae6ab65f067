package ai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultPrompts(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)

	for _, name := range []string{PromptSummarization, PromptResponse} {
		assert.True(t, p.Has(name), name)
	}
	for _, name := range tonePrompts {
		assert.True(t, p.Has(name), name)
	}

	assert.Equal(t, "1.2", p.Version(PromptSummarization))
	assert.Equal(t, unknownVersion, p.Version("missing"))
	assert.Len(t, p.Versions(), len(p.Names()))
	assert.NotEmpty(t, p.Config().Model)
}

func TestLoadPromptsFromFile(t *testing.T) {
	doc := `
config:
  model: local-model
prompts:
  summarization:
    template: "Summarize {{.Subject}}"
  response_generation:
    current_version: "7"
    template: "Reply to {{.Sender}}"
`
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	p, err := LoadPrompts(path)
	require.NoError(t, err)

	assert.Equal(t, "local-model", p.Config().Model)
	assert.EqualValues(t, 500, p.Config().MaxTokensSummarization)
	assert.EqualValues(t, 300, p.Config().MaxTokensResponse)
	assert.Equal(t, unknownVersion, p.Version(PromptSummarization))
	assert.Equal(t, "7", p.Version(PromptResponse))

	out, err := p.Render(PromptSummarization, promptData{Subject: "Invoice"})
	require.NoError(t, err)
	assert.Equal(t, "Summarize Invoice", out)
}

func TestParsePromptsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "prompts: [unclosed"},
		{"missing summarization", "prompts:\n  response_generation:\n    template: x\n"},
		{"bad template", "prompts:\n  summarization:\n    template: \"{{.Subject\"\n  response_generation:\n    template: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrompts([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestRenderUnknownField(t *testing.T) {
	p, err := ParsePrompts([]byte("prompts:\n  summarization:\n    template: \"{{.Nope}}\"\n  response_generation:\n    template: x\n"))
	require.NoError(t, err)

	_, err = p.Render(PromptSummarization, promptData{})
	assert.Error(t, err)

	_, err = p.Render("missing", promptData{})
	assert.Error(t, err)
}
