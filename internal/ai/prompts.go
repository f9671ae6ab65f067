package ai

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Prompt names
const (
	PromptSummarization = "summarization"
	PromptResponse      = "response_generation"
)

const unknownVersion = "unknown"

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptConfig model settings stored alongside the prompts
type PromptConfig struct {
	Model                  string `yaml:"model"`
	MaxTokensSummarization int64  `yaml:"max_tokens_summarization"`
	MaxTokensResponse      int64  `yaml:"max_tokens_response"`
}

type promptEntry struct {
	Template       string `yaml:"template"`
	CurrentVersion string `yaml:"current_version"`
}

type promptFile struct {
	Prompts map[string]promptEntry `yaml:"prompts"`
	Config  PromptConfig           `yaml:"config"`
}

// Prompts is a parsed set of versioned prompt templates
type Prompts struct {
	templates map[string]*template.Template
	versions  map[string]string
	config    PromptConfig
}

// LoadPrompts reads prompts from path, or the built-in set when path is empty
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return ParsePrompts(defaultPrompts)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts parses a YAML prompts document
func ParsePrompts(data []byte) (*Prompts, error) {
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	for _, required := range []string{PromptSummarization, PromptResponse} {
		if _, ok := file.Prompts[required]; !ok {
			return nil, fmt.Errorf("prompt %q not found", required)
		}
	}

	p := &Prompts{
		templates: make(map[string]*template.Template, len(file.Prompts)),
		versions:  make(map[string]string, len(file.Prompts)),
		config:    file.Config,
	}

	for name, entry := range file.Prompts {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %q: %w", name, err)
		}
		p.templates[name] = tmpl

		version := entry.CurrentVersion
		if version == "" {
			version = unknownVersion
		}
		p.versions[name] = version
	}

	if p.config.MaxTokensSummarization <= 0 {
		p.config.MaxTokensSummarization = 500
	}
	if p.config.MaxTokensResponse <= 0 {
		p.config.MaxTokensResponse = 300
	}

	return p, nil
}

// Has reports whether a prompt exists
func (p *Prompts) Has(name string) bool {
	_, ok := p.templates[name]
	return ok
}

// Render executes the named prompt with data
func (p *Prompts) Render(name string, data any) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", name, err)
	}
	return sb.String(), nil
}

// Version returns the current version of a prompt
func (p *Prompts) Version(name string) string {
	if v, ok := p.versions[name]; ok {
		return v
	}
	return unknownVersion
}

// Versions returns every prompt name with its current version
func (p *Prompts) Versions() map[string]string {
	out := make(map[string]string, len(p.versions))
	for k, v := range p.versions {
		out[k] = v
	}
	return out
}

// Names returns the prompt names, sorted
func (p *Prompts) Names() []string {
	names := make([]string, 0, len(p.templates))
	for name := range p.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the model settings
func (p *Prompts) Config() PromptConfig {
	return p.config
}
