// Package agent wraps the Anthropic SDK behind the one opaque call the
// orchestration core depends on: a prompt goes in, text or an error comes
// out. Workflow steps hold an *Agent; the core never sees it.
package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens bounds a completion when no option overrides it.
const DefaultMaxTokens = 4096

// Agent is a thin, synchronous wrapper over the Anthropic messages API.
type Agent struct {
	client    anthropic.Client
	model     anthropic.Model
	system    string
	maxTokens int64
}

// Config controls agent construction.
type Config struct {
	// Model is the model identifier; empty selects a default.
	Model anthropic.Model
	// APIKey overrides the ANTHROPIC_API_KEY environment variable.
	APIKey string
	// System is an optional system prompt prepended to every call.
	System string
	// MaxTokens bounds each completion; zero selects DefaultMaxTokens.
	MaxTokens int64
}

// New creates an agent. The API key comes from the config or the
// ANTHROPIC_API_KEY environment variable.
func New(cfg Config) (*Agent, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("agent: ANTHROPIC_API_KEY is not set")
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Agent{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		system:    cfg.System,
		maxTokens: maxTokens,
	}, nil
}

// Model returns the configured model identifier.
func (a *Agent) Model() anthropic.Model {
	return a.model
}

// Complete sends one prompt and returns the concatenated text blocks of the
// response.
func (a *Agent) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if a.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("agent: completion failed: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String(), nil
}
