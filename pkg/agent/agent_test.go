package agent_test

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundswell-ai/groundswell/pkg/agent"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := agent.New(agent.Config{})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	a, err := agent.New(agent.Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, anthropic.ModelClaudeSonnet4_20250514, a.Model())
}

func TestNew_KeyFromEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	custom := anthropic.Model("claude-test-model")
	a, err := agent.New(agent.Config{Model: custom, MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, custom, a.Model())
}
