package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plansmith/takeoff/internal/config"
)

func TestOllamaBaseURL(t *testing.T) {
	// An unset base URL must resolve to the local daemon, not a bare "/v1".
	assert.Equal(t, "http://localhost:11434/v1", ollamaBaseURL(""))
	assert.Equal(t, "http://ollama.internal:11434/v1", ollamaBaseURL("http://ollama.internal:11434"))
	assert.Equal(t, "http://ollama.internal:11434/v1", ollamaBaseURL("http://ollama.internal:11434/"))
	assert.Equal(t, "http://ollama.internal:11434/v1", ollamaBaseURL("http://ollama.internal:11434/v1"))
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, _, err := NewClient(context.Background(), config.LLMConfig{Provider: "unknown"})
	assert.Error(t, err)
}

func TestNewClient_ClaudeHasNoEmbedder(t *testing.T) {
	client, embedder, err := NewClient(context.Background(), config.LLMConfig{Provider: "claude", APIKey: "k", Model: "m"})
	assert.NoError(t, err)
	assert.NotNil(t, client)
	assert.Nil(t, embedder)
}
