package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/plansmith/takeoff/internal/config"
)

// NewClient constructs the vision-capable LLM client and, when the provider
// supports it, an embedder, from configuration. Claude has no embedding API;
// callers that need embeddings alongside Claude configure a second provider.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.EmbeddingModel, cfg.BaseURL)
		return c, c, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, nil, nil

	case "ollama":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		c := NewOpenAIClient(apiKey, cfg.Model, cfg.EmbeddingModel, ollamaBaseURL(cfg.BaseURL))
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// ollamaBaseURL resolves the endpoint for a local ollama daemon, which
// speaks the OpenAI-compatible API under /v1.
func ollamaBaseURL(raw string) string {
	if raw == "" {
		raw = "http://localhost:11434"
	}
	if strings.HasSuffix(raw, "/v1") {
		return raw
	}
	return fmt.Sprintf("%s/v1", strings.TrimRight(raw, "/"))
}
