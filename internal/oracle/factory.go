package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindwell/synapse/internal/config"
)

// NewClient builds the LLM and embedder clients for the configured provider.
// The embedder may be nil when the provider has no embedding endpoint; callers
// degrade to text-only behavior in that case.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, Embedder, error) {
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
		return c, nil, nil // No embedding endpoint; search falls back to text match.

	case "ollama":
		// Ollama speaks the OpenAI-compatible API; reuse that client.
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}

		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama" // Ignored by Ollama but required by the client config.
		}

		c := NewOpenAIClient(apiKey, cfg.Model, cfg.EmbeddingModel, baseURL)
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
