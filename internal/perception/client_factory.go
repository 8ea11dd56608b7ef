package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deckcrafter/internal/config"
)

// NewClient creates the Generator selected by cfg.Provider. A gemini model
// name is ignored for ollama so the default config still works locally.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (Generator, error) {
	switch Provider(strings.ToLower(cfg.Provider)) {
	case ProviderGemini, "":
		gc := DefaultGeminiConfig(cfg.APIKey)
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		if cfg.Temperature > 0 {
			gc.Temperature = cfg.Temperature
		}
		if cfg.MaxOutputTokens > 0 {
			gc.MaxOutputTokens = cfg.MaxOutputTokens
		}
		gc.Timeout = timeout
		client, err := NewGeminiClient(ctx, gc)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOllama:
		oc := DefaultOllamaConfig()
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" && !strings.HasPrefix(cfg.Model, "gemini") {
			oc.Model = cfg.Model
		}
		if cfg.Temperature > 0 {
			oc.Temperature = cfg.Temperature
		}
		if cfg.MaxOutputTokens > 0 {
			oc.MaxOutputTokens = cfg.MaxOutputTokens
		}
		oc.Timeout = timeout
		return NewOllamaClient(oc), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
