package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"deckcrafter/internal/logging"
)

// GeminiConfig holds configuration for Gemini client.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 8192,
		Timeout:         120 * time.Second,
	}
}

// GeminiClient implements Generator with the Google GenAI SDK and JSON
// schema constrained output.
type GeminiClient struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = DefaultGeminiConfig("").Model
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		cc.HTTPOptions.Timeout = &config.Timeout
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:          client,
		model:           model,
		temperature:     float32(config.Temperature),
		maxOutputTokens: int32(config.MaxOutputTokens),
	}, nil
}

// Name implements Generator.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini) + "/" + c.model
}

// Generate implements Generator.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema.Definition,
		Temperature:        genai.Ptr(c.temperature),
	}
	if c.maxOutputTokens > 0 {
		gc.MaxOutputTokens = c.maxOutputTokens
	}

	logging.APIDebug("gemini: model=%s schema=%s prompt_len=%d", c.model, schema.Name, len(prompt))
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), gc)
	if err != nil {
		return nil, &GenerationError{Provider: ProviderGemini, Op: "generate " + schema.Name, Err: err}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &GenerationError{
			Provider: ProviderGemini,
			Op:       "generate " + schema.Name,
			Err:      fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}

	raw, err := extractJSON(resp.Text())
	if err != nil {
		return nil, &GenerationError{Provider: ProviderGemini, Op: "decode " + schema.Name, Err: err}
	}
	return raw, nil
}
