package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deckcrafter/internal/logging"
)

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:         "http://localhost:11434",
		Model:           "llama3.2",
		Temperature:     0.7,
		MaxOutputTokens: 8192,
		Timeout:         120 * time.Second,
	}
}

// OllamaClient implements Generator against a local Ollama server, passing
// the schema as the chat "format".
type OllamaClient struct {
	baseURL    string
	model      string
	options    ollamaOptions
	httpClient *http.Client
}

// NewOllamaClient creates a new Ollama client. Empty fields take defaults.
func NewOllamaClient(config OllamaConfig) *OllamaClient {
	def := DefaultOllamaConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = def.MaxOutputTokens
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		options: ollamaOptions{
			Temperature: config.Temperature,
			NumPredict:  config.MaxOutputTokens,
			TopP:        0.8,
			TopK:        40,
		},
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name implements Generator.
func (c *OllamaClient) Name() string {
	return fmt.Sprintf("%s/%s", ProviderOllama, c.model)
}

// Generate implements Generator.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	op := "generate " + schema.Name
	req := ollamaChatRequest{
		Model:    c.model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Format:   schema.Definition,
		Stream:   false,
		Options:  c.options,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &GenerationError{Provider: ProviderOllama, Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &GenerationError{Provider: ProviderOllama, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logging.APIDebug("ollama: model=%s schema=%s prompt_len=%d", c.model, schema.Name, len(prompt))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GenerationError{Provider: ProviderOllama, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &GenerationError{
			Provider:   ProviderOllama,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(bodyBytes))),
		}
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &GenerationError{Provider: ProviderOllama, Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if result.Error != "" {
		return nil, &GenerationError{Provider: ProviderOllama, Op: op, Err: fmt.Errorf("%s", result.Error)}
	}

	raw, err := extractJSON(result.Message.Content)
	if err != nil {
		return nil, &GenerationError{Provider: ProviderOllama, Op: "decode " + schema.Name, Err: err}
	}
	return raw, nil
}

// =============================================================================
// OLLAMA API TYPES
// =============================================================================

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Format   map[string]interface{} `json:"format,omitempty"`
	Stream   bool                   `json:"stream"`
	Options  ollamaOptions          `json:"options"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}
