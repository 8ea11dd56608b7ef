// Package perception talks to the generative model. Every call returns a JSON
// document shaped by the requested schema; callers decode and validate it.
package perception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Generator produces a structured response for a prompt.
type Generator interface {
	// Generate returns the raw JSON answer. Failures are *GenerationError.
	Generate(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error)
	// Name identifies the provider and model, for logs.
	Name() string
}

// Provider represents an LLM provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// Schema is a named JSON schema descriptor sent with a request.
type Schema struct {
	Name       string
	Definition map[string]interface{}
}

// ErrEmptyResponse is returned when the model answers with no content.
var ErrEmptyResponse = errors.New("empty response")

// GenerationError reports a failed call to a provider.
type GenerationError struct {
	Provider Provider
	Op       string
	// StatusCode is the HTTP status when the provider answered with an error.
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// extractJSON returns the JSON document inside text, dropping markdown
// fences some models add even in JSON mode.
func extractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("response is not valid JSON: %.120q", s)
	}
	return json.RawMessage(s), nil
}
