package perception

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"
)

// TestGeminiStructuredOutput checks a live Gemini call against the rules schema.
// Run with: GEMINI_API_KEY=... go test -v -run TestGeminiStructuredOutput ./internal/perception/
func TestGeminiStructuredOutput(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping live test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	client, err := NewGeminiClient(ctx, DefaultGeminiConfig(apiKey))
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}

	raw, err := client.Generate(ctx, "Write the rules of a tiny two-type card game for 3-5 players in English.", RulesSchema())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("Response is not valid JSON: %v\n%s", err, raw)
	}
	if _, ok := result["deck_counts"]; !ok {
		t.Errorf("Missing deck_counts in response: %s", raw)
	}
}
