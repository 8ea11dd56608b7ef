package perception

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"deckcrafter/internal/logging"
)

// Trace captures one generation call.
type Trace struct {
	Generator  string        `json:"generator"`
	Schema     string        `json:"schema"`
	PromptLen  int           `json:"prompt_len"`
	Prompt     string        `json:"prompt,omitempty"`
	Response   string        `json:"response,omitempty"`
	Duration   time.Duration `json:"duration"`
	Success    bool          `json:"success"`
	ErrMessage string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// TraceSink receives every completed trace.
type TraceSink func(Trace)

// TracingClient wraps any Generator and logs every call.
type TracingClient struct {
	underlying Generator
	sink       TraceSink
	slow       time.Duration

	mu    sync.RWMutex
	last  *Trace
	calls int
}

// NewTracingClient creates a tracing wrapper. sink may be nil.
func NewTracingClient(underlying Generator, sink TraceSink) *TracingClient {
	return &TracingClient{
		underlying: underlying,
		sink:       sink,
		slow:       30 * time.Second,
	}
}

// Name implements Generator.
func (tc *TracingClient) Name() string {
	return tc.underlying.Name()
}

// Generate implements Generator with tracing.
func (tc *TracingClient) Generate(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	start := time.Now()
	logging.API("generation started: generator=%s schema=%s prompt_len=%d", tc.underlying.Name(), schema.Name, len(prompt))

	timer := logging.StartTimer(logging.CategoryAPI, "generate "+schema.Name)
	raw, err := tc.underlying.Generate(ctx, prompt, schema)
	duration := timer.StopWithThreshold(tc.slow)

	trace := Trace{
		Generator: tc.underlying.Name(),
		Schema:    schema.Name,
		PromptLen: len(prompt),
		Prompt:    prompt,
		Response:  string(raw),
		Duration:  duration,
		Success:   err == nil,
		Timestamp: start,
	}
	if err != nil {
		trace.ErrMessage = err.Error()
		logging.Get(logging.CategoryAPI).Warn("generation failed: schema=%s error=%v", schema.Name, err)
	} else {
		logging.APIDebug("generation completed: schema=%s response_len=%d", schema.Name, len(raw))
	}

	tc.mu.Lock()
	tc.last = &trace
	tc.calls++
	tc.mu.Unlock()

	if tc.sink != nil {
		tc.sink(trace)
	}
	return raw, err
}

// LastTrace returns a copy of the most recent trace, or nil.
func (tc *TracingClient) LastTrace() *Trace {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if tc.last == nil {
		return nil
	}
	t := *tc.last
	return &t
}

// Calls returns how many calls went through the wrapper.
func (tc *TracingClient) Calls() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.calls
}
