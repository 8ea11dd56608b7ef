package perception

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"deckcrafter/internal/logging"
)

type stubGenerator struct {
	raw json.RawMessage
	err error
}

func (s *stubGenerator) Name() string { return "stub/model" }

func (s *stubGenerator) Generate(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	return s.raw, s.err
}

func TestTracingClient_RecordsSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetBase(zap.New(core))
	t.Cleanup(func() { logging.SetBase(nil) })

	var sunk []Trace
	tc := NewTracingClient(&stubGenerator{raw: json.RawMessage(`{"ok":true}`)}, func(tr Trace) {
		sunk = append(sunk, tr)
	})

	raw, err := tc.Generate(context.Background(), "prompt", ConceptSchema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	last := tc.LastTrace()
	require.NotNil(t, last)
	assert.True(t, last.Success)
	assert.Equal(t, "GameConcept", last.Schema)
	assert.Equal(t, "stub/model", last.Generator)
	assert.Equal(t, len("prompt"), last.PromptLen)
	assert.Equal(t, 1, tc.Calls())
	require.Len(t, sunk, 1)
	assert.Equal(t, "stub/model", tc.Name())

	assert.NotZero(t, logs.FilterMessageSnippet("generation started").Len())
}

func TestTracingClient_RecordsFailure(t *testing.T) {
	boom := errors.New("boom")
	tc := NewTracingClient(&stubGenerator{err: boom}, nil)

	assert.Nil(t, tc.LastTrace())
	_, err := tc.Generate(context.Background(), "prompt", RulesSchema())
	assert.ErrorIs(t, err, boom)

	last := tc.LastTrace()
	require.NotNil(t, last)
	assert.False(t, last.Success)
	assert.Equal(t, "boom", last.ErrMessage)
}
