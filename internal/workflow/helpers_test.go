package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"deckcrafter/internal/fixtures"
	"deckcrafter/internal/perception"
	"deckcrafter/internal/types"
	"deckcrafter/internal/verification"
)

// step is one scripted answer of the fake generator.
type step struct {
	raw   string
	err   error
	block bool // wait for the call context to end
}

type call struct {
	schema string
	prompt string
}

// scriptedGenerator answers each schema from its own queue.
type scriptedGenerator struct {
	mu    sync.Mutex
	steps map[string][]step
	calls []call
}

func newScript() *scriptedGenerator {
	return &scriptedGenerator{steps: make(map[string][]step)}
}

func (g *scriptedGenerator) on(schema string, steps ...step) *scriptedGenerator {
	g.steps[schema] = append(g.steps[schema], steps...)
	return g
}

func (g *scriptedGenerator) Name() string { return "scripted/test" }

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, schema perception.Schema) (json.RawMessage, error) {
	g.mu.Lock()
	g.calls = append(g.calls, call{schema: schema.Name, prompt: prompt})
	queue := g.steps[schema.Name]
	if len(queue) == 0 {
		g.mu.Unlock()
		return nil, fmt.Errorf("no scripted answer for %s", schema.Name)
	}
	s := queue[0]
	g.steps[schema.Name] = queue[1:]
	g.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.raw), nil
}

func (g *scriptedGenerator) callsFor(schema string) []call {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []call
	for _, c := range g.calls {
		if c.schema == schema {
			out = append(out, c)
		}
	}
	return out
}

func answer(t *testing.T, v any) step {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return step{raw: string(data)}
}

func failure(msg string) step {
	return step{err: errors.New(msg)}
}

const (
	conceptSchema = "GameConcept"
	rulesSchema   = "Rules"
	cardsSchema   = "CardList"
	prefsSchema   = "UserPreferences"
)

// happyScript answers every stage correctly on the first attempt.
func happyScript(t *testing.T) *scriptedGenerator {
	return newScript().
		on(conceptSchema, answer(t, fixtures.Concept())).
		on(rulesSchema, answer(t, fixtures.Rules())).
		on(cardsSchema, answer(t, types.CardList{Cards: fixtures.Cards()}))
}

var testEpoch = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestController(gen perception.Generator, opts ...Option) *Controller {
	cfg := Config{
		MaxRetries:  3,
		CallTimeout: time.Second,
		Validation:  verification.DefaultOptions(),
	}
	base := []Option{
		WithClock(func() time.Time { return testEpoch }),
		WithIDGenerator(func() string { return "game-1" }),
	}
	return New(gen, cfg, append(base, opts...)...)
}
