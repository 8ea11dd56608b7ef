package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deckcrafter/internal/config"
	"deckcrafter/internal/fixtures"
	"deckcrafter/internal/perception"
	"deckcrafter/internal/store"
	"deckcrafter/internal/types"
)

// fakeGenerator answers every schema with a fixed document.
type fakeGenerator struct {
	mu      sync.Mutex
	answers map[string]json.RawMessage
}

func newFakeGenerator(t *testing.T) *fakeGenerator {
	t.Helper()
	g := &fakeGenerator{answers: make(map[string]json.RawMessage)}
	g.set(t, "GameConcept", fixtures.Concept())
	g.set(t, "Rules", fixtures.Rules())
	g.set(t, "CardList", types.CardList{Cards: fixtures.Cards()})
	g.set(t, "UserPreferences", fixtures.Preferences())
	return g
}

func (g *fakeGenerator) set(t *testing.T, schema string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers[schema] = data
}

func (g *fakeGenerator) Name() string { return "fake/test" }

func (g *fakeGenerator) Generate(_ context.Context, _ string, schema perception.Schema) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw, ok := g.answers[schema.Name]
	if !ok {
		return nil, fmt.Errorf("no answer for %s", schema.Name)
	}
	return raw, nil
}

// workspace is a temp config, database and output directory.
type workspace struct {
	dir        string
	configPath string
	dbPath     string
	outputPath string
	gen        *fakeGenerator
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "data", "games.db"),
		outputPath: filepath.Join(dir, "out", "game.json"),
		gen:        newFakeGenerator(t),
	}
	t.Setenv("DECKCRAFTER_DB", "")
	t.Setenv("DECKCRAFTER_MODEL", "")

	c := config.DefaultConfig()
	c.LLM.Provider = "ollama"
	c.Store.Path = ws.dbPath
	c.Output.Path = ws.outputPath
	c.Workflow.MaxRetries = 2
	c.Workflow.CallTimeout = "5s"
	c.Logging.Level = "error"
	c.Preferences = fixtures.Preferences()
	require.NoError(t, c.Save(ws.configPath))

	orig := newGenerator
	newGenerator = func(context.Context, *config.Config) (perception.Generator, error) {
		return ws.gen, nil
	}
	t.Cleanup(func() { newGenerator = orig })
	return ws
}

func (ws *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", ws.configPath))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (ws *workspace) games(t *testing.T) []store.Summary {
	t.Helper()
	s, err := store.Open("sqlite", ws.dbPath)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List(context.Background())
	require.NoError(t, err)
	return list
}

// resetFlags restores flag variables between Execute calls; pflag only
// assigns flags that are present on the command line.
func resetFlags() {
	verbose = false
	timeout = 30 * time.Minute
	prefFlags = types.UserPreferences{}
	description = ""
	interactive = false
	blank = false
	outputPath = ""
	count = 1
	parallel = 2
	noStore = false
	resumeStage = ""
	showRaw = false
	showJSON = false
	showWidth = 100
	showStyle = ""
	tracesLimit = 20
	serveAddr = ""
	configForce = false
}
