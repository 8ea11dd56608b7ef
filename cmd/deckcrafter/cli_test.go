package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckcrafter/internal/config"
	"deckcrafter/internal/export"
	"deckcrafter/internal/fixtures"
	"deckcrafter/internal/logging"
	"deckcrafter/internal/store"
	"deckcrafter/internal/types"
)

func TestGenerateWritesDocument(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "generate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "concept accepted")
	assert.Contains(t, out, "rules accepted")
	assert.Contains(t, out, "cards accepted")
	assert.Contains(t, out, fixtures.Concept().Title)

	doc, err := export.ReadJSON(ws.outputPath)
	require.NoError(t, err)
	require.NotNil(t, doc.GameConcept)
	assert.Equal(t, fixtures.Concept().Title, doc.GameConcept.Title)
	assert.Len(t, doc.Cards, len(fixtures.Cards()))

	games := ws.games(t)
	require.Len(t, games, 1)
	assert.Equal(t, types.StatusCardsGenerated, games[0].Status)
}

func TestGenerateLogsBootAndDuration(t *testing.T) {
	ws := newWorkspace(t)
	logPath := filepath.Join(ws.dir, "logs", "deckcrafter.log")
	c, err := config.Load(ws.configPath)
	require.NoError(t, err)
	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Logging.File = logPath
	require.NoError(t, c.Save(ws.configPath))
	t.Cleanup(func() { logging.SetBase(nil) })

	out, err := ws.run(t, "generate")
	require.NoError(t, err, out)
	logging.Sync()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"config loaded: path=`+ws.configPath)
	assert.Contains(t, string(data), `"msg":"generate 1 game(s) completed in`)
}

func TestGenerateSeveralGames(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "generate", "--count", "3", "--parallel", "2")
	require.NoError(t, err, out)

	for _, name := range []string{"game-1.json", "game-2.json", "game-3.json"} {
		_, err := os.Stat(filepath.Join(ws.dir, "out", name))
		assert.NoError(t, err, name)
	}
	assert.Len(t, ws.games(t), 3)
}

func TestGenerateNoStore(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "generate", "--no-store", "--output", filepath.Join(ws.dir, "custom.json"))
	require.NoError(t, err, out)
	_, err = os.Stat(filepath.Join(ws.dir, "custom.json"))
	assert.NoError(t, err)
	assert.Empty(t, ws.games(t))
}

func TestGenerateFailureThenResume(t *testing.T) {
	ws := newWorkspace(t)
	rules := fixtures.Rules()
	rules.WinConditions = ""
	ws.gen.set(t, "Rules", rules)

	out, err := ws.run(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 game(s) failed")
	assert.Contains(t, out, "rules attempt 1 rejected")
	assert.Contains(t, out, "deckcrafter resume")

	games := ws.games(t)
	require.Len(t, games, 1)
	assert.Equal(t, types.StatusFailed, games[0].Status)
	assert.Contains(t, games[0].TerminalError, "retry_budget_exhausted")

	ws.gen.set(t, "Rules", fixtures.Rules())
	out, err = ws.run(t, "resume", games[0].ID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "cards accepted")
	assert.NotContains(t, out, "concept accepted", "accepted stages are not regenerated")

	games = ws.games(t)
	require.Len(t, games, 1)
	assert.Equal(t, types.StatusCardsGenerated, games[0].Status)

	out, err = ws.run(t, "resume", games[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "already complete")
}

func TestResumeSingleStage(t *testing.T) {
	ws := newWorkspace(t)
	ws.gen.set(t, "Rules", types.Rules{})

	_, err := ws.run(t, "generate")
	require.Error(t, err)
	id := ws.games(t)[0].ID

	_, err = ws.run(t, "resume", id, "--stage", "cards")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires rules first")

	ws.gen.set(t, "Rules", fixtures.Rules())
	out, err := ws.run(t, "resume", id, "--stage", "rules")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Stage rules accepted. Status: rules_generated")
}

func TestListShowExportDelete(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No games stored yet.")

	_, err = ws.run(t, "generate")
	require.NoError(t, err)
	id := ws.games(t)[0].ID

	out, err = ws.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "cards_generated")

	out, err = ws.run(t, "show", id, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+fixtures.Concept().Title)

	out, err = ws.run(t, "show", id, "--style", "notty", "--width", "80")
	require.NoError(t, err)
	assert.Contains(t, out, fixtures.Concept().Title)

	out, err = ws.run(t, "show", id, "--json")
	require.NoError(t, err)
	var state types.GameState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, id, state.ID)

	target := filepath.Join(ws.dir, "exported.json")
	out, err = ws.run(t, "export", id, target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)
	_, err = export.ReadJSON(target)
	require.NoError(t, err)

	out, err = ws.run(t, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	_, err = ws.run(t, "show", id)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExportIncompleteGame(t *testing.T) {
	ws := newWorkspace(t)
	ws.gen.set(t, "Rules", types.Rules{})

	_, err := ws.run(t, "generate")
	require.Error(t, err)
	id := ws.games(t)[0].ID

	_, err = ws.run(t, "export", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestTracesAreRecorded(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "traces")
	require.NoError(t, err)
	assert.Contains(t, out, "No generation calls recorded.")

	_, err = ws.run(t, "generate")
	require.NoError(t, err)

	s, err := store.Open("sqlite", ws.dbPath)
	require.NoError(t, err)
	traces, err := s.RecentTraces(context.Background(), 10)
	require.NoError(t, s.Close())
	require.NoError(t, err)
	require.Len(t, traces, 3)
	assert.Equal(t, "CardList", traces[0].Schema)
	assert.Equal(t, "fake/test", traces[0].Generator)

	out, err = ws.run(t, "traces", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "CardList")
	assert.Contains(t, out, "Rules")
	assert.NotContains(t, out, "GameConcept")
}

func TestConfigInit(t *testing.T) {
	ws := newWorkspace(t)
	path := filepath.Join(ws.dir, "fresh", "config.yaml")

	resetFlags()
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	require.NoError(t, rootCmd.Execute())
	_, err := os.Stat(path)
	require.NoError(t, err)

	resetFlags()
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	resetFlags()
	rootCmd.SetArgs([]string{"config", "init", "--force", "--config", path})
	require.NoError(t, rootCmd.Execute())
}

func TestConfigShowMasksKey(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv("GEMINI_API_KEY", "secret-key")

	out, err := ws.run(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "secret-key")
	assert.Contains(t, out, "api_key: '***'")
}

func TestOverridePreferences(t *testing.T) {
	base := fixtures.Preferences()
	got := overridePreferences(base, types.UserPreferences{
		Theme:             "  Piratas  ",
		MaxUniqueCards:    12,
		ContentExclusions: []string{"sangre"},
	})
	assert.Equal(t, "Piratas", got.Theme)
	assert.Equal(t, 12, got.MaxUniqueCards)
	assert.Equal(t, []string{"sangre"}, got.ContentExclusions)
	assert.Equal(t, base.Language, got.Language)
	assert.Equal(t, []string{"explosivo"}, base.ContentExclusions, "base is not modified")
}

func TestNumberedPath(t *testing.T) {
	assert.Equal(t, "out/game.json", numberedPath("out/game.json", 0, 1))
	assert.Equal(t, "out/game-1.json", numberedPath("out/game.json", 0, 3))
	assert.Equal(t, "out/game-3.json", numberedPath("out/game.json", 2, 3))
	assert.Equal(t, "game-2", numberedPath("game", 1, 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Mazmo…", truncate("Mazmorras", 6))
}
