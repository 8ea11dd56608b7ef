package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckcrafter/internal/fixtures"
	"deckcrafter/internal/types"
)

func completeState() *types.GameState {
	state := types.NewGameState("game-1", fixtures.Preferences(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	state.Concept = fixtures.Concept()
	state.Rules = fixtures.Rules()
	state.Cards = fixtures.Cards()
	state.Status = types.StatusCardsGenerated
	return state
}

func TestEncodeJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, completeState()))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	var keys []string
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"game_concept", "cards", "rules", "user_preferences"}, keys)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n    \""), "expected four-space indent: %q", out[:20])
	assert.Contains(t, out, "Fantasía")
	assert.Contains(t, out, "Acción")
	assert.NotContains(t, out, `\u00`)
}

func TestEncodeJSONRejectsIncompleteGame(t *testing.T) {
	state := completeState()
	state.Cards = nil
	err := EncodeJSON(&bytes.Buffer{}, state)
	assert.ErrorContains(t, err, "stage cards has no output")
}

func TestWriteAndReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "game.json")
	state := completeState()

	require.NoError(t, WriteJSON(path, state))
	_, err := os.Stat(path)
	require.NoError(t, err)

	doc, err := ReadJSON(path)
	require.NoError(t, err)
	want, err := state.Document()
	require.NoError(t, err)
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownCompleteGame(t *testing.T) {
	md := Markdown(completeState())

	assert.True(t, strings.HasPrefix(md, "# Las Mazmorras de Toledo\n"))
	assert.Contains(t, md, "## Concept")
	assert.Contains(t, md, "| Mazmorra | 12 | 1 |")
	assert.Contains(t, md, "## Rules")
	assert.Contains(t, md, "- Mazmorra: number_of_players - 1")
	assert.Contains(t, md, "| Hechizo 5 | Hechizo | 6 |")
	assert.NotContains(t, md, "Generation stopped")
}

func TestMarkdownPartialGame(t *testing.T) {
	state := completeState()
	state.Rules = nil
	state.Cards = nil
	state.Status = types.StatusFailed
	state.TerminalError = types.NewBudgetExhausted(types.StageRules, 3, types.NewValidationError(types.StageRules, "bad counts"))

	md := Markdown(state)
	assert.Contains(t, md, "Generation stopped")
	assert.Contains(t, md, "bad counts")
	assert.NotContains(t, md, "## Rules")
	assert.NotContains(t, md, "## Cards")
}

func TestMarkdownEscapesTableCells(t *testing.T) {
	state := completeState()
	state.Cards[0].Effect = "Roba | descarta\nrepite"
	md := Markdown(state)
	assert.Contains(t, md, `Roba \| descarta repite`)
}

func TestRenderStyleNoTTY(t *testing.T) {
	out, err := RenderStyle(completeState(), 100, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "Las Mazmorras de Toledo")
	assert.Contains(t, out, "Hechizo 5")
}
