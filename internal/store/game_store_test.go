package store

import (
	"context"
	"database/sql"
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

var drivers = []string{"sqlite", "sqlite3"}

func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	s, err := Open(driver, filepath.Join(t.TempDir(), "games.db"))
	if err != nil && driver == "sqlite3" && strings.Contains(strings.ToLower(err.Error()), "cgo") {
		t.Skipf("sqlite3 driver unavailable: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func completeState() *types.GameState {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	state := types.NewGameState("game-complete", fixtures.Preferences(), created)
	state.Concept = fixtures.Concept()
	state.Rules = fixtures.Rules()
	state.Cards = fixtures.Cards()
	state.Status = types.StatusCardsGenerated
	state.UpdatedAt = created.Add(time.Minute)
	return state
}

func TestStoreRoundTrip(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			ctx := context.Background()
			want := completeState()

			require.NoError(t, s.Save(ctx, want))
			got, err := s.Get(ctx, want.ID)
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, driver, s.Driver())
		})
	}
}

func TestStorePartialStateKeepsAbsentStages(t *testing.T) {
	s := openTestStore(t, "sqlite")
	ctx := context.Background()

	state := types.NewGameState("game-failed", fixtures.Preferences(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	state.Concept = fixtures.Concept()
	state.StageAttempts[types.StageRules] = 3
	state.Status = types.StatusFailed
	state.TerminalError = types.NewBudgetExhausted(types.StageRules, 3, types.NewValidationError(types.StageRules, "deck_counts[0] is wrong"))

	require.NoError(t, s.Save(ctx, state))
	got, err := s.Get(ctx, state.ID)
	require.NoError(t, err)

	assert.NotNil(t, got.Concept)
	assert.Nil(t, got.Rules)
	assert.Nil(t, got.Cards)
	assert.Equal(t, 3, got.StageAttempts[types.StageRules])
	require.NotNil(t, got.TerminalError)
	assert.Equal(t, types.KindRetryBudgetExhausted, got.TerminalError.Kind)
	assert.Equal(t, types.StageRules, got.TerminalError.Stage)
	assert.Equal(t, state.TerminalError.Reason, got.TerminalError.Reason)
	require.NoError(t, got.CheckInvariants(3))
}

func TestStoreSaveUpserts(t *testing.T) {
	s := openTestStore(t, "sqlite")
	ctx := context.Background()

	state := types.NewGameState("game-1", fixtures.Preferences(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, state))

	state.Concept = fixtures.Concept()
	state.Status = types.StatusConceptGenerated
	state.UpdatedAt = state.UpdatedAt.Add(time.Second)
	require.NoError(t, s.Save(ctx, state))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.StatusConceptGenerated, list[0].Status)
	assert.Equal(t, "Las Mazmorras de Toledo", list[0].Title)
}

func TestStoreListOrder(t *testing.T) {
	s := openTestStore(t, "sqlite")
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "middle"} {
		state := types.NewGameState(id, fixtures.Preferences(), base)
		state.UpdatedAt = base.Add(map[int]time.Duration{0: time.Second, 1: time.Hour, 2: time.Minute}[i])
		require.NoError(t, s.Save(ctx, state))
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, sum := range list {
		ids = append(ids, sum.ID)
	}
	assert.Equal(t, []string{"new", "middle", "old"}, ids)
}

func TestStoreNotFound(t *testing.T) {
	s := openTestStore(t, "sqlite")
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t, "sqlite")
	ctx := context.Background()
	state := completeState()

	require.NoError(t, s.Save(ctx, state))
	require.NoError(t, s.Delete(ctx, state.ID))
	_, err := s.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRejectsUnknownDriver(t *testing.T) {
	_, err := Open("postgres", filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "unsupported sqlite driver")
}

func TestStoreSaveRequiresID(t *testing.T) {
	s := openTestStore(t, "sqlite")
	assert.Error(t, s.Save(context.Background(), &types.GameState{}))
}

func TestStoreMigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE games (
		game_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		preferences TEXT NOT NULL,
		concept TEXT,
		rules TEXT,
		cards TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open("sqlite", path)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, columnExists(s.db, "games", "stage_attempts"))
	assert.True(t, columnExists(s.db, "games", "terminal_error"))

	state := completeState()
	require.NoError(t, s.Save(context.Background(), state))
	got, err := s.Get(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StageAttempts, got.StageAttempts)
}

func TestStoreTraces(t *testing.T) {
	s := openTestStore(t, "sqlite")
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveTrace(ctx, TraceRecord{Generator: "gemini/x", Schema: "GameConcept", PromptLen: 10, Success: true, Duration: 1500 * time.Millisecond, CreatedAt: at}))
	require.NoError(t, s.SaveTrace(ctx, TraceRecord{Generator: "gemini/x", Schema: "Rules", Error: "timeout", Duration: time.Second, CreatedAt: at}))

	traces, err := s.RecentTraces(ctx, 10)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "Rules", traces[0].Schema)
	assert.False(t, traces[0].Success)
	assert.Equal(t, "timeout", traces[0].Error)
	assert.True(t, traces[1].Success)
	assert.Equal(t, 1500*time.Millisecond, traces[1].Duration)
	assert.True(t, at.Equal(traces[1].CreatedAt))
}
