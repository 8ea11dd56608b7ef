// Package store persists games and generation traces in SQLite.
//
// Two database/sql drivers are registered: "sqlite" (modernc.org/sqlite, pure
// Go, the default) and "sqlite3" (github.com/mattn/go-sqlite3, cgo).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"deckcrafter/internal/logging"
	"deckcrafter/internal/types"
)

// ErrNotFound is returned when a game does not exist.
var ErrNotFound = errors.New("game not found")

// Summary is the list view of a stored game.
type Summary struct {
	ID            string       `json:"game_id"`
	Status        types.Status `json:"status"`
	Title         string       `json:"title,omitempty"`
	TerminalError string       `json:"terminal_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Store is a SQLite-backed game store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	driver string
	path   string
}

// Open opens (or creates) the database at path with the given driver.
func Open(driver, path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	switch driver {
	case "sqlite", "sqlite3":
	case "":
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported sqlite driver: %s", driver)
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
	}

	s := &Store{db: db, driver: driver, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("Game store opened: driver=%s path=%s", driver, path)
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			preferences TEXT NOT NULL,
			concept TEXT,
			rules TEXT,
			cards TEXT,
			stage_attempts TEXT NOT NULL DEFAULT '{}',
			terminal_error TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_updated ON games(updated_at)`,
		`CREATE TABLE IF NOT EXISTS generation_traces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			generator TEXT NOT NULL,
			schema_name TEXT NOT NULL,
			prompt_len INTEGER NOT NULL DEFAULT 0,
			prompt TEXT NOT NULL DEFAULT '',
			response TEXT NOT NULL DEFAULT '',
			success INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return RunMigrations(s.db)
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Save inserts or replaces a game.
func (s *Store) Save(ctx context.Context, state *types.GameState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("cannot save a game without an id")
	}

	prefs, err := json.Marshal(state.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	concept, err := nullableJSON(state.Concept, state.Concept != nil)
	if err != nil {
		return fmt.Errorf("failed to marshal concept: %w", err)
	}
	rules, err := nullableJSON(state.Rules, state.Rules != nil)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	cards, err := nullableJSON(state.Cards, state.Cards != nil)
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}
	terminal, err := nullableJSON(state.TerminalError, state.TerminalError != nil)
	if err != nil {
		return fmt.Errorf("failed to marshal terminal error: %w", err)
	}
	attempts, err := json.Marshal(state.StageAttempts)
	if err != nil {
		return fmt.Errorf("failed to marshal stage attempts: %w", err)
	}
	title := ""
	if state.Concept != nil {
		title = state.Concept.Title
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (game_id, status, title, preferences, concept, rules, cards, stage_attempts, terminal_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			status = excluded.status,
			title = excluded.title,
			preferences = excluded.preferences,
			concept = excluded.concept,
			rules = excluded.rules,
			cards = excluded.cards,
			stage_attempts = excluded.stage_attempts,
			terminal_error = excluded.terminal_error,
			updated_at = excluded.updated_at`,
		state.ID, string(state.Status), title, string(prefs), concept, rules, cards, string(attempts), terminal,
		formatTime(state.CreatedAt), formatTime(state.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", state.ID, err)
	}
	logging.StoreDebug("Saved game %s (status=%s)", state.ID, state.Status)
	return nil
}

// Get loads a game. It returns ErrNotFound when id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*types.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		status, prefs, attempts, created, updated string
		concept, rules, cards, terminal           sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status, preferences, concept, rules, cards, stage_attempts, terminal_error, created_at, updated_at
		FROM games WHERE game_id = ?`, id).
		Scan(&status, &prefs, &concept, &rules, &cards, &attempts, &terminal, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}

	state := &types.GameState{
		ID:            id,
		Status:        types.Status(status),
		StageAttempts: make(map[types.Stage]int),
	}
	if err := json.Unmarshal([]byte(prefs), &state.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(attempts), &state.StageAttempts); err != nil {
		return nil, fmt.Errorf("failed to decode stage attempts of %s: %w", id, err)
	}
	for _, col := range []struct {
		name string
		raw  sql.NullString
		dst  any
	}{
		{"concept", concept, &state.Concept},
		{"rules", rules, &state.Rules},
		{"cards", cards, &state.Cards},
		{"terminal_error", terminal, &state.TerminalError},
	} {
		if !col.raw.Valid {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw.String), col.dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s of %s: %w", col.name, id, err)
		}
	}
	if state.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("failed to decode created_at of %s: %w", id, err)
	}
	if state.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated_at of %s: %w", id, err)
	}
	return state, nil
}

// List returns every game, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, status, title, terminal_error, created_at, updated_at
		FROM games ORDER BY updated_at DESC, game_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum              Summary
			status           string
			terminal         sql.NullString
			created, updated string
		)
		if err := rows.Scan(&sum.ID, &status, &sum.Title, &terminal, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		sum.Status = types.Status(status)
		if terminal.Valid {
			var se types.StageError
			if err := json.Unmarshal([]byte(terminal.String), &se); err == nil {
				sum.TerminalError = se.Error()
			}
		}
		sum.CreatedAt, _ = parseTime(created)
		sum.UpdatedAt, _ = parseTime(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a game. It returns ErrNotFound when id is unknown.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM games WHERE game_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	logging.Store("Deleted game %s", id)
	return nil
}

func nullableJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
