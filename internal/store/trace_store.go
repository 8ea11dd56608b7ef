package store

import (
	"context"
	"fmt"
	"time"
)

// TraceRecord is one stored generation call.
type TraceRecord struct {
	ID        int64         `json:"id"`
	Generator string        `json:"generator"`
	Schema    string        `json:"schema"`
	PromptLen int           `json:"prompt_len"`
	Prompt    string        `json:"prompt,omitempty"`
	Response  string        `json:"response,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// SaveTrace appends a generation trace.
func (s *Store) SaveTrace(ctx context.Context, t TraceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	success := 0
	if t.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_traces (generator, schema_name, prompt_len, prompt, response, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Generator, t.Schema, t.PromptLen, t.Prompt, t.Response, success, t.Error, t.Duration.Milliseconds(), formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save trace: %w", err)
	}
	return nil
}

// RecentTraces returns up to limit traces, newest first.
func (s *Store) RecentTraces(ctx context.Context, limit int) ([]TraceRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generator, schema_name, prompt_len, prompt, response, success, error, duration_ms, created_at
		FROM generation_traces ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var out []TraceRecord
	for rows.Next() {
		var (
			t          TraceRecord
			success    int
			durationMs int64
			created    string
		)
		if err := rows.Scan(&t.ID, &t.Generator, &t.Schema, &t.PromptLen, &t.Prompt, &t.Response, &success, &t.Error, &durationMs, &created); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		t.Success = success == 1
		t.Duration = time.Duration(durationMs) * time.Millisecond
		t.CreatedAt, _ = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}
