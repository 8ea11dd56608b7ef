package workflow

import (
	"time"

	"deckcrafter/internal/types"
)

// EventType names a progress notification.
type EventType string

const (
	EventStageStarted   EventType = "stage_started"
	EventAttemptFailed  EventType = "attempt_failed"
	EventStageCompleted EventType = "stage_completed"
	EventRunAborted     EventType = "run_aborted"
)

// Event reports progress of a run.
type Event struct {
	Type      EventType   `json:"type"`
	GameID    string      `json:"game_id"`
	Stage     types.Stage `json:"stage"`
	Attempt   int         `json:"attempt,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Observer receives events synchronously from the goroutine driving the run.
// It must not modify the state.
type Observer func(Event)

func (c *Controller) emit(state *types.GameState, typ EventType, stage types.Stage, attempt int, reason string) {
	if c.observer == nil {
		return
	}
	c.observer(Event{
		Type:      typ,
		GameID:    state.ID,
		Stage:     stage,
		Attempt:   attempt,
		Reason:    reason,
		Timestamp: c.now(),
	})
}
