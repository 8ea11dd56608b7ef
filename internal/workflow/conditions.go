package workflow

import "deckcrafter/internal/types"

// Action is the decision taken after an attempt.
type Action int

const (
	Proceed Action = iota
	Retry
	Abort
)

func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case Retry:
		return "retry"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// Conditions decides whether a stage proceeds, retries or aborts.
// MaxRetries is the number of attempts a stage may consume.
type Conditions struct {
	MaxRetries int
}

// Next returns the action after an attempt of stage. On failure the stage
// counter must already include the failed attempt.
func (c Conditions) Next(state *types.GameState, stage types.Stage, passed bool) Action {
	if passed {
		return Proceed
	}
	if state.StageAttempts[stage] < c.MaxRetries {
		return Retry
	}
	return Abort
}
