// Package workflow drives a game through the concept, rules and cards stages.
//
// A run is sequential. Each stage builds a prompt from the accumulated state,
// calls the generator under a per-call timeout, decodes and validates the
// answer, and asks Conditions whether to proceed, retry with a refined prompt
// or abort. Run never returns a Go error: failures end up in
// GameState.TerminalError.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deckcrafter/internal/logging"
	"deckcrafter/internal/perception"
	"deckcrafter/internal/prompt"
	"deckcrafter/internal/types"
	"deckcrafter/internal/verification"
)

// ErrStageOrder is returned by RunStage when the requested stage is already
// complete or an earlier stage is not.
var ErrStageOrder = errors.New("stage out of order")

// Config holds the tunables of a Controller.
type Config struct {
	// MaxRetries is the number of generation attempts per stage.
	MaxRetries int
	// CallTimeout bounds a single generation call. Zero disables it.
	CallTimeout time.Duration
	Validation  verification.Options
}

// DefaultConfig returns the configuration used by the CLI defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		CallTimeout: 90 * time.Second,
		Validation:  verification.DefaultOptions(),
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator replaces the game ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// Controller runs the generation workflow. It holds no per-run state and may
// drive several games concurrently as long as each state has one owner.
type Controller struct {
	gen        perception.Generator
	cfg        Config
	validator  *verification.Validator
	conditions Conditions
	observer   Observer
	now        func() time.Time
	newID      func() string
}

// New creates a Controller. MaxRetries below one is raised to one.
func New(gen perception.Generator, cfg Config, opts ...Option) *Controller {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	c := &Controller{
		gen:        gen,
		cfg:        cfg,
		validator:  verification.New(cfg.Validation),
		conditions: Conditions{MaxRetries: cfg.MaxRetries},
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// NewGame creates an empty state for prefs. prefs is copied.
func (c *Controller) NewGame(prefs types.UserPreferences) *types.GameState {
	return types.NewGameState(c.newID(), prefs, c.now())
}

// Run generates a complete game. The returned state carries every accepted
// stage and, when the run did not finish, a terminal error.
func (c *Controller) Run(ctx context.Context, prefs types.UserPreferences) *types.GameState {
	state := c.NewGame(prefs)
	logging.Workflow("run started: game=%s generator=%s", state.ID, c.gen.Name())
	c.drive(ctx, state)
	return state
}

// Resume continues state from its first incomplete stage. Accepted stages are
// kept; a previous terminal error is cleared and the pending stage gets a
// fresh attempt budget.
func (c *Controller) Resume(ctx context.Context, state *types.GameState) *types.GameState {
	c.reopen(state)
	logging.Workflow("run resumed: game=%s status=%s", state.ID, state.Status)
	c.drive(ctx, state)
	return state
}

// RunStage runs exactly one stage of state. It returns ErrStageOrder when the
// stage is not the next pending one, and the terminal *types.StageError when
// the stage fails.
func (c *Controller) RunStage(ctx context.Context, state *types.GameState, stage types.Stage) error {
	if state.Completed(stage) {
		return fmt.Errorf("%w: stage %s is already complete", ErrStageOrder, stage)
	}
	if next, _ := state.NextStage(); next != stage {
		return fmt.Errorf("%w: stage %s requires %s first", ErrStageOrder, stage, next)
	}
	c.reopen(state)
	if terminal := c.execute(ctx, state, stage); terminal != nil {
		return terminal
	}
	return nil
}

func (c *Controller) reopen(state *types.GameState) {
	state.TerminalError = nil
	if next, pending := state.NextStage(); pending {
		state.StageAttempts[next] = 0
	}
	state.Status = types.StatusCreated
	for _, st := range types.Stages {
		if state.Completed(st) {
			state.Status = types.CompletedStatus(st)
		}
	}
}

func (c *Controller) drive(ctx context.Context, state *types.GameState) {
	timer := logging.StartTimer(logging.CategoryWorkflow, "run "+state.ID)
	defer timer.Stop()
	for {
		stage, pending := state.NextStage()
		if !pending {
			logging.Workflow("run completed: game=%s", state.ID)
			return
		}
		if terminal := c.execute(ctx, state, stage); terminal != nil {
			return
		}
	}
}

// execute runs the attempt loop of one stage. It returns the terminal error
// recorded in state, or nil when the stage was accepted.
func (c *Controller) execute(ctx context.Context, state *types.GameState, stage types.Stage) *types.StageError {
	runner := c.runnerFor(state, stage)
	log := logging.Get(logging.CategoryWorkflow).With("game", state.ID, "stage", string(stage))

	c.emit(state, EventStageStarted, stage, 0, "")
	log.Info("stage started")

	p := runner.prompt()
	for {
		if err := ctx.Err(); err != nil {
			return c.abort(state, types.NewCancellation(stage, err))
		}
		attempt := state.StageAttempts[stage] + 1

		failure, corrections := c.attempt(ctx, state, stage, runner, p)
		if failure == nil {
			state.StageAttempts[stage] = 0
			state.Status = types.CompletedStatus(stage)
			state.UpdatedAt = c.now()
			c.emit(state, EventStageCompleted, stage, attempt, "")
			log.Info("stage completed after %d attempt(s)", attempt)
			return nil
		}
		if failure.Kind == types.KindCancellation {
			return c.abort(state, failure)
		}

		state.StageAttempts[stage]++
		state.UpdatedAt = c.now()
		failure.Attempts = state.StageAttempts[stage]
		c.emit(state, EventAttemptFailed, stage, attempt, failure.Reason)
		log.Warn("attempt %d failed (%s): %s", attempt, failure.Kind, failure.Reason)

		if c.conditions.Next(state, stage, false) == Abort {
			return c.abort(state, types.NewBudgetExhausted(stage, state.StageAttempts[stage], failure))
		}
		p = prompt.Refine(p, corrections...)
	}
}

// attempt performs one generation call. It returns nil on acceptance,
// otherwise the failure and the corrections to feed into the next prompt.
func (c *Controller) attempt(ctx context.Context, state *types.GameState, stage types.Stage, runner stageRunner, p string) (*types.StageError, []string) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
	}
	raw, err := c.gen.Generate(callCtx, p, runner.schema())
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return types.NewCancellation(stage, ctx.Err()), nil
		}
		failure := types.NewTransportError(stage, err)
		return failure, []string{failure.Reason}
	}

	verdict, err := runner.evaluate(raw)
	if err != nil {
		failure := types.NewTransportError(stage, err)
		return failure, []string{failure.Reason}
	}
	logging.ValidationDebug("stage %s verdict: passed=%t %s", stage, verdict.Passed, verdict.Reason)
	if c.conditions.Next(state, stage, verdict.Passed) == Proceed {
		runner.commit(state)
		return nil, nil
	}
	return types.NewValidationError(stage, verdict.Reason), runner.corrections(verdict)
}

func (c *Controller) abort(state *types.GameState, terminal *types.StageError) *types.StageError {
	state.TerminalError = terminal
	if terminal.Kind == types.KindCancellation {
		state.Status = types.StatusCanceled
	} else {
		state.Status = types.StatusFailed
	}
	state.UpdatedAt = c.now()
	c.emit(state, EventRunAborted, terminal.Stage, terminal.Attempts, terminal.Reason)
	logging.WorkflowWarn("run aborted: game=%s %v", state.ID, terminal)
	return terminal
}
