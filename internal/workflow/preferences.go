package workflow

import (
	"context"
	"fmt"
	"strings"

	"deckcrafter/internal/logging"
	"deckcrafter/internal/perception"
	"deckcrafter/internal/prompt"
	"deckcrafter/internal/types"
)

// StagePreferences labels errors of CompletePreferences. It is not part of
// the run order.
const StagePreferences types.Stage = "preferences"

// CompletePreferences fills the empty fields of partial with one structured
// generation call, retried within the same budget as a stage. Fields set in
// partial always win. When nothing is missing partial is returned as is.
func (c *Controller) CompletePreferences(ctx context.Context, description string, partial types.UserPreferences) (types.UserPreferences, error) {
	missing := partial.MissingFields()
	if len(missing) == 0 {
		return partial.Clone(), nil
	}
	if description == "" {
		description = partial.GameDescription
	}
	logging.Workflow("completing preferences: missing=%s", strings.Join(missing, ","))

	p := prompt.Preferences(description, partial)
	var last *types.StageError
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return partial, types.NewCancellation(StagePreferences, err)
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.cfg.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		}
		raw, err := c.gen.Generate(callCtx, p, perception.PreferencesSchema())
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return partial, types.NewCancellation(StagePreferences, ctx.Err())
			}
			last = types.NewTransportError(StagePreferences, err)
			last.Attempts = attempt
			p = prompt.Refine(p, last.Reason)
			continue
		}

		var generated types.UserPreferences
		if err := decode(raw, &generated, "preferences"); err != nil {
			last = types.NewTransportError(StagePreferences, err)
			last.Attempts = attempt
			p = prompt.Refine(p, last.Reason)
			continue
		}

		merged := partial.FillFrom(generated)
		if problems := preferenceProblems(merged); len(problems) > 0 {
			last = types.NewValidationError(StagePreferences, strings.Join(problems, "; "))
			last.Attempts = attempt
			p = prompt.Refine(p, problems...)
			continue
		}
		logging.WorkflowDebug("preferences completed after %d attempt(s)", attempt)
		return merged, nil
	}
	return partial, types.NewBudgetExhausted(StagePreferences, c.cfg.MaxRetries, last)
}

func preferenceProblems(p types.UserPreferences) []string {
	var problems []string
	for _, field := range p.MissingFields() {
		problems = append(problems, fmt.Sprintf("%s is required", field))
	}
	if p.NumberOfPlayers != "" {
		if _, err := p.PlayerRange(); err != nil {
			problems = append(problems, fmt.Sprintf("number_of_players: %v", err))
		}
	}
	return problems
}
