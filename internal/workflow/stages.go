package workflow

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"deckcrafter/internal/logging"
	"deckcrafter/internal/perception"
	"deckcrafter/internal/prompt"
	"deckcrafter/internal/types"
	"deckcrafter/internal/verification"
)

// stageRunner holds the stage-specific steps of the attempt loop. A runner
// lives for one execution of a stage; nothing reaches the state before commit.
type stageRunner interface {
	schema() perception.Schema
	prompt() string
	// evaluate decodes and validates an answer. Decode failures are errors.
	evaluate(raw json.RawMessage) (verification.Result, error)
	corrections(verdict verification.Result) []string
	commit(state *types.GameState)
}

func (c *Controller) runnerFor(state *types.GameState, stage types.Stage) stageRunner {
	prefs := *state.Preferences
	switch stage {
	case types.StageConcept:
		return &conceptRunner{v: c.validator, prefs: prefs}
	case types.StageRules:
		return &rulesRunner{v: c.validator, prefs: prefs, concept: state.Concept}
	default:
		return &cardsRunner{v: c.validator, prefs: prefs, concept: state.Concept, rules: state.Rules, locked: make(map[string]bool)}
	}
}

func decode(raw json.RawMessage, v any, what string) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}

// =============================================================================
// CONCEPT
// =============================================================================

type conceptRunner struct {
	v       *verification.Validator
	prefs   types.UserPreferences
	pending *types.GameConcept
}

func (r *conceptRunner) schema() perception.Schema { return perception.ConceptSchema() }

func (r *conceptRunner) prompt() string { return prompt.Concept(r.prefs) }

func (r *conceptRunner) evaluate(raw json.RawMessage) (verification.Result, error) {
	var concept types.GameConcept
	if err := decode(raw, &concept, "concept"); err != nil {
		return verification.Result{}, err
	}
	applyPreferences(&concept, r.prefs)
	r.pending = &concept
	return r.v.Concept(r.prefs, &concept), nil
}

func (r *conceptRunner) corrections(verdict verification.Result) []string { return verdict.Problems }

func (r *conceptRunner) commit(state *types.GameState) {
	state.Concept = r.pending
}

// applyPreferences overrides concept fields the user chose explicitly and
// recomputes the derived totals.
func applyPreferences(c *types.GameConcept, prefs types.UserPreferences) {
	if prefs.Language != "" {
		c.Language = prefs.Language
	}
	if prefs.RuleComplexity != "" {
		c.RuleComplexity = prefs.RuleComplexity
	}
	if prefs.TargetAudience != "" {
		c.TargetAudience = prefs.TargetAudience
	}
	c.NumberOfUniqueCards = c.TotalUnique()
	c.NumberOfTotalCards = c.TotalQuantity()
}

// =============================================================================
// RULES
// =============================================================================

type rulesRunner struct {
	v       *verification.Validator
	prefs   types.UserPreferences
	concept *types.GameConcept
	pending *types.Rules
}

func (r *rulesRunner) schema() perception.Schema { return perception.RulesSchema() }

func (r *rulesRunner) prompt() string {
	return prompt.Rules(r.prefs, r.concept, r.v.ScalingTypes(r.concept))
}

func (r *rulesRunner) evaluate(raw json.RawMessage) (verification.Result, error) {
	var rules types.Rules
	if err := decode(raw, &rules, "rules"); err != nil {
		return verification.Result{}, err
	}
	r.pending = &rules
	return r.v.Rules(r.prefs, r.concept, &rules), nil
}

func (r *rulesRunner) corrections(verdict verification.Result) []string { return verdict.Problems }

func (r *rulesRunner) commit(state *types.GameState) {
	state.Rules = r.pending
}

// =============================================================================
// CARDS
// =============================================================================

// cardsRunner accumulates a draft across attempts. Types that were complete
// after a rejected attempt are locked; later answers may only add to or
// replace cards of the other declared types.
type cardsRunner struct {
	v       *verification.Validator
	prefs   types.UserPreferences
	concept *types.GameConcept
	rules   *types.Rules

	draft    []types.Card
	locked   map[string]bool
	requests []prompt.CardRequest
}

func (r *cardsRunner) schema() perception.Schema { return perception.CardsSchema() }

func (r *cardsRunner) prompt() string {
	return prompt.Cards(r.prefs, r.concept, r.rules)
}

func (r *cardsRunner) evaluate(raw json.RawMessage) (verification.Result, error) {
	var list types.CardList
	if err := decode(raw, &list, "cards"); err != nil {
		return verification.Result{}, err
	}
	r.merge(list.Cards)

	verdict, _ := r.v.Cards(r.prefs, r.concept, r.draft)
	if !verdict.Passed {
		r.prepareRetry()
	}
	return verdict, nil
}

func (r *cardsRunner) corrections(verdict verification.Result) []string {
	return append(slices.Clone(verdict.Problems), prompt.CardCorrections(r.requests)...)
}

func (r *cardsRunner) commit(state *types.GameState) {
	state.Cards = r.draft
}

// merge folds an answer into the draft. Cards of undeclared or locked types
// are dropped; a card whose name already exists in its type replaces it.
func (r *cardsRunner) merge(cards []types.Card) {
	for _, card := range cards {
		declared, ok := r.declaredType(card.Type)
		if !ok {
			logging.ValidationDebug("dropping card %q of undeclared type %q", card.Name, card.Type)
			continue
		}
		if r.locked[key(declared)] {
			logging.ValidationDebug("dropping card %q: type %s is complete", card.Name, declared)
			continue
		}
		card.Type = declared
		if i := r.indexOf(declared, card.Name); i >= 0 {
			r.draft[i] = card
			continue
		}
		r.draft = append(r.draft, card)
	}
}

// prepareRetry discards invalid cards and over-filled types, locks complete
// types and records the per-type requests for the next attempt.
func (r *cardsRunner) prepareRetry() {
	kept := r.draft[:0]
	for i := range r.draft {
		if problems := r.v.CardProblems(r.prefs, &r.draft[i]); len(problems) > 0 {
			logging.ValidationDebug("dropping card %q: %s", r.draft[i].Name, strings.Join(problems, "; "))
			continue
		}
		kept = append(kept, r.draft[i])
	}
	r.draft = kept

	report := verification.Tallies(r.concept, r.draft)
	r.requests = r.requests[:0]
	for _, t := range report.Tallies {
		switch {
		case t.Complete():
			r.locked[key(t.Type)] = true
		case t.NeedsRegeneration():
			r.dropType(t.Type)
			r.requests = append(r.requests, prompt.CardRequest{
				Type:        t.Type,
				Total:       t.WantQuantity,
				TotalUnique: t.WantUnique,
				Regenerate:  true,
			})
		default:
			reduced := r.reduce(t.Type, t.Surplus())
			r.requests = append(r.requests, prompt.CardRequest{
				Type:        t.Type,
				NewUnique:   t.MissingUnique(),
				Copies:      t.MissingQuantity() + t.Surplus(),
				Total:       t.WantQuantity,
				TotalUnique: t.WantUnique,
				Keep:        r.names(t.Type),
				Reduced:     reduced,
			})
		}
	}
}

// reduce lowers the quantities of the kept cards of a type by surplus copies,
// always taking from the card with the most copies and never below one.
func (r *cardsRunner) reduce(cardType string, surplus int) []prompt.CardQuantity {
	lowered := make(map[int]bool)
	for ; surplus > 0; surplus-- {
		top := -1
		for i, c := range r.draft {
			if c.Type == cardType && c.Quantity > 1 && (top < 0 || c.Quantity > r.draft[top].Quantity) {
				top = i
			}
		}
		if top < 0 {
			break
		}
		r.draft[top].Quantity--
		lowered[top] = true
	}
	var out []prompt.CardQuantity
	for i, c := range r.draft {
		if lowered[i] {
			out = append(out, prompt.CardQuantity{Name: c.Name, Quantity: c.Quantity})
		}
	}
	return out
}

func (r *cardsRunner) declaredType(name string) (string, bool) {
	for _, t := range r.concept.CardTypes {
		if key(t.Name) == key(name) {
			return t.Name, true
		}
	}
	return "", false
}

func (r *cardsRunner) indexOf(cardType, name string) int {
	for i, c := range r.draft {
		if c.Type == cardType && key(c.Name) == key(name) {
			return i
		}
	}
	return -1
}

func (r *cardsRunner) dropType(cardType string) {
	kept := r.draft[:0]
	for _, c := range r.draft {
		if c.Type != cardType {
			kept = append(kept, c)
		}
	}
	r.draft = kept
}

func (r *cardsRunner) names(cardType string) []string {
	var out []string
	for _, c := range r.draft {
		if c.Type == cardType {
			out = append(out, c.Name)
		}
	}
	return out
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
