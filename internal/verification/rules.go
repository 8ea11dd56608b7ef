package verification

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"deckcrafter/internal/types"
)

// ScalingTypes returns the declared card types whose draw pile count must
// follow the number of players.
func (v *Validator) ScalingTypes(c *types.GameConcept) []types.CardType {
	if c == nil {
		return nil
	}
	var out []types.CardType
	for _, t := range c.CardTypes {
		if t.ScalesWithPlayers || v.isTrapName(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

func (v *Validator) isTrapName(name string) bool {
	n := normalize(name)
	for _, kw := range v.opts.TrapKeywords {
		if k := normalize(kw); k != "" && strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// Rules validates the rules stage result against the accepted concept.
func (v *Validator) Rules(prefs types.UserPreferences, c *types.GameConcept, r *types.Rules) Result {
	if r == nil {
		return newResult([]string{"rules are missing"})
	}
	if c == nil {
		return newResult([]string{"rules cannot be checked without a concept"})
	}
	problems := v.checkStruct("", r)

	for _, f := range []textField{
		{"turn_structure", r.TurnStructure},
		{"deck_preparation", r.DeckPreparation},
		{"win_conditions", r.WinConditions},
		{"initial_hands", r.InitialHands},
	} {
		msg := f.name + " is required"
		if strings.TrimSpace(f.text) == "" && !slices.Contains(problems, msg) {
			problems = append(problems, msg)
		}
	}

	scaling := v.ScalingTypes(c)
	scales := make(map[string]bool, len(scaling))
	for _, t := range scaling {
		scales[normalize(t.Name)] = true
	}

	counted := make(map[string]bool, len(scaling))
	for i, dc := range r.DeckCounts {
		declared, ok := findType(c, dc.CardType)
		if !ok {
			problems = append(problems, fmt.Sprintf("deck_counts[%d] references undeclared card type %q", i, dc.CardType))
			continue
		}
		if IsPlayersMinusOne(dc.Count) {
			counted[normalize(declared.Name)] = true
			continue
		}
		if scales[normalize(declared.Name)] {
			problems = append(problems, fmt.Sprintf(
				"deck_counts[%d]: %s count %q must be number_of_players - 1", i, declared.Name, dc.Count))
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(dc.Count))
		if err != nil {
			problems = append(problems, fmt.Sprintf(
				"deck_counts[%d]: %s count %q must be an integer or number_of_players - 1", i, declared.Name, dc.Count))
			continue
		}
		if n < 0 || n > declared.Quantity {
			problems = append(problems, fmt.Sprintf(
				"deck_counts[%d]: %s count %d exceeds the %d declared copies", i, declared.Name, n, declared.Quantity))
		}
	}
	for _, t := range scaling {
		if !counted[normalize(t.Name)] {
			problems = append(problems, fmt.Sprintf(
				"deck_counts must list %s with count number_of_players - 1", t.Name))
		}
	}

	// Only deck composition can hardcode a draw pile count.
	reported := make(map[string]bool)
	for _, term := range append(scalingNames(scaling), v.opts.TrapKeywords...) {
		if strings.TrimSpace(term) == "" {
			continue
		}
		for _, hit := range hardcodedCounts(r.DeckPreparation, strings.TrimSpace(term)) {
			if reported[hit] {
				continue
			}
			reported[hit] = true
			problems = append(problems, fmt.Sprintf(
				"deck_preparation hardcodes %q; express the count as number_of_players - 1", hit))
		}
	}

	fields := []textField{
		{"initial_hands", r.InitialHands},
		{"deck_preparation", r.DeckPreparation},
		{"turn_structure", r.TurnStructure},
		{"reaction_phase", r.ReactionPhase},
		{"end_of_round", r.EndOfRound},
		{"win_conditions", r.WinConditions},
		{"scoring_system", r.ScoringSystem},
		{"resource_mechanics", r.ResourceMechanics},
	}
	for i, rule := range r.AdditionalRules {
		fields = append(fields, textField{fmt.Sprintf("additional_rules[%d]", i), rule})
	}
	problems = append(problems, exclusionProblems(prefs.ContentExclusions, fields)...)

	return newResult(problems)
}

func scalingNames(scaling []types.CardType) []string {
	names := make([]string, 0, len(scaling))
	for _, t := range scaling {
		names = append(names, t.Name)
	}
	return names
}

func findType(c *types.GameConcept, name string) (types.CardType, bool) {
	key := normalize(name)
	for _, t := range c.CardTypes {
		if normalize(t.Name) == key {
			return t, true
		}
	}
	return types.CardType{}, false
}
