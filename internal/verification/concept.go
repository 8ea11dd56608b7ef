package verification

import (
	"fmt"
	"slices"
	"strings"

	"deckcrafter/internal/types"
)

// Concept validates the concept stage result against the preferences.
func (v *Validator) Concept(prefs types.UserPreferences, c *types.GameConcept) Result {
	if c == nil {
		return newResult([]string{"concept is missing"})
	}
	problems := v.checkStruct("", c)

	if strings.TrimSpace(c.Theme) == "" && !slices.Contains(problems, "theme is required") {
		problems = append(problems, "theme is required")
	}

	maxPlayers := 0
	conceptRange, err := types.ParsePlayerRange(c.NumberOfPlayers)
	if err != nil {
		problems = append(problems, fmt.Sprintf("number_of_players: %v", err))
	} else {
		maxPlayers = conceptRange.Max
		if want, perr := prefs.PlayerRange(); perr == nil && !conceptRange.Covers(want) {
			problems = append(problems, fmt.Sprintf("number_of_players %s must cover the requested range %s", conceptRange, want))
		}
	}

	seen := make(map[string]bool, len(c.CardTypes))
	for i, t := range c.CardTypes {
		key := normalize(t.Name)
		if key == "" {
			continue // reported by the struct pass
		}
		if seen[key] {
			problems = append(problems, fmt.Sprintf("card_types[%d]: duplicate card type %q", i, t.Name))
		}
		seen[key] = true
		if t.UniqueCards > t.Quantity {
			problems = append(problems, fmt.Sprintf("card type %q declares %d unique cards but only %d copies", t.Name, t.UniqueCards, t.Quantity))
		}
	}

	total := c.TotalQuantity()
	if maxPlayers > 0 && c.InitialHandSize >= 1 {
		need := maxPlayers * (c.InitialHandSize + v.opts.DrawPileShare)
		if total < need {
			problems = append(problems, fmt.Sprintf(
				"deck has %d cards but %d players need %d (initial hand %d plus %d to draw each)",
				total, maxPlayers, need, c.InitialHandSize, v.opts.DrawPileShare))
		}
	}

	if prefs.MaxUniqueCards > 0 {
		if unique := c.TotalUnique(); unique > prefs.MaxUniqueCards {
			problems = append(problems, fmt.Sprintf("concept declares %d unique cards, the maximum is %d", unique, prefs.MaxUniqueCards))
		}
	}

	fields := []textField{
		{"theme", c.Theme},
		{"title", c.Title},
		{"description", c.Description},
	}
	for i, t := range c.CardTypes {
		fields = append(fields, textField{fmt.Sprintf("card_types[%d].name", i), t.Name})
	}
	problems = append(problems, exclusionProblems(prefs.ContentExclusions, fields)...)

	return newResult(problems)
}
