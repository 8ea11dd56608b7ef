// Package prompt builds the text sent to the generation model for each stage.
// Every function here is pure: the same inputs always produce the same prompt.
package prompt

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"deckcrafter/internal/types"
)

const designerRole = "You are a world-class card game designer."

// Preferences asks the model to complete a partial set of preferences.
func Preferences(description string, partial types.UserPreferences) string {
	var sb strings.Builder
	sb.WriteString(designerRole)
	sb.WriteString("\nComplete every user preference for a card game using the information below.\n")
	sb.WriteString("Keep every preference that is already set. Fill the missing ones so they are coherent with the description ")
	sb.WriteString("and the other preferences. If information is lacking make a reasonable guess; never leave a field empty.\n\n")
	fmt.Fprintf(&sb, "Game description: %s\n", orNone(description))
	fmt.Fprintf(&sb, "Partial preferences:\n%s\n", toJSON(partial))
	if missing := partial.MissingFields(); len(missing) > 0 {
		fmt.Fprintf(&sb, "\nMissing fields: %s\n", strings.Join(missing, ", "))
	}
	return sb.String()
}

// Concept asks for a game concept matching the preferences.
func Concept(prefs types.UserPreferences) string {
	var sb strings.Builder
	sb.WriteString(designerRole)
	sb.WriteString("\nCreate a concept for a unique and engaging card game based on these user preferences:\n\n")
	sb.WriteString(toJSON(prefs))
	sb.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(&sb, "- Write every text field in %s.\n", prefs.Language)
	fmt.Fprintf(&sb, "- number_of_players must cover %s.\n", prefs.NumberOfPlayers)
	sb.WriteString("- Declare every card type with its total quantity (physical copies) and unique_cards (distinct designs); unique_cards never exceeds quantity.\n")
	sb.WriteString("- The deck must hold an initial hand for every player at the maximum player count plus enough cards left to draw.\n")
	sb.WriteString("- Set scales_with_players on card types whose draw pile count depends on the number of players.\n")
	if prefs.MaxUniqueCards > 0 {
		fmt.Fprintf(&sb, "- Use at most %d unique cards across all types.\n", prefs.MaxUniqueCards)
	}
	writeExclusions(&sb, prefs.ContentExclusions)
	return sb.String()
}

// Rules asks for the rules of an accepted concept. scaling lists the card
// types whose draw pile count follows the number of players.
func Rules(prefs types.UserPreferences, concept *types.GameConcept, scaling []types.CardType) string {
	var sb strings.Builder
	sb.WriteString(designerRole)
	sb.WriteString("\nCreate comprehensive rules for the card game described by this concept:\n\n")
	sb.WriteString(toJSON(concept))
	sb.WriteString("\n\nRequirements:\n")
	fmt.Fprintf(&sb, "- Write the rules in %s.\n", concept.Language)
	sb.WriteString("- Rules must be clear, balanced and suitable for the target audience ")
	fmt.Fprintf(&sb, "(%s) and complexity (%s).\n", prefs.TargetAudience, prefs.RuleComplexity)
	sb.WriteString("- Fill initial_hands, deck_preparation, turn_structure and win_conditions.\n")
	sb.WriteString("- List in deck_counts how many cards of each type go into the draw pile, as an integer or as \"number_of_players - 1\".\n")
	if len(scaling) > 0 {
		names := make([]string, 0, len(scaling))
		for _, t := range scaling {
			names = append(names, t.Name)
		}
		fmt.Fprintf(&sb, "- The draw pile holds exactly number_of_players - 1 cards of: %s. Never state a fixed number for them.\n",
			strings.Join(names, ", "))
	}
	writeExclusions(&sb, prefs.ContentExclusions)
	return sb.String()
}

// Cards asks for the complete card list of a game.
func Cards(prefs types.UserPreferences, concept *types.GameConcept, rules *types.Rules) string {
	var sb strings.Builder
	sb.WriteString(designerRole)
	sb.WriteString("\nGenerate the complete list of cards for the game below.\n\nGame concept:\n")
	sb.WriteString(toJSON(concept))
	sb.WriteString("\n\nRules:\n")
	sb.WriteString(toJSON(rules))
	sb.WriteString("\n\nCard distribution plan:\n")
	for _, t := range ordered(concept.CardTypes) {
		fmt.Fprintf(&sb, "- %s: exactly %d unique cards, %d copies in total\n", t.Name, t.UniqueCards, t.Quantity)
	}
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- type must be one of the declared card types.\n")
	sb.WriteString("- quantity is the number of copies of that card; the quantities of a type add up to its total.\n")
	sb.WriteString("- Every card needs a distinct name and an effect consistent with the rules.\n")
	fmt.Fprintf(&sb, "- Write every text field in %s.\n", concept.Language)
	writeExclusions(&sb, prefs.ContentExclusions)
	return sb.String()
}

// ordered returns the card types by descending quantity, the order in which
// they are generated.
func ordered(cardTypes []types.CardType) []types.CardType {
	out := slices.Clone(cardTypes)
	slices.SortStableFunc(out, func(a, b types.CardType) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	return out
}

func writeExclusions(sb *strings.Builder, exclusions []string) {
	if len(exclusions) == 0 {
		return
	}
	fmt.Fprintf(sb, "- Never mention: %s.\n", strings.Join(exclusions, ", "))
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
