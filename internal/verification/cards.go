package verification

import (
	"fmt"
	"slices"
	"strings"

	"deckcrafter/internal/types"
)

// TypeTally compares the cards generated for one type with the concept.
type TypeTally struct {
	Type         string `json:"type"`
	WantUnique   int    `json:"want_unique"`
	HaveUnique   int    `json:"have_unique"`
	WantQuantity int    `json:"want_quantity"`
	HaveQuantity int    `json:"have_quantity"`
}

// Complete reports whether the type matches its declaration exactly.
func (t TypeTally) Complete() bool {
	return t.HaveUnique == t.WantUnique && t.HaveQuantity == t.WantQuantity
}

// MissingUnique is the number of distinct names still needed.
func (t TypeTally) MissingUnique() int {
	return max(t.WantUnique-t.HaveUnique, 0)
}

// MissingQuantity is the number of copies still needed.
func (t TypeTally) MissingQuantity() int {
	return max(t.WantQuantity-t.HaveQuantity, 0)
}

// Short reports whether the type can be completed by adding cards, by
// resending an existing card with a corrected quantity, or by lowering kept
// quantities to make room for the missing names.
func (t TypeTally) Short() bool {
	if t.Complete() || t.HaveUnique > t.WantUnique || t.WantQuantity < t.WantUnique {
		return false
	}
	return t.HaveUnique < t.WantUnique || t.HaveQuantity < t.WantQuantity
}

// Surplus is the number of copies the kept cards must give up so that every
// missing name gets at least one copy.
func (t TypeTally) Surplus() int {
	return max(t.HaveQuantity+t.MissingUnique()-t.WantQuantity, 0)
}

// NeedsRegeneration reports whether the cards of this type must be discarded
// and generated again: too many names, or too many copies of the right names.
func (t TypeTally) NeedsRegeneration() bool {
	return !t.Complete() && !t.Short()
}

func (t TypeTally) String() string {
	return fmt.Sprintf("%s has %d of %d unique cards and %d of %d copies",
		t.Type, t.HaveUnique, t.WantUnique, t.HaveQuantity, t.WantQuantity)
}

// CardReport is the per-type breakdown of a card list.
type CardReport struct {
	Tallies []TypeTally `json:"tallies"`
	// UnknownTypes lists card types that the concept does not declare.
	UnknownTypes []string `json:"unknown_types,omitempty"`
}

// Tally returns the tally for a declared type.
func (r *CardReport) Tally(cardType string) (TypeTally, bool) {
	key := normalize(cardType)
	for _, t := range r.Tallies {
		if normalize(t.Type) == key {
			return t, true
		}
	}
	return TypeTally{}, false
}

// ShortTypes returns the incomplete types that can be topped up.
func (r *CardReport) ShortTypes() []TypeTally {
	var out []TypeTally
	for _, t := range r.Tallies {
		if t.Short() {
			out = append(out, t)
		}
	}
	return out
}

// RegenerateTypes returns the types whose cards must be generated again.
func (r *CardReport) RegenerateTypes() []TypeTally {
	var out []TypeTally
	for _, t := range r.Tallies {
		if t.NeedsRegeneration() {
			out = append(out, t)
		}
	}
	return out
}

// Complete reports whether every declared type is complete and no card has an
// undeclared type.
func (r *CardReport) Complete() bool {
	if len(r.UnknownTypes) > 0 {
		return false
	}
	for _, t := range r.Tallies {
		if !t.Complete() {
			return false
		}
	}
	return true
}

// Tallies counts cards per declared type. Names are compared case-insensitively.
func Tallies(c *types.GameConcept, cards []types.Card) *CardReport {
	report := &CardReport{}
	if c == nil {
		return report
	}
	index := make(map[string]int, len(c.CardTypes))
	names := make([]map[string]bool, len(c.CardTypes))
	for i, t := range c.CardTypes {
		index[normalize(t.Name)] = i
		names[i] = make(map[string]bool)
		report.Tallies = append(report.Tallies, TypeTally{
			Type:         t.Name,
			WantUnique:   t.UniqueCards,
			WantQuantity: t.Quantity,
		})
	}
	unknown := make(map[string]bool)
	for _, card := range cards {
		i, ok := index[normalize(card.Type)]
		if !ok {
			if !unknown[card.Type] {
				unknown[card.Type] = true
				report.UnknownTypes = append(report.UnknownTypes, card.Type)
			}
			continue
		}
		report.Tallies[i].HaveQuantity += card.Quantity
		if n := normalize(card.Name); n != "" && !names[i][n] {
			names[i][n] = true
			report.Tallies[i].HaveUnique++
		}
	}
	return report
}

// Cards validates a complete card list against the concept.
func (v *Validator) Cards(prefs types.UserPreferences, c *types.GameConcept, cards []types.Card) (Result, *CardReport) {
	if c == nil {
		return newResult([]string{"cards cannot be checked without a concept"}), &CardReport{}
	}
	var problems []string
	if len(cards) == 0 {
		problems = append(problems, "no cards were generated")
	}
	for i := range cards {
		problems = append(problems, v.CheckCard(fmt.Sprintf("cards[%d].", i), &cards[i])...)
	}

	report := Tallies(c, cards)
	for _, name := range report.UnknownTypes {
		problems = append(problems, fmt.Sprintf("card type %q is not declared by the concept", name))
	}
	for _, t := range report.Tallies {
		if t.Complete() {
			continue
		}
		problems = append(problems, describeDeficit(t))
	}

	var fields []textField
	for i, card := range cards {
		fields = append(fields,
			textField{fmt.Sprintf("cards[%d].name", i), card.Name},
			textField{fmt.Sprintf("cards[%d].effect", i), card.Effect},
			textField{fmt.Sprintf("cards[%d].flavor_text", i), card.FlavorText},
		)
	}
	problems = append(problems, exclusionProblems(prefs.ContentExclusions, fields)...)

	return newResult(problems), report
}

// CheckCard runs the per-card structural checks.
func (v *Validator) CheckCard(prefix string, card *types.Card) []string {
	problems := v.checkStruct(prefix, card)
	for _, f := range []textField{{"name", card.Name}, {"type", card.Type}, {"effect", card.Effect}} {
		msg := prefix + f.name + " is required"
		if strings.TrimSpace(f.text) == "" && !slices.Contains(problems, msg) {
			problems = append(problems, msg)
		}
	}
	return problems
}

// CardProblems returns the structural and excluded content problems of one
// card, independent of its type tally.
func (v *Validator) CardProblems(prefs types.UserPreferences, card *types.Card) []string {
	problems := v.CheckCard("", card)
	return append(problems, exclusionProblems(prefs.ContentExclusions, []textField{
		{"name", card.Name},
		{"effect", card.Effect},
		{"flavor_text", card.FlavorText},
	})...)
}

func describeDeficit(t TypeTally) string {
	var parts []string
	switch {
	case t.HaveUnique < t.WantUnique:
		parts = append(parts, fmt.Sprintf("missing %d unique cards", t.WantUnique-t.HaveUnique))
	case t.HaveUnique > t.WantUnique:
		parts = append(parts, fmt.Sprintf("%d unique cards too many", t.HaveUnique-t.WantUnique))
	}
	switch {
	case t.HaveQuantity < t.WantQuantity:
		parts = append(parts, fmt.Sprintf("missing %d copies", t.WantQuantity-t.HaveQuantity))
	case t.HaveQuantity > t.WantQuantity:
		parts = append(parts, fmt.Sprintf("%d copies too many", t.HaveQuantity-t.WantQuantity))
	}
	return fmt.Sprintf("%s: %s", t, strings.Join(parts, ", "))
}
