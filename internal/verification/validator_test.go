package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckcrafter/internal/fixtures"
	"deckcrafter/internal/types"
)

func newValidator() *Validator {
	return New(DefaultOptions())
}

func TestConceptAccepted(t *testing.T) {
	v := newValidator()
	res := v.Concept(fixtures.Preferences(), fixtures.Concept())
	assert.True(t, res.Passed, res.Reason)
	assert.Empty(t, res.Problems)
}

func TestConceptRejections(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name   string
		mutate func(c *types.GameConcept)
		want   string
	}{
		{
			name:   "empty theme",
			mutate: func(c *types.GameConcept) { c.Theme = "  " },
			want:   "theme is required",
		},
		{
			name:   "narrow player range",
			mutate: func(c *types.GameConcept) { c.NumberOfPlayers = "4-8" },
			want:   "must cover the requested range 4-12",
		},
		{
			name:   "unique above quantity",
			mutate: func(c *types.GameConcept) { c.CardTypes[1].UniqueCards = 31 },
			want:   `card type "Hechizo" declares 31 unique cards but only 30 copies`,
		},
		{
			name:   "deck too small",
			mutate: func(c *types.GameConcept) { c.CardTypes[2].Quantity = 10 },
			want:   "deck has 66 cards but 12 players need 84",
		},
		{
			name:   "too many unique cards",
			mutate: func(c *types.GameConcept) { c.CardTypes[2].UniqueCards = 11 },
			want:   "concept declares 21 unique cards, the maximum is 20",
		},
		{
			name:   "duplicate type",
			mutate: func(c *types.GameConcept) { c.CardTypes[3].Name = "hechizo" },
			want:   "duplicate card type",
		},
		{
			name:   "excluded content",
			mutate: func(c *types.GameConcept) { c.Title = "Gatitos Explosivos" },
			want:   `title mentions excluded content "explosivo"`,
		},
		{
			name:   "missing hand size",
			mutate: func(c *types.GameConcept) { c.InitialHandSize = 0 },
			want:   "initial_hand_size must be at least 1",
		},
		{
			name:   "no card types",
			mutate: func(c *types.GameConcept) { c.CardTypes = nil },
			want:   "card_types is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixtures.Concept()
			tt.mutate(c)
			res := v.Concept(fixtures.Preferences(), c)
			require.False(t, res.Passed)
			assert.Contains(t, res.Reason, tt.want)
		})
	}
}

func TestConceptNil(t *testing.T) {
	res := newValidator().Concept(fixtures.Preferences(), nil)
	assert.False(t, res.Passed)
}

func TestRulesMazmorraScaling(t *testing.T) {
	v := newValidator()
	prefs := fixtures.Preferences()
	concept := fixtures.Concept()

	accepted := fixtures.Rules()
	res := v.Rules(prefs, concept, accepted)
	require.True(t, res.Passed, res.Reason)

	hardcoded := fixtures.Rules()
	hardcoded.DeckPreparation = "Reparte las manos e include 3 Mazmorras en el mazo."
	res = v.Rules(prefs, concept, hardcoded)
	require.False(t, res.Passed)
	assert.Contains(t, res.Reason, `deck_preparation hardcodes "3 Mazmorras`)

	// The same text is rejected whatever the player count is.
	concept.NumberOfPlayers = "4"
	res = v.Rules(prefs, concept, hardcoded)
	assert.False(t, res.Passed)
}

func TestRulesDeckCounts(t *testing.T) {
	v := newValidator()
	prefs := fixtures.Preferences()
	concept := fixtures.Concept()

	tests := []struct {
		name   string
		counts []types.DeckCount
		pass   bool
		want   string
	}{
		{name: "spanish minus one", counts: []types.DeckCount{{CardType: "Mazmorra", Count: "jugadores menos uno"}}, pass: true},
		{name: "short form", counts: []types.DeckCount{{CardType: "mazmorra", Count: "(n-1)"}}, pass: true},
		{name: "constant for trap", counts: []types.DeckCount{{CardType: "Mazmorra", Count: "3"}}, want: `Mazmorra count "3" must be number_of_players - 1`},
		{name: "constant within quantity", counts: []types.DeckCount{{CardType: "Criatura", Count: "30"}}, pass: true},
		{name: "constant above quantity", counts: []types.DeckCount{{CardType: "Criatura", Count: "31"}}, want: "exceeds the 30 declared copies"},
		{name: "free text", counts: []types.DeckCount{{CardType: "Criatura", Count: "all"}}, want: "must be an integer"},
		{name: "unknown type", counts: []types.DeckCount{{CardType: "Dragón", Count: "2"}}, want: `undeclared card type "Dragón"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fixtures.Rules()
			r.DeckCounts = append([]types.DeckCount{{CardType: "Mazmorra", Count: "number_of_players - 1"}}, tt.counts...)
			res := v.Rules(prefs, concept, r)
			assert.Equal(t, tt.pass, res.Passed, res.Reason)
			if !tt.pass {
				assert.Contains(t, res.Reason, tt.want)
			}
		})
	}
}

func TestRulesScalingFlagAndKeywords(t *testing.T) {
	v := New(Options{TrapKeywords: []string{"trampa"}})
	concept := fixtures.Concept()
	concept.CardTypes[0].Name = "Carta Trampa"
	concept.CardTypes[3].ScalesWithPlayers = true

	names := []string{}
	for _, ct := range v.ScalingTypes(concept) {
		names = append(names, ct.Name)
	}
	assert.Equal(t, []string{"Carta Trampa", "Acción"}, names)

	r := fixtures.Rules()
	r.DeckCounts = []types.DeckCount{
		{CardType: "Carta Trampa", Count: "players - 1"},
		{CardType: "Acción", Count: "players - 1"},
	}
	r.DeckPreparation = "Baraja 2 trampas en el mazo."
	res := v.Rules(fixtures.Preferences(), concept, r)
	require.False(t, res.Passed)
	assert.Contains(t, res.Reason, `deck_preparation hardcodes "2 trampas`)
}

func TestRulesRequireScalingDeckCounts(t *testing.T) {
	v := newValidator()
	r := fixtures.Rules()
	r.DeckCounts = nil
	r.DeckPreparation = "Reparte las manos y baraja todas las Mazmorras en el mazo."
	res := v.Rules(fixtures.Preferences(), fixtures.Concept(), r)
	require.False(t, res.Passed)
	assert.Equal(t, []string{"deck_counts must list Mazmorra with count number_of_players - 1"}, res.Problems)

	concept := fixtures.Concept()
	concept.CardTypes[3].ScalesWithPlayers = true
	r.DeckCounts = []types.DeckCount{{CardType: "Mazmorra", Count: "jugadores - 1"}}
	res = v.Rules(fixtures.Preferences(), concept, r)
	require.False(t, res.Passed)
	assert.Equal(t, []string{"deck_counts must list Acción with count number_of_players - 1"}, res.Problems)
}

func TestRulesIgnoreNumbersOutsideDeckCounts(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name   string
		mutate func(*types.Rules)
	}{
		{name: "hand size", mutate: func(r *types.Rules) { r.InitialHands = "Reparte 7 cartas y Mazmorras nunca van a la mano." }},
		{name: "gameplay rule", mutate: func(r *types.Rules) {
			r.AdditionalRules = []string{"Si un jugador roba 2 Mazmorras seguidas, queda eliminado."}
		}},
		{name: "deal without trap count", mutate: func(r *types.Rules) {
			r.DeckPreparation = "Reparte 7 cartas y baraja jugadores - 1 Mazmorras en el mazo."
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fixtures.Rules()
			tt.mutate(r)
			res := v.Rules(fixtures.Preferences(), fixtures.Concept(), r)
			assert.True(t, res.Passed, res.Reason)
		})
	}
}

func TestRulesRequiredText(t *testing.T) {
	r := fixtures.Rules()
	r.TurnStructure = ""
	r.WinConditions = " "
	res := newValidator().Rules(fixtures.Preferences(), fixtures.Concept(), r)
	require.False(t, res.Passed)
	assert.Contains(t, res.Problems, "turn_structure is required")
	assert.Contains(t, res.Problems, "win_conditions is required")
}

func TestCardsAccepted(t *testing.T) {
	res, report := newValidator().Cards(fixtures.Preferences(), fixtures.Concept(), fixtures.Cards())
	require.True(t, res.Passed, res.Reason)
	assert.True(t, report.Complete())
}

func TestCardsHechizoDeficit(t *testing.T) {
	var cards []types.Card
	for _, c := range fixtures.Cards() {
		if c.Name == "Hechizo 5" {
			continue
		}
		cards = append(cards, c)
	}

	res, report := newValidator().Cards(fixtures.Preferences(), fixtures.Concept(), cards)
	require.False(t, res.Passed)
	assert.Contains(t, res.Reason, "Hechizo has 4 of 5 unique cards and 24 of 30 copies: missing 1 unique cards, missing 6 copies")

	tally, ok := report.Tally("hechizo")
	require.True(t, ok)
	assert.Equal(t, 1, tally.MissingUnique())
	assert.Equal(t, 6, tally.MissingQuantity())
	assert.True(t, tally.Short())
	assert.Len(t, report.ShortTypes(), 1)
	assert.Empty(t, report.RegenerateTypes())
}

func TestTallyShortOnNamesWithFullCopies(t *testing.T) {
	tests := []struct {
		name    string
		tally   TypeTally
		short   bool
		surplus int
	}{
		{name: "names and copies missing", tally: TypeTally{WantUnique: 5, HaveUnique: 4, WantQuantity: 30, HaveQuantity: 24}, short: true},
		{name: "copies full", tally: TypeTally{WantUnique: 5, HaveUnique: 4, WantQuantity: 30, HaveQuantity: 30}, short: true, surplus: 1},
		{name: "copies over", tally: TypeTally{WantUnique: 5, HaveUnique: 3, WantQuantity: 30, HaveQuantity: 31}, short: true, surplus: 3},
		{name: "names full copies missing", tally: TypeTally{WantUnique: 5, HaveUnique: 5, WantQuantity: 30, HaveQuantity: 29}, short: true},
		{name: "names full copies over", tally: TypeTally{WantUnique: 5, HaveUnique: 5, WantQuantity: 30, HaveQuantity: 31}, surplus: 1},
		{name: "too many names", tally: TypeTally{WantUnique: 5, HaveUnique: 6, WantQuantity: 30, HaveQuantity: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.short, tt.tally.Short())
			assert.Equal(t, !tt.short, tt.tally.NeedsRegeneration())
			assert.Equal(t, tt.surplus, tt.tally.Surplus())
		})
	}
}

func TestCardsOverfilledNeedsRegeneration(t *testing.T) {
	cards := fixtures.Cards()
	cards = append(cards, types.Card{Name: "Criatura 7", Type: "Criatura", Effect: "x", Quantity: 1})

	res, report := newValidator().Cards(fixtures.Preferences(), fixtures.Concept(), cards)
	require.False(t, res.Passed)
	regen := report.RegenerateTypes()
	require.Len(t, regen, 1)
	assert.Equal(t, "Criatura", regen[0].Type)
	assert.Contains(t, res.Reason, "1 unique cards too many, 1 copies too many")
}

func TestCardsUnknownTypeAndInvalidCard(t *testing.T) {
	cards := fixtures.Cards()
	cards = append(cards, types.Card{Name: "Dragón", Type: "Jefe", Effect: "x", Quantity: 1})
	cards[0].Effect = ""

	res, report := newValidator().Cards(fixtures.Preferences(), fixtures.Concept(), cards)
	require.False(t, res.Passed)
	assert.Equal(t, []string{"Jefe"}, report.UnknownTypes)
	assert.Contains(t, res.Problems, "cards[0].effect is required")
	assert.Contains(t, res.Reason, `card type "Jefe" is not declared`)
}

func TestCardsQuantityConsistency(t *testing.T) {
	concept := fixtures.Concept()
	cards := fixtures.Cards()
	res, _ := newValidator().Cards(fixtures.Preferences(), concept, cards)
	require.True(t, res.Passed)

	for _, ct := range concept.CardTypes {
		sum := 0
		for _, c := range fixtures.CardsOfType(cards, ct.Name) {
			sum += c.Quantity
		}
		assert.Equal(t, ct.Quantity, sum, ct.Name)
	}
}

func TestValidatorsIdempotent(t *testing.T) {
	v := newValidator()
	prefs := fixtures.Preferences()
	concept := fixtures.Concept()
	rules := fixtures.Rules()
	cards := fixtures.Cards()

	for i := 0; i < 3; i++ {
		assert.True(t, v.Concept(prefs, concept).Passed)
		assert.True(t, v.Rules(prefs, concept, rules).Passed)
		res, _ := v.Cards(prefs, concept, cards)
		assert.True(t, res.Passed)
	}

	bad := fixtures.Rules()
	bad.DeckPreparation = "include 3 Mazmorras"
	first := v.Rules(prefs, concept, bad)
	second := v.Rules(prefs, concept, bad)
	assert.Equal(t, first, second)
}

func TestIsPlayersMinusOne(t *testing.T) {
	for _, expr := range []string{"players - 1", "players-1", "number_of_players - 1", "Número de jugadores menos 1", "n - 1", "(players minus one)", "jugadores − 1"} {
		assert.True(t, IsPlayersMinusOne(expr), expr)
	}
	for _, expr := range []string{"3", "players", "players - 2", "players + 1", ""} {
		assert.False(t, IsPlayersMinusOne(expr), expr)
	}
}

func TestHardcodedCountsIgnoresMinusOne(t *testing.T) {
	assert.Empty(t, hardcodedCounts("baraja jugadores menos 1 cartas de Mazmorra", "Mazmorra"))
	assert.Equal(t, []string{"3 cartas de Mazmorra"}, hardcodedCounts("Añade 3 cartas de Mazmorra", "Mazmorra"))
	assert.Empty(t, hardcodedCounts("Reparte 7 cartas y Mazmorras nunca van a la mano", "Mazmorra"))
}
