// Package fixtures provides a consistent sample game used across tests.
package fixtures

import (
	"fmt"

	"deckcrafter/internal/types"
)

// Preferences mirrors the default party game request.
func Preferences() types.UserPreferences {
	return types.UserPreferences{
		Language:          "Español",
		Theme:             "Fantasía tierra media ambientada en Toledo, España",
		GameStyle:         "Party game similar a Exploding Kittens",
		NumberOfPlayers:   "4-12",
		MaxUniqueCards:    20,
		TargetAudience:    "+18",
		RuleComplexity:    "Medio",
		ContentExclusions: []string{"explosivo"},
	}
}

// Concept returns a concept that satisfies Preferences. Twelve players with
// a hand of five and two cards each to draw need at least 84 cards.
func Concept() *types.GameConcept {
	return &types.GameConcept{
		Theme:           "Fantasía tierra media ambientada en Toledo, España",
		Title:           "Las Mazmorras de Toledo",
		Description:     "Los jugadores exploran las catacumbas bajo Toledo evitando las mazmorras.",
		Language:        "Español",
		GameStyle:       "Party game",
		GameDuration:    "20 minutos",
		NumberOfPlayers: "4-12",
		InitialHandSize: 5,
		CardTypes: []types.CardType{
			{Name: "Mazmorra", Description: "Elimina al jugador que la roba.", Quantity: 12, UniqueCards: 1},
			{Name: "Hechizo", Description: "Anula una mazmorra.", Quantity: 30, UniqueCards: 5},
			{Name: "Criatura", Description: "Roba o bloquea cartas.", Quantity: 30, UniqueCards: 6},
			{Name: "Acción", Description: "Altera el turno.", Quantity: 14, UniqueCards: 4},
		},
		NumberOfUniqueCards: 16,
		NumberOfTotalCards:  86,
		TargetAudience:      "+18",
		RuleComplexity:      "Medio",
	}
}

// Rules returns rules that scale the Mazmorra count with the players.
func Rules() *types.Rules {
	return &types.Rules{
		InitialHands:    "Cada jugador recibe 5 cartas y 1 Hechizo.",
		DeckPreparation: "Retira las Mazmorras, reparte las manos y baraja jugadores - 1 Mazmorras en el mazo.",
		TurnStructure:   "Juega cartas de acción y termina robando una carta.",
		WinConditions:   "Gana el último jugador que no haya caído en una Mazmorra.",
		ReactionPhase:   "Tras cada carta los demás pueden responder con un Hechizo.",
		DeckCounts: []types.DeckCount{
			{CardType: "Mazmorra", Count: "number_of_players - 1"},
			{CardType: "Hechizo", Count: "30"},
		},
	}
}

// Cards returns a card list whose quantities match Concept exactly.
func Cards() []types.Card {
	var cards []types.Card
	add := func(cardType string, quantities ...int) {
		for i, q := range quantities {
			cards = append(cards, types.Card{
				Name:     fmt.Sprintf("%s %d", cardType, i+1),
				Type:     cardType,
				Effect:   fmt.Sprintf("Efecto de %s %d.", cardType, i+1),
				Quantity: q,
			})
		}
	}
	add("Mazmorra", 12)
	add("Hechizo", 6, 6, 6, 6, 6)
	add("Criatura", 5, 5, 5, 5, 5, 5)
	add("Acción", 4, 4, 3, 3)
	return cards
}

// CardsOfType filters cards by type.
func CardsOfType(cards []types.Card, cardType string) []types.Card {
	var out []types.Card
	for _, c := range cards {
		if c.Type == cardType {
			out = append(out, c)
		}
	}
	return out
}
