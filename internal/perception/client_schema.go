package perception

// Response schemas for each generation stage. Providers enforce them as far
// as they can; the stage validators remain authoritative.

func str(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func integer(description string, minimum int) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description, "minimum": minimum}
}

func object(properties map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func array(items map[string]interface{}, description string) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": items, "description": description}
}

// PreferencesSchema completes user preferences.
func PreferencesSchema() Schema {
	return Schema{Name: "UserPreferences", Definition: object(map[string]interface{}{
		"language":          str("The language of the game."),
		"theme":             str("The theme of the card game."),
		"game_style":        str("The style of the game (party game, competitive...)."),
		"number_of_players": str("Player range, for example 4-12."),
		"max_unique_cards":  integer("Maximum number of unique cards.", 1),
		"target_audience":   str("The target audience (age group)."),
		"rule_complexity":   str("The complexity of the rules."),
	}, "language", "theme", "game_style", "number_of_players", "max_unique_cards", "target_audience", "rule_complexity")}
}

// ConceptSchema describes types.GameConcept.
func ConceptSchema() Schema {
	cardType := object(map[string]interface{}{
		"name":                str("Name of the card type."),
		"description":         str("What cards of this type do."),
		"quantity":            integer("Total physical copies of this type.", 1),
		"unique_cards":        integer("Distinct card designs of this type.", 1),
		"scales_with_players": map[string]interface{}{"type": "boolean", "description": "Draw pile count depends on the number of players."},
	}, "name", "description", "quantity", "unique_cards")

	return Schema{Name: "GameConcept", Definition: object(map[string]interface{}{
		"theme":             str("The theme of the game."),
		"title":             str("The title of the game."),
		"description":       str("A short pitch of the game."),
		"language":          str("The language of every text."),
		"game_style":        str("The style of the game."),
		"game_duration":     str("Expected duration of a game."),
		"number_of_players": str("Supported player range, for example 4-12."),
		"initial_hand_size": integer("Cards dealt to each player.", 1),
		"card_types":        array(cardType, "Card types with their quantities."),
		"card_actions": map[string]interface{}{
			"type":                 "object",
			"description":          "Short description of each card action.",
			"additionalProperties": map[string]interface{}{"type": "string"},
		},
		"target_audience": str("The target audience."),
		"rule_complexity": str("The complexity of the rules."),
	}, "theme", "title", "description", "language", "game_style", "game_duration",
		"number_of_players", "initial_hand_size", "card_types")}
}

// RulesSchema describes types.Rules.
func RulesSchema() Schema {
	deckCount := object(map[string]interface{}{
		"card_type": str("A declared card type."),
		"count":     str("An integer or \"number_of_players - 1\"."),
	}, "card_type", "count")

	return Schema{Name: "Rules", Definition: object(map[string]interface{}{
		"initial_hands":      str("How the initial hands are dealt."),
		"deck_preparation":   str("How the deck is prepared."),
		"turn_structure":     str("What happens in a turn."),
		"reaction_phase":     str("How players react to other plays."),
		"additional_rules":   array(str("A rule."), "Other rules."),
		"end_of_round":       str("What happens at the end of a round."),
		"win_conditions":     str("How the game is won."),
		"turn_limit":         integer("Turn limit, 0 when unlimited.", 0),
		"scoring_system":     str("How points are scored."),
		"resource_mechanics": str("How resources work."),
		"deck_counts":        array(deckCount, "Cards of each type in the draw pile."),
	}, "initial_hands", "deck_preparation", "turn_structure", "win_conditions", "deck_counts")}
}

// CardsSchema describes types.CardList.
func CardsSchema() Schema {
	card := object(map[string]interface{}{
		"name":         str("Unique name of the card."),
		"type":         str("One of the declared card types."),
		"effect":       str("What the card does."),
		"quantity":     integer("Physical copies of this card.", 1),
		"cost":         str("Cost to play the card, if any."),
		"flavor_text":  str("Flavor text."),
		"rarity":       str("Rarity."),
		"interactions": str("Notable interactions with other cards."),
	}, "name", "type", "effect", "quantity")

	return Schema{Name: "CardList", Definition: object(map[string]interface{}{
		"cards": array(card, "The cards of the game."),
	}, "cards")}
}
