package types

// CardType is one category of cards declared by the concept.
type CardType struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=1"`
	UniqueCards int    `json:"unique_cards" validate:"min=1"`

	// ScalesWithPlayers marks types whose count in the draw pile depends on
	// the number of players (one fewer than the players, for example).
	ScalesWithPlayers bool `json:"scales_with_players,omitempty"`
}

// GameConcept is the output of the concept stage.
type GameConcept struct {
	Theme           string     `json:"theme" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	Description     string     `json:"description" validate:"required"`
	Language        string     `json:"language" validate:"required"`
	GameStyle       string     `json:"game_style" validate:"required"`
	GameDuration    string     `json:"game_duration" validate:"required"`
	NumberOfPlayers string     `json:"number_of_players" validate:"required"`
	InitialHandSize int        `json:"initial_hand_size" validate:"min=1"`
	CardTypes       []CardType `json:"card_types" validate:"required,min=1,dive"`

	// Derived from CardTypes when the concept is accepted.
	NumberOfUniqueCards int `json:"number_of_unique_cards"`
	NumberOfTotalCards  int `json:"number_of_total_cards"`

	CardActions    map[string]string `json:"card_actions,omitempty"`
	TargetAudience string            `json:"target_audience,omitempty"`
	RuleComplexity string            `json:"rule_complexity,omitempty"`
}

// CardType returns the declared type with the given name.
func (c *GameConcept) CardType(name string) (CardType, bool) {
	for _, t := range c.CardTypes {
		if t.Name == name {
			return t, true
		}
	}
	return CardType{}, false
}

// TotalQuantity sums the declared quantity of every card type.
func (c *GameConcept) TotalQuantity() int {
	total := 0
	for _, t := range c.CardTypes {
		total += t.Quantity
	}
	return total
}

// TotalUnique sums the declared unique_cards of every card type.
func (c *GameConcept) TotalUnique() int {
	total := 0
	for _, t := range c.CardTypes {
		total += t.UniqueCards
	}
	return total
}

// DeckCount states how many cards of a type go into the draw pile. Count is
// either an integer constant ("4") or a players-minus-one expression
// ("players - 1").
type DeckCount struct {
	CardType string `json:"card_type" validate:"required"`
	Count    string `json:"count" validate:"required"`
}

// Rules is the output of the rules stage.
type Rules struct {
	InitialHands      string      `json:"initial_hands" validate:"required"`
	DeckPreparation   string      `json:"deck_preparation" validate:"required"`
	TurnStructure     string      `json:"turn_structure" validate:"required"`
	WinConditions     string      `json:"win_conditions" validate:"required"`
	ReactionPhase     string      `json:"reaction_phase,omitempty"`
	AdditionalRules   []string    `json:"additional_rules,omitempty"`
	EndOfRound        string      `json:"end_of_round,omitempty"`
	TurnLimit         int         `json:"turn_limit,omitempty" validate:"min=0"`
	ScoringSystem     string      `json:"scoring_system,omitempty"`
	ResourceMechanics string      `json:"resource_mechanics,omitempty"`
	DeckCounts        []DeckCount `json:"deck_counts,omitempty" validate:"omitempty,dive"`
}

// Card is a single card design. Quantity is the number of physical copies.
type Card struct {
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Effect       string `json:"effect" validate:"required"`
	Quantity     int    `json:"quantity" validate:"min=1"`
	Cost         string `json:"cost,omitempty"`
	FlavorText   string `json:"flavor_text,omitempty"`
	Rarity       string `json:"rarity,omitempty"`
	Interactions string `json:"interactions,omitempty"`
}

// CardList is the structured result of the cards stage.
type CardList struct {
	Cards []Card `json:"cards" validate:"omitempty,dive"`
}
