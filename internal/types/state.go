package types

import (
	"errors"
	"fmt"
	"time"
)

// Stage identifies one ordered phase of generation.
type Stage string

const (
	StageConcept Stage = "concept"
	StageRules   Stage = "rules"
	StageCards   Stage = "cards"
)

// Stages is the fixed execution order.
var Stages = []Stage{StageConcept, StageRules, StageCards}

// ParseStage returns the stage with the given name.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", name)
}

// Status is the coarse progress marker stored with a game.
type Status string

const (
	StatusCreated          Status = "created"
	StatusConceptGenerated Status = "concept_generated"
	StatusRulesGenerated   Status = "rules_generated"
	StatusCardsGenerated   Status = "cards_generated"
	StatusFailed           Status = "failed"
	StatusCanceled         Status = "canceled"
)

// completedStatus is the status reached when a stage is accepted.
var completedStatus = map[Stage]Status{
	StageConcept: StatusConceptGenerated,
	StageRules:   StatusRulesGenerated,
	StageCards:   StatusCardsGenerated,
}

// CompletedStatus returns the status a game moves to once stage is accepted.
func CompletedStatus(stage Stage) Status {
	return completedStatus[stage]
}

// GameState accumulates the output of every stage of one run.
type GameState struct {
	ID            string           `json:"game_id"`
	Status        Status           `json:"status"`
	Preferences   *UserPreferences `json:"user_preferences"`
	Concept       *GameConcept     `json:"game_concept,omitempty"`
	Rules         *Rules           `json:"rules,omitempty"`
	Cards         []Card           `json:"cards,omitempty"`
	StageAttempts map[Stage]int    `json:"stage_attempts"`
	TerminalError *StageError      `json:"terminal_error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewGameState creates an empty state holding a copy of prefs.
func NewGameState(id string, prefs UserPreferences, now time.Time) *GameState {
	p := prefs.Clone()
	attempts := make(map[Stage]int, len(Stages))
	for _, s := range Stages {
		attempts[s] = 0
	}
	return &GameState{
		ID:            id,
		Status:        StatusCreated,
		Preferences:   &p,
		StageAttempts: attempts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Completed reports whether the output of stage has been accepted.
func (s *GameState) Completed(stage Stage) bool {
	switch stage {
	case StageConcept:
		return s.Concept != nil
	case StageRules:
		return s.Rules != nil
	case StageCards:
		return s.Cards != nil
	}
	return false
}

// NextStage returns the first stage without accepted output.
func (s *GameState) NextStage() (Stage, bool) {
	for _, st := range Stages {
		if !s.Completed(st) {
			return st, true
		}
	}
	return "", false
}

// Done reports whether every stage has been accepted.
func (s *GameState) Done() bool {
	_, pending := s.NextStage()
	return !pending
}

// Failed reports whether the run ended with a terminal error.
func (s *GameState) Failed() bool {
	return s.TerminalError != nil
}

// ErrStateOrder is returned by CheckInvariants when a later stage is
// populated before an earlier one.
var ErrStateOrder = errors.New("stage output out of order")

// CheckInvariants verifies stage ordering and the attempt budget.
func (s *GameState) CheckInvariants(maxRetries int) error {
	missing := Stage("")
	for _, st := range Stages {
		if !s.Completed(st) {
			if missing == "" {
				missing = st
			}
			continue
		}
		if missing != "" {
			return fmt.Errorf("%w: %s present while %s is absent", ErrStateOrder, st, missing)
		}
	}
	for st, n := range s.StageAttempts {
		if n < 0 || n > maxRetries {
			return fmt.Errorf("stage %s has %d attempts, budget is %d", st, n, maxRetries)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	out := *s
	if s.Preferences != nil {
		p := s.Preferences.Clone()
		out.Preferences = &p
	}
	if s.Concept != nil {
		c := *s.Concept
		c.CardTypes = append([]CardType(nil), s.Concept.CardTypes...)
		if s.Concept.CardActions != nil {
			c.CardActions = make(map[string]string, len(s.Concept.CardActions))
			for k, v := range s.Concept.CardActions {
				c.CardActions[k] = v
			}
		}
		out.Concept = &c
	}
	if s.Rules != nil {
		r := *s.Rules
		r.AdditionalRules = append([]string(nil), s.Rules.AdditionalRules...)
		r.DeckCounts = append([]DeckCount(nil), s.Rules.DeckCounts...)
		out.Rules = &r
	}
	if s.Cards != nil {
		out.Cards = append([]Card{}, s.Cards...)
	}
	out.StageAttempts = make(map[Stage]int, len(s.StageAttempts))
	for k, v := range s.StageAttempts {
		out.StageAttempts[k] = v
	}
	if s.TerminalError != nil {
		e := *s.TerminalError
		out.TerminalError = &e
	}
	return &out
}

// Document is the persisted shape of a finished game.
type Document struct {
	GameConcept     *GameConcept     `json:"game_concept"`
	Cards           []Card           `json:"cards"`
	Rules           *Rules           `json:"rules"`
	UserPreferences *UserPreferences `json:"user_preferences"`
}

// Document returns the export view of the state. Missing stages are an
// error so that only complete games are handed off.
func (s *GameState) Document() (Document, error) {
	if next, pending := s.NextStage(); pending {
		return Document{}, fmt.Errorf("game %s is incomplete: stage %s has no output", s.ID, next)
	}
	return Document{
		GameConcept:     s.Concept,
		Cards:           s.Cards,
		Rules:           s.Rules,
		UserPreferences: s.Preferences,
	}, nil
}
