package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UserPreferences is the immutable input of a generation run.
type UserPreferences struct {
	Language          string   `json:"language" yaml:"language" validate:"required"`
	Theme             string   `json:"theme" yaml:"theme" validate:"required"`
	GameStyle         string   `json:"game_style" yaml:"game_style" validate:"required"`
	NumberOfPlayers   string   `json:"number_of_players" yaml:"number_of_players" validate:"required"`
	MaxUniqueCards    int      `json:"max_unique_cards,omitempty" yaml:"max_unique_cards" validate:"min=0"`
	TargetAudience    string   `json:"target_audience" yaml:"target_audience" validate:"required"`
	RuleComplexity    string   `json:"rule_complexity" yaml:"rule_complexity" validate:"required"`
	ContentExclusions []string `json:"content_exclusions,omitempty" yaml:"content_exclusions"`

	// GameDescription is only used to complete missing fields before a run.
	GameDescription string `json:"game_description,omitempty" yaml:"game_description"`
}

// Clone returns a deep copy.
func (p UserPreferences) Clone() UserPreferences {
	out := p
	if p.ContentExclusions != nil {
		out.ContentExclusions = append([]string(nil), p.ContentExclusions...)
	}
	return out
}

// MissingFields lists the required preference fields that are empty, by JSON name.
func (p UserPreferences) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("language", p.Language)
	check("theme", p.Theme)
	check("game_style", p.GameStyle)
	check("number_of_players", p.NumberOfPlayers)
	check("target_audience", p.TargetAudience)
	check("rule_complexity", p.RuleComplexity)
	return missing
}

// FillFrom copies every empty field of p from other and returns the result.
// Fields already set in p always win.
func (p UserPreferences) FillFrom(other UserPreferences) UserPreferences {
	out := p.Clone()
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&out.Language, other.Language)
	fill(&out.Theme, other.Theme)
	fill(&out.GameStyle, other.GameStyle)
	fill(&out.NumberOfPlayers, other.NumberOfPlayers)
	fill(&out.TargetAudience, other.TargetAudience)
	fill(&out.RuleComplexity, other.RuleComplexity)
	fill(&out.GameDescription, other.GameDescription)
	if out.MaxUniqueCards == 0 {
		out.MaxUniqueCards = other.MaxUniqueCards
	}
	if len(out.ContentExclusions) == 0 && len(other.ContentExclusions) > 0 {
		out.ContentExclusions = append([]string(nil), other.ContentExclusions...)
	}
	return out
}

// PlayerRange is an inclusive range of supported player counts.
type PlayerRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r PlayerRange) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Covers reports whether r includes every count of other.
func (r PlayerRange) Covers(other PlayerRange) bool {
	return r.Min <= other.Min && r.Max >= other.Max
}

var playerCountRe = regexp.MustCompile(`\d+`)

// ParsePlayerRange extracts a player range from free text such as "4-12",
// "4-12 players (party game format)", "2 a 6" or "3".
func ParsePlayerRange(text string) (PlayerRange, error) {
	nums := playerCountRe.FindAllString(text, 2)
	if len(nums) == 0 {
		return PlayerRange{}, fmt.Errorf("no player count in %q", text)
	}
	lo, err := strconv.Atoi(nums[0])
	if err != nil {
		return PlayerRange{}, fmt.Errorf("parse player count %q: %w", nums[0], err)
	}
	hi := lo
	if len(nums) == 2 {
		if hi, err = strconv.Atoi(nums[1]); err != nil {
			return PlayerRange{}, fmt.Errorf("parse player count %q: %w", nums[1], err)
		}
	}
	if lo < 1 || hi < lo {
		return PlayerRange{}, fmt.Errorf("invalid player range %q", text)
	}
	return PlayerRange{Min: lo, Max: hi}, nil
}

// PlayerRange parses NumberOfPlayers.
func (p UserPreferences) PlayerRange() (PlayerRange, error) {
	return ParsePlayerRange(p.NumberOfPlayers)
}
