package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"deckcrafter/internal/types"
)

// Markdown renders whatever stages of state are present.
func Markdown(state *types.GameState) string {
	var sb strings.Builder

	title := "Untitled game"
	if state.Concept != nil && state.Concept.Title != "" {
		title = state.Concept.Title
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "*Game %s, status %s*\n\n", state.ID, state.Status)
	if state.TerminalError != nil {
		fmt.Fprintf(&sb, "> **Generation stopped:** %s\n\n", state.TerminalError.Error())
	}

	if c := state.Concept; c != nil {
		sb.WriteString("## Concept\n\n")
		fmt.Fprintf(&sb, "%s\n\n", c.Description)
		fmt.Fprintf(&sb, "- **Theme:** %s\n", c.Theme)
		fmt.Fprintf(&sb, "- **Style:** %s\n", c.GameStyle)
		fmt.Fprintf(&sb, "- **Players:** %s\n", c.NumberOfPlayers)
		fmt.Fprintf(&sb, "- **Duration:** %s\n", c.GameDuration)
		fmt.Fprintf(&sb, "- **Initial hand:** %d cards\n", c.InitialHandSize)
		fmt.Fprintf(&sb, "- **Deck:** %d cards, %d unique\n\n", c.NumberOfTotalCards, c.NumberOfUniqueCards)

		sb.WriteString("| Type | Copies | Unique | Description |\n")
		sb.WriteString("|---|---:|---:|---|\n")
		for _, t := range c.CardTypes {
			fmt.Fprintf(&sb, "| %s | %d | %d | %s |\n", cell(t.Name), t.Quantity, t.UniqueCards, cell(t.Description))
		}
		sb.WriteString("\n")
	}

	if r := state.Rules; r != nil {
		sb.WriteString("## Rules\n\n")
		section(&sb, "Deck preparation", r.DeckPreparation)
		section(&sb, "Initial hands", r.InitialHands)
		section(&sb, "Turn structure", r.TurnStructure)
		section(&sb, "Reaction phase", r.ReactionPhase)
		section(&sb, "End of round", r.EndOfRound)
		section(&sb, "Win conditions", r.WinConditions)
		section(&sb, "Scoring", r.ScoringSystem)
		section(&sb, "Resources", r.ResourceMechanics)
		if r.TurnLimit > 0 {
			fmt.Fprintf(&sb, "**Turn limit:** %d\n\n", r.TurnLimit)
		}
		if len(r.DeckCounts) > 0 {
			sb.WriteString("### Draw pile\n\n")
			for _, dc := range r.DeckCounts {
				fmt.Fprintf(&sb, "- %s: %s\n", dc.CardType, dc.Count)
			}
			sb.WriteString("\n")
		}
		if len(r.AdditionalRules) > 0 {
			sb.WriteString("### Additional rules\n\n")
			for _, rule := range r.AdditionalRules {
				fmt.Fprintf(&sb, "- %s\n", rule)
			}
			sb.WriteString("\n")
		}
	}

	if len(state.Cards) > 0 {
		sb.WriteString("## Cards\n\n")
		sb.WriteString("| Name | Type | Copies | Effect |\n")
		sb.WriteString("|---|---|---:|---|\n")
		for _, card := range state.Cards {
			fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", cell(card.Name), cell(card.Type), card.Quantity, cell(card.Effect))
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func section(sb *strings.Builder, title, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(sb, "### %s\n\n%s\n\n", title, text)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// Render styles the markdown of state for a terminal of the given width.
func Render(state *types.GameState, width int) (string, error) {
	return RenderStyle(state, width, "")
}

// RenderStyle renders with a named glamour style ("dark", "light", "notty").
// An empty style detects the terminal background.
func RenderStyle(state *types.GameState, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(Markdown(state))
	if err != nil {
		return "", fmt.Errorf("failed to render game %s: %w", state.ID, err)
	}
	return out, nil
}
