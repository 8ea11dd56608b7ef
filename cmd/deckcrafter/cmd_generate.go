package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deckcrafter/internal/export"
	"deckcrafter/internal/logging"
	"deckcrafter/internal/types"
)

var (
	prefFlags   types.UserPreferences
	description string
	interactive bool
	blank       bool
	outputPath  string
	count       int
	parallel    int
	noStore     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new card game",
	Long: `Runs the concept, rules and cards stages for a new game.

Preferences come from the config file; flags override them. Fields left empty
are completed by the model from --description. With --count several games are
generated from the same preferences, up to --parallel at a time.

Example:
  deckcrafter generate --theme "Piratas del Caribe" --players 3-6 --output out/piratas.json`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&prefFlags.Language, "language", "", "Language of every generated text")
	f.StringVar(&prefFlags.Theme, "theme", "", "Game theme")
	f.StringVar(&prefFlags.GameStyle, "style", "", "Game style or reference game")
	f.StringVar(&prefFlags.NumberOfPlayers, "players", "", "Number of players, e.g. 4-12")
	f.IntVar(&prefFlags.MaxUniqueCards, "max-unique-cards", 0, "Upper bound of distinct cards (0 keeps the configured value)")
	f.StringVar(&prefFlags.TargetAudience, "audience", "", "Target audience")
	f.StringVar(&prefFlags.RuleComplexity, "complexity", "", "Rule complexity")
	f.StringSliceVar(&prefFlags.ContentExclusions, "exclude", nil, "Content that must not appear (repeatable)")
	f.StringVarP(&description, "description", "d", "", "Free description used to complete empty preferences")
	f.BoolVarP(&interactive, "interactive", "i", false, "Edit preferences in a form before generating")
	f.BoolVar(&blank, "blank", false, "Start from empty preferences instead of the configured ones")
	f.StringVarP(&outputPath, "output", "o", "", "Write the game document here (default from config)")
	f.IntVarP(&count, "count", "n", 1, "Number of games to generate")
	f.IntVarP(&parallel, "parallel", "p", 2, "Games generated concurrently")
	f.BoolVar(&noStore, "no-store", false, "Do not persist games")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	prefs := basePreferences()
	prefs = overridePreferences(prefs, prefFlags)
	if interactive {
		edited, err := runForm(prefs)
		if err != nil {
			return err
		}
		prefs = edited
	}

	out := cmd.OutOrStdout()
	progress := newProgressPrinter(out, count > 1)
	a, err := openApp(ctx, progress.observe)
	if err != nil {
		return err
	}
	defer a.Close()

	prefs, err = a.ctrl.CompletePreferences(ctx, description, prefs)
	if err != nil {
		return fmt.Errorf("failed to complete preferences: %w", err)
	}
	logger.Info("generating", zap.Int("count", count), zap.String("theme", prefs.Theme))
	timer := logging.StartTimer(logging.CategoryCLI, fmt.Sprintf("generate %d game(s)", count))
	defer timer.StopWithInfo()

	states := make([]*types.GameState, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i := range states {
		g.Go(func() error {
			state := a.ctrl.Run(gctx, prefs)
			states[i] = state
			if noStore {
				return nil
			}
			// Persist even when the run was canceled.
			if err := a.games.Save(context.WithoutCancel(gctx), state); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return reportGenerated(cmd, states)
}

// reportGenerated writes the documents of the completed games and prints a
// summary. It fails when any game failed.
func reportGenerated(cmd *cobra.Command, states []*types.GameState) error {
	out := cmd.OutOrStdout()
	summary := newTable("Generated games", "Game", "Status", "Title", "Document")
	failed := 0
	for i, state := range states {
		doc := ""
		if state.Done() {
			path := numberedPath(outputFile(), i, len(states))
			if err := export.WriteJSON(path, state); err != nil {
				return err
			}
			doc = path
		} else {
			failed++
			if state.TerminalError != nil {
				doc = state.TerminalError.Error()
			}
		}
		title := ""
		if state.Concept != nil {
			title = state.Concept.Title
		}
		summary.addRow(state.ID, statusStyle(state.Status).Render(string(state.Status)), title, doc)
	}
	fmt.Fprint(out, "\n"+summary.String())

	if failed > 0 {
		if !noStore {
			fmt.Fprintln(out, mutedStyle.Render("Failed games can be continued with: deckcrafter resume <game-id>"))
		}
		return fmt.Errorf("%d of %d game(s) failed", failed, len(states))
	}
	return nil
}

func basePreferences() types.UserPreferences {
	if blank {
		return types.UserPreferences{}
	}
	return cfg.Preferences.Clone()
}

// overridePreferences returns base with every non-empty field of flags.
func overridePreferences(base, flags types.UserPreferences) types.UserPreferences {
	out := base.Clone()
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&out.Language, flags.Language)
	set(&out.Theme, flags.Theme)
	set(&out.GameStyle, flags.GameStyle)
	set(&out.NumberOfPlayers, flags.NumberOfPlayers)
	set(&out.TargetAudience, flags.TargetAudience)
	set(&out.RuleComplexity, flags.RuleComplexity)
	if flags.MaxUniqueCards > 0 {
		out.MaxUniqueCards = flags.MaxUniqueCards
	}
	if len(flags.ContentExclusions) > 0 {
		out.ContentExclusions = append([]string(nil), flags.ContentExclusions...)
	}
	return out
}

func outputFile() string {
	if outputPath != "" {
		return outputPath
	}
	return cfg.Output.Path
}

// numberedPath turns game.json into game-2.json for the second of several games.
func numberedPath(path string, i, total int) string {
	if total <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
