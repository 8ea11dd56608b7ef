package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deckcrafter/internal/export"
	"deckcrafter/internal/types"
)

var (
	resumeStage string
	showRaw     bool
	showJSON    bool
	showWidth   int
	showStyle   string
	tracesLimit int
)

var resumeCmd = &cobra.Command{
	Use:   "resume <game-id>",
	Short: "Continue a stored game from its first incomplete stage",
	Long: `Continues a failed or canceled game. Accepted stages are kept and the
pending stage gets a fresh retry budget. With --stage only that stage runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

var showCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Render a stored game",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored games",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var exportCmd = &cobra.Command{
	Use:   "export <game-id> [path]",
	Short: "Write the document of a completed game",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runExport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <game-id>",
	Short: "Delete a stored game",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Show recent generation calls",
	Args:  cobra.NoArgs,
	RunE:  runTraces,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeStage, "stage", "", "Run only this stage (concept, rules, cards)")

	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print markdown without rendering")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the stored state as JSON")
	showCmd.Flags().IntVar(&showWidth, "width", 100, "Word wrap width")
	showCmd.Flags().StringVar(&showStyle, "style", "", "glamour style (dark, light, notty or a JSON file)")

	tracesCmd.Flags().IntVarP(&tracesLimit, "limit", "n", 20, "Number of traces")
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	a, err := openApp(ctx, newProgressPrinter(out, false).observe)
	if err != nil {
		return err
	}
	defer a.Close()

	state, err := a.games.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if state.Done() {
		fmt.Fprintf(out, "Game %s is already complete.\n", state.ID)
		return nil
	}

	if resumeStage != "" {
		stage, err := types.ParseStage(resumeStage)
		if err != nil {
			return err
		}
		runErr := a.ctrl.RunStage(ctx, state, stage)
		if err := a.games.Save(context.WithoutCancel(ctx), state); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		fmt.Fprintf(out, "Stage %s accepted. Status: %s\n", stage, state.Status)
		return nil
	}

	a.ctrl.Resume(ctx, state)
	if err := a.games.Save(context.WithoutCancel(ctx), state); err != nil {
		return err
	}
	logger.Info("game resumed", zap.String("game", state.ID), zap.String("status", string(state.Status)))
	return reportGenerated(cmd, []*types.GameState{state})
}

func runShow(cmd *cobra.Command, args []string) error {
	games, err := openStore()
	if err != nil {
		return err
	}
	defer games.Close()

	state, err := games.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case showJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		return enc.Encode(state)
	case showRaw:
		_, err := fmt.Fprint(out, export.Markdown(state))
		return err
	}

	rendered, err := export.RenderStyle(state, showWidth, showStyle)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	games, err := openStore()
	if err != nil {
		return err
	}
	defer games.Close()

	summaries, err := games.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No games stored yet.")
		return nil
	}

	t := newTable(fmt.Sprintf("Games (%d)", len(summaries)), "Game", "Status", "Title", "Updated")
	for _, s := range summaries {
		title := s.Title
		if s.TerminalError != "" {
			title = s.TerminalError
		}
		t.addRow(s.ID, statusStyle(s.Status).Render(string(s.Status)), truncate(title, 60), s.UpdatedAt.Local().Format(time.DateTime))
	}
	fmt.Fprint(out, t.String())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	games, err := openStore()
	if err != nil {
		return err
	}
	defer games.Close()

	state, err := games.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	path := cfg.Output.Path
	if len(args) == 2 {
		path = args[1]
	}
	if err := export.WriteJSON(path, state); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	games, err := openStore()
	if err != nil {
		return err
	}
	defer games.Close()

	if err := games.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runTraces(cmd *cobra.Command, args []string) error {
	games, err := openStore()
	if err != nil {
		return err
	}
	defer games.Close()

	traces, err := games.RecentTraces(cmd.Context(), tracesLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(traces) == 0 {
		fmt.Fprintln(out, "No generation calls recorded.")
		return nil
	}
	t := newTable("Recent generation calls", "When", "Generator", "Schema", "Prompt", "Duration", "Result")
	for _, tr := range traces {
		result := successStyle.Render("ok")
		if !tr.Success {
			result = errorStyle.Render(truncate(tr.Error, 50))
		}
		t.addRow(tr.CreatedAt.Local().Format(time.DateTime), tr.Generator, tr.Schema,
			strconv.Itoa(tr.PromptLen), tr.Duration.Round(time.Millisecond).String(), result)
	}
	fmt.Fprint(out, t.String())
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
