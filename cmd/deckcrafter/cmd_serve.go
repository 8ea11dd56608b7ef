package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deckcrafter/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game API over HTTP",
	Long: `Starts the HTTP API:

  POST   /games                        create a game (body: preferences, description)
  GET    /games                        list games
  GET    /games/{id}                   stored state
  DELETE /games/{id}                   delete a game
  GET    /games/{id}/document          document of a completed game
  POST   /games/{id}/stages/{stage}    run one stage
  POST   /games/{id}/run               run every pending stage`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// The server runs until interrupted; --timeout does not apply.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	logger.Info("serving API", zap.String("addr", addr), zap.String("store", cfg.Store.Path))
	return api.NewServer(a.ctrl, a.games).ListenAndServe(ctx, addr)
}
