package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"deckcrafter/internal/config"
	"deckcrafter/internal/perception"
	"deckcrafter/internal/store"
	"deckcrafter/internal/verification"
	"deckcrafter/internal/workflow"
)

// newGenerator builds the generation client. Tests replace it.
var newGenerator = func(ctx context.Context, c *config.Config) (perception.Generator, error) {
	return perception.NewClient(ctx, c.LLM, c.GetLLMTimeout())
}

// app bundles what the commands share.
type app struct {
	games *store.Store
	ctrl  *workflow.Controller
}

func openStore() (*store.Store, error) {
	games, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open game store: %w", err)
	}
	return games, nil
}

// openApp opens the store and builds a controller whose generation calls
// are traced into it.
func openApp(ctx context.Context, observer workflow.Observer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	games, err := openStore()
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		games.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	traced := perception.NewTracingClient(gen, traceSink(games))
	opts := []workflow.Option{}
	if observer != nil {
		opts = append(opts, workflow.WithObserver(observer))
	}
	ctrl := workflow.New(traced, workflowConfig(cfg), opts...)
	logger.Debug("workflow ready", zap.String("generator", gen.Name()), zap.Int("max_retries", ctrl.Config().MaxRetries))
	return &app{games: games, ctrl: ctrl}, nil
}

func (a *app) Close() error {
	return a.games.Close()
}

func workflowConfig(c *config.Config) workflow.Config {
	wc := workflow.DefaultConfig()
	wc.MaxRetries = c.Workflow.MaxRetries
	wc.CallTimeout = c.GetCallTimeout()
	wc.Validation = verification.Options{
		DrawPileShare: c.Workflow.DrawPileShare,
		TrapKeywords:  c.Workflow.TrapKeywords,
	}
	if len(wc.Validation.TrapKeywords) == 0 {
		wc.Validation.TrapKeywords = verification.DefaultTrapKeywords
	}
	return wc
}

func traceSink(games *store.Store) perception.TraceSink {
	return func(t perception.Trace) {
		rec := store.TraceRecord{
			Generator: t.Generator,
			Schema:    t.Schema,
			PromptLen: t.PromptLen,
			Prompt:    t.Prompt,
			Response:  t.Response,
			Success:   t.Success,
			Error:     t.ErrMessage,
			Duration:  t.Duration,
			CreatedAt: t.Timestamp,
		}
		if err := games.SaveTrace(context.Background(), rec); err != nil {
			logger.Warn("failed to store trace", zap.Error(err))
		}
	}
}
