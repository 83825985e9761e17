// Command expense-tracker records one expense and prints a spending summary
// against the monthly budget.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/ArionMiles/expense-tracker/pkg/api"
	"github.com/ArionMiles/expense-tracker/pkg/config"
	"github.com/ArionMiles/expense-tracker/pkg/logging"
	"github.com/ArionMiles/expense-tracker/pkg/orchestrator"
	"github.com/ArionMiles/expense-tracker/pkg/prompt"
	"github.com/ArionMiles/expense-tracker/pkg/store"
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	logger := logging.Setup(logging.DefaultConfig())

	if err := run(context.Background(), logger); err != nil {
		logger.Error("expense tracker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load(config.DefaultFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Debug("configuration loaded",
		"file", cfg.FilePath,
		"budget", cfg.Budget,
		"skip_malformed", cfg.SkipMalformed,
	)

	st := store.New(store.Config{
		FilePath:      cfg.FilePath,
		Retries:       cfg.WriteRetries,
		SkipMalformed: cfg.SkipMalformed,
	}, logger.With("component", "store"))

	collector := prompt.New(os.Stdin, os.Stdout, api.DefaultCategories(), logger.With("component", "prompt"))

	color := cfg.UseColor(term.IsTerminal(int(os.Stdout.Fd())))

	tracker := orchestrator.New(cfg, collector, st, os.Stdout, logger.With("component", "tracker"),
		orchestrator.WithColor(color),
	)

	if err := tracker.Run(ctx); err != nil {
		return fmt.Errorf("running tracker: %w", err)
	}
	return nil
}
