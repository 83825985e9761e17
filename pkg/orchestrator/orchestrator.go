// Package orchestrator runs one expense tracker session: collect an
// expense, save it, then summarize the whole history.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ArionMiles/expense-tracker/pkg/api"
	"github.com/ArionMiles/expense-tracker/pkg/config"
	"github.com/ArionMiles/expense-tracker/pkg/store"
	"github.com/ArionMiles/expense-tracker/pkg/summary"
)

// Tracker wires the collector, the store and the summary together.
type Tracker struct {
	cfg       *config.Config
	collector api.Collector
	store     api.Store
	out       io.Writer
	now       func() time.Time
	color     bool
	logger    *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for the daily allowance.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithColor enables the highlighted daily allowance line.
func WithColor(enabled bool) Option {
	return func(t *Tracker) { t.color = enabled }
}

// New creates a Tracker that writes the console transcript to out.
func New(cfg *config.Config, collector api.Collector, st api.Store, out io.Writer, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tracker{
		cfg:       cfg,
		collector: collector,
		store:     st,
		out:       out,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run performs one session. Save and read failures are reported on the
// console and do not fail the run. It returns an error when input ends
// early or a stored line is malformed.
func (t *Tracker) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "🎯 Running Expense Tracker!")

	expense, err := t.collector.Collect()
	if err != nil {
		return fmt.Errorf("collecting expense: %w", err)
	}
	t.logger.Info("expense collected", "name", expense.Name, "category", expense.Category, "amount", expense.Amount)

	t.save(ctx, expense)

	return t.summarize(ctx)
}

func (t *Tracker) save(ctx context.Context, expense api.Expense) {
	fmt.Fprintf(t.out, "🎯 Saving User Expense: %s to %s\n", expense, t.store.Path())

	if err := t.store.Append(ctx, expense); err != nil {
		t.logger.Error("failed to save expense", "file", t.store.Path(), "error", err)
		fmt.Fprintf(t.out, "Error saving expense: %v\n", err)
	}
}

func (t *Tracker) summarize(ctx context.Context) error {
	fmt.Fprintln(t.out, "🎯 Summarizing User Expenses")

	expenses, err := t.store.LoadAll(ctx)
	if err != nil {
		var ferr *store.FormatError
		switch {
		case errors.Is(err, store.ErrNoData):
			return summary.RenderEmpty(t.out)
		case errors.As(err, &ferr):
			return fmt.Errorf("loading expenses: %w", err)
		default:
			t.logger.Error("failed to read expenses", "file", t.store.Path(), "error", err)
			fmt.Fprintf(t.out, "Error reading expenses: %v\n", err)
			return nil
		}
	}

	report := summary.Summarize(expenses, t.cfg.Budget, t.now())
	t.logger.Info("expenses summarized",
		"count", len(expenses),
		"categories", len(report.ByCategory),
		"total_spent", report.TotalSpent,
		"days_left", report.DaysLeft,
	)

	return report.Render(t.out, summary.RenderOptions{
		Currency: t.cfg.Currency,
		Color:    t.color,
	})
}
