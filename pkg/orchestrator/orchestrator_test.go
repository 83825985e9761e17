package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/expense-tracker/pkg/api"
	"github.com/ArionMiles/expense-tracker/pkg/config"
	"github.com/ArionMiles/expense-tracker/pkg/logging"
	"github.com/ArionMiles/expense-tracker/pkg/prompt"
	"github.com/ArionMiles/expense-tracker/pkg/store"
)

var midJune = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeCollector struct {
	expense api.Expense
	err     error
}

func (f fakeCollector) Collect() (api.Expense, error) {
	return f.expense, f.err
}

type fakeStore struct {
	appendErr error
	loaded    []api.Expense
	loadErr   error
	appended  []api.Expense
}

func (f *fakeStore) Append(_ context.Context, e api.Expense) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeStore) LoadAll(context.Context) ([]api.Expense, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) Path() string { return "fake.csv" }

func TestRun_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.csv")
	require.NoError(t, os.WriteFile(path, []byte("Coffee,4.5,🍔 Food\n"), 0o600))

	cfg := config.Default()
	cfg.FilePath = path

	var out bytes.Buffer
	collector := prompt.New(strings.NewReader("Rent\n1195.5\n2\n"), &out, api.DefaultCategories(), logging.Discard())
	st := store.New(store.Config{FilePath: path}, logging.Discard())

	tracker := New(cfg, collector, st, &out, logging.Discard(), WithClock(fixedClock(midJune)))
	require.NoError(t, tracker.Run(context.Background()))

	output := out.String()
	assert.True(t, strings.HasPrefix(output, "🎯 Running Expense Tracker!\n🎯 Getting User Expense\n"))
	assert.Contains(t, output, "🎯 Saving User Expense: Expense(name='Rent', category='🏠 Home', amount=1195.5) to "+path+"\n")
	assert.Contains(t, output, "🎯 Summarizing User Expenses\n")
	assert.Contains(t, output, "  🍔 Food: $4.50\n  🏠 Home: $1195.50\n")
	assert.Contains(t, output, "💵 Total Spent: $1200.00\n")
	assert.Contains(t, output, "✅ Budget Remaining: $800.00\n")
	assert.Contains(t, output, "👉 Budget Per Day: $40.00\n")
	assert.NotContains(t, output, "\033[92m")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Coffee,4.5,🍔 Food\nRent,1195.5,🏠 Home\n", string(data))
}

func TestRun_UsesConfiguredBudgetAndCurrency(t *testing.T) {
	cfg := config.Default()
	cfg.Budget = 100
	cfg.Currency = "€"

	st := &fakeStore{loaded: []api.Expense{{Name: "Tea", Category: "🍔 Food", Amount: 10}}}
	var out bytes.Buffer

	tracker := New(cfg, fakeCollector{expense: api.Expense{Name: "Tea"}}, st, &out, logging.Discard(),
		WithClock(fixedClock(midJune)), WithColor(true))
	require.NoError(t, tracker.Run(context.Background()))

	assert.Contains(t, out.String(), "✅ Budget Remaining: €90.00\n")
	assert.Contains(t, out.String(), "\033[92m👉 Budget Per Day: €4.50\033[0m\n")
	assert.Len(t, st.appended, 1)
}

func TestRun_LastDayOfMonth(t *testing.T) {
	st := &fakeStore{loaded: []api.Expense{{Category: "Food", Amount: 8}}}
	var out bytes.Buffer

	tracker := New(config.Default(), fakeCollector{}, st, &out, logging.Discard(),
		WithClock(fixedClock(time.Date(2024, time.June, 30, 18, 0, 0, 0, time.UTC))))
	require.NoError(t, tracker.Run(context.Background()))

	assert.Contains(t, out.String(), "⚠️ No remaining days in this month!\n")
	assert.NotContains(t, out.String(), "Budget Per Day")
}

func TestRun_NoData(t *testing.T) {
	st := &fakeStore{loadErr: store.ErrNoData}
	var out bytes.Buffer

	tracker := New(config.Default(), fakeCollector{}, st, &out, logging.Discard())
	require.NoError(t, tracker.Run(context.Background()))

	assert.True(t, strings.HasSuffix(out.String(),
		"🎯 Summarizing User Expenses\nNo expenses recorded yet. Start adding your expenses!\n"))
	assert.NotContains(t, out.String(), "Total Spent")
}

func TestRun_SaveErrorContinues(t *testing.T) {
	st := &fakeStore{
		appendErr: errors.New("disk full"),
		loaded:    []api.Expense{{Category: "Food", Amount: 8}},
	}
	var out bytes.Buffer

	tracker := New(config.Default(), fakeCollector{}, st, &out, logging.Discard(), WithClock(fixedClock(midJune)))
	require.NoError(t, tracker.Run(context.Background()))

	assert.Contains(t, out.String(), "Error saving expense: disk full\n")
	assert.Contains(t, out.String(), "💵 Total Spent: $8.00\n")
}

func TestRun_ReadErrorAbortsSummary(t *testing.T) {
	st := &fakeStore{loadErr: errors.New("permission denied")}
	var out bytes.Buffer

	tracker := New(config.Default(), fakeCollector{}, st, &out, logging.Discard())
	require.NoError(t, tracker.Run(context.Background()))

	assert.Contains(t, out.String(), "Error reading expenses: permission denied\n")
	assert.NotContains(t, out.String(), "Expenses By Category")
	assert.NotContains(t, out.String(), "No expenses recorded yet")
}

func TestRun_MalformedStoreFails(t *testing.T) {
	ferr := &store.FormatError{Line: 3, Text: "oops", Err: errors.New("expected 3 fields")}
	st := &fakeStore{loadErr: ferr}
	var out bytes.Buffer

	tracker := New(config.Default(), fakeCollector{}, st, &out, logging.Discard())
	err := tracker.Run(context.Background())

	var got *store.FormatError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 3, got.Line)
	assert.NotContains(t, out.String(), "Expenses By Category")
}

func TestRun_CollectError(t *testing.T) {
	st := &fakeStore{}
	var out bytes.Buffer

	tracker := New(config.Default(), fakeCollector{err: prompt.ErrInputClosed}, st, &out, logging.Discard())
	err := tracker.Run(context.Background())

	assert.ErrorIs(t, err, prompt.ErrInputClosed)
	assert.Empty(t, st.appended)
	assert.NotContains(t, out.String(), "Saving User Expense")
}
