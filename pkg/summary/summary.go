// Package summary aggregates expenses against a monthly budget and renders
// the spending report.
package summary

import (
	"fmt"
	"io"
	"time"

	"github.com/ArionMiles/expense-tracker/pkg/api"
)

// EmptyMessage is printed instead of a report when nothing has been recorded.
const EmptyMessage = "No expenses recorded yet. Start adding your expenses!"

const (
	ansiGreen = "\033[92m"
	ansiReset = "\033[0m"
)

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Amount   float64
}

// Report is the aggregated view of all expenses.
type Report struct {
	Budget     float64
	ByCategory []CategoryTotal
	TotalSpent float64
	// Remaining may be negative once the budget is exceeded.
	Remaining float64
	// DaysLeft counts the days after today in the current month.
	DaysLeft int
	// DailyAllowance is only meaningful when HasAllowance is set.
	DailyAllowance float64
	HasAllowance   bool
}

// Summarize groups expenses by category in first-seen order and computes
// the totals against budget as of now.
func Summarize(expenses []api.Expense, budget float64, now time.Time) Report {
	r := Report{Budget: budget}

	index := make(map[string]int)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(r.ByCategory)
			index[e.Category] = i
			r.ByCategory = append(r.ByCategory, CategoryTotal{Category: e.Category})
		}
		r.ByCategory[i].Amount += e.Amount
		r.TotalSpent += e.Amount
	}

	r.Remaining = budget - r.TotalSpent
	r.DaysLeft = DaysInMonth(now.Year(), now.Month()) - now.Day()
	if r.DaysLeft > 0 {
		r.DailyAllowance = r.Remaining / float64(r.DaysLeft)
		r.HasAllowance = true
	}

	return r
}

// DaysInMonth returns the number of days in month of year in the proleptic
// Gregorian calendar.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RenderOptions controls report formatting.
type RenderOptions struct {
	// Currency is printed before every amount.
	Currency string
	// Color highlights the daily allowance line with ANSI green.
	Color bool
}

// Render writes the report to w.
func (r Report) Render(w io.Writer, opts RenderOptions) error {
	ew := &errWriter{w: w}

	ew.println("Expenses By Category 📈:")
	for _, c := range r.ByCategory {
		ew.printf("  %s: %s%.2f\n", c.Category, opts.Currency, c.Amount)
	}
	ew.printf("💵 Total Spent: %s%.2f\n", opts.Currency, r.TotalSpent)
	ew.printf("✅ Budget Remaining: %s%.2f\n", opts.Currency, r.Remaining)

	if r.HasAllowance {
		line := fmt.Sprintf("👉 Budget Per Day: %s%.2f", opts.Currency, r.DailyAllowance)
		if opts.Color {
			line = ansiGreen + line + ansiReset
		}
		ew.println(line)
	} else {
		ew.println("⚠️ No remaining days in this month!")
	}

	return ew.err
}

// RenderEmpty writes the empty-state message to w.
func RenderEmpty(w io.Writer) error {
	_, err := fmt.Fprintln(w, EmptyMessage)
	return err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
