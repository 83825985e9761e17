// Package api defines the core interfaces and data structures for the expense tracker.
package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Expense is a single logged expense.
type Expense struct {
	Name string `json:"name"`
	// Category holds the display label chosen at entry time, e.g. "🍔 Food".
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

func (e Expense) String() string {
	return fmt.Sprintf("Expense(name='%s', category='%s', amount=%s)",
		e.Name, e.Category, formatAmount(e.Amount))
}

// formatAmount prints whole amounts with one decimal place (1200.0) and
// others in their shortest form (4.5).
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// Category is one of the fixed spending buckets offered at entry time.
type Category struct {
	Icon string
	Name string
}

// Label returns the text stored in the expense file for this category.
func (c Category) Label() string {
	return c.Icon + " " + c.Name
}

// DefaultCategories returns the fixed, ordered category list. The order is
// the 1-based index shown to the user.
func DefaultCategories() []Category {
	return []Category{
		{Icon: "🍔", Name: "Food"},
		{Icon: "🏠", Name: "Home"},
		{Icon: "💼", Name: "Work"},
		{Icon: "🎉", Name: "Fun"},
		{Icon: "✨", Name: "Misc"},
	}
}

// Collector gathers one expense from the user.
// Implementations block until a valid expense is entered or input ends.
type Collector interface {
	Collect() (Expense, error)
}

// Store persists expenses and reads the full history back.
type Store interface {
	Append(ctx context.Context, e Expense) error
	LoadAll(ctx context.Context) ([]Expense, error)
	Path() string
}
