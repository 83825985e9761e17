// Package prompt collects a single expense from an interactive console.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ArionMiles/expense-tracker/pkg/api"
)

var (
	// ErrNotANumber is returned when the text is not a decimal number.
	ErrNotANumber = errors.New("not a number")
	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("expense amount cannot be negative")
	// ErrOutOfRange is returned for a category number outside the list.
	ErrOutOfRange = errors.New("category number out of range")
	// ErrInputClosed is returned when the input ends before an expense is complete.
	ErrInputClosed = errors.New("input closed before expense was complete")
)

// ParseAmount parses a non-negative decimal amount. Zero is accepted.
func ParseAmount(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, strings.TrimSpace(text))
	}
	if v < 0 {
		return 0, ErrNegativeAmount
	}
	// Normalise -0.
	return math.Abs(v), nil
}

// ParseCategoryIndex parses a 1-based category number and returns the
// 0-based index into a list of n categories.
func ParseCategoryIndex(text string, n int) (int, error) {
	num, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, strings.TrimSpace(text))
	}
	if num < 1 || num > n {
		return 0, fmt.Errorf("%w: %d not in [1 - %d]", ErrOutOfRange, num, n)
	}
	return num - 1, nil
}

// Collector prompts for an expense on out and reads answers from in.
type Collector struct {
	in         *bufio.Reader
	out        io.Writer
	categories []api.Category
	logger     *slog.Logger
}

var _ api.Collector = (*Collector)(nil)

// New creates a Collector offering the given categories in order.
func New(in io.Reader, out io.Writer, categories []api.Category, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		in:         bufio.NewReader(in),
		out:        out,
		categories: categories,
		logger:     logger,
	}
}

// Collect asks for a name, an amount and a category, re-prompting until
// each answer is valid. It only fails when the input ends or cannot be read.
func (c *Collector) Collect() (api.Expense, error) {
	fmt.Fprintln(c.out, "🎯 Getting User Expense")

	name, err := c.ask("Enter expense name: ")
	if err != nil {
		return api.Expense{}, err
	}

	amount, err := c.collectAmount()
	if err != nil {
		return api.Expense{}, err
	}

	category, err := c.collectCategory()
	if err != nil {
		return api.Expense{}, err
	}

	return api.Expense{Name: name, Category: category.Label(), Amount: amount}, nil
}

func (c *Collector) collectAmount() (float64, error) {
	for {
		text, err := c.ask("Enter expense amount: ")
		if err != nil {
			return 0, err
		}

		amount, err := ParseAmount(text)
		if err != nil {
			c.logger.Debug("rejected amount", "input", text, "error", err)
			fmt.Fprintf(c.out, "Invalid input: %v. Please enter a valid amount.\n", err)
			continue
		}
		return amount, nil
	}
}

func (c *Collector) collectCategory() (api.Category, error) {
	for {
		fmt.Fprintln(c.out, "Select a category: ")
		for i, cat := range c.categories {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, cat.Label())
		}

		text, err := c.ask(fmt.Sprintf("Enter a category number [1 - %d]: ", len(c.categories)))
		if err != nil {
			return api.Category{}, err
		}

		idx, err := ParseCategoryIndex(text, len(c.categories))
		switch {
		case errors.Is(err, ErrOutOfRange):
			c.logger.Debug("rejected category", "input", text, "error", err)
			fmt.Fprintln(c.out, "Invalid category. Please try again!")
		case err != nil:
			c.logger.Debug("rejected category", "input", text, "error", err)
			fmt.Fprintln(c.out, "Invalid input. Please enter a number.")
		default:
			return c.categories[idx], nil
		}
	}
}

// ask prints question and returns the next input line without its line ending.
func (c *Collector) ask(question string) (string, error) {
	fmt.Fprint(c.out, question)

	line, err := c.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading input: %w", err)
		}
		if line == "" {
			return "", ErrInputClosed
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
