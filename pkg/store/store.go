// Package store implements the append-only expense file.
//
// Each expense is one line "name,amount,category". Lines are written with
// encoding/csv, so a field is only quoted when it contains the delimiter, a
// quote or a newline (or starts with a space). Files written by hand in the
// plain format read back unchanged.
package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go"

	"github.com/ArionMiles/expense-tracker/pkg/api"
)

// DefaultRetries is the number of append attempts on transient I/O errors.
const DefaultRetries = 3

// DefaultRetryDelay is the base delay between append attempts.
const DefaultRetryDelay = 50 * time.Millisecond

// maxLineSize bounds a single stored line.
const maxLineSize = 1 << 20

// ErrNoData is returned by LoadAll when the expense file does not exist yet.
var ErrNoData = errors.New("no expenses recorded yet")

// FormatError describes a stored line that cannot be decoded.
type FormatError struct {
	Line int
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed expense on line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

var (
	errFieldCount = errors.New("expected 3 fields: name,amount,category")
	errAmount     = errors.New("amount is not a number")
)

// Config holds configuration for the expense file store.
type Config struct {
	// FilePath is the path to the expense file.
	FilePath string
	// Retries is the number of append attempts. Defaults to DefaultRetries.
	Retries int
	// RetryDelay is the base delay between attempts. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	// SkipMalformed makes LoadAll skip undecodable lines with a warning
	// instead of returning a *FormatError.
	SkipMalformed bool
}

// Store reads and appends expenses to a flat file.
type Store struct {
	path          string
	retries       uint
	retryDelay    time.Duration
	skipMalformed bool
	logger        *slog.Logger

	// write appends one encoded line. Replaced in tests.
	write func(line []byte) error
}

var _ api.Store = (*Store)(nil)

// New creates a new Store. The file is not touched until the first call.
func New(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	s := &Store{
		path:          cfg.FilePath,
		retries:       uint(cfg.Retries),
		retryDelay:    cfg.RetryDelay,
		skipMalformed: cfg.SkipMalformed,
		logger:        logger,
	}
	s.write = s.appendLine
	return s
}

// Path returns the expense file path.
func (s *Store) Path() string {
	return s.path
}

// Append writes e as one line at the end of the file, creating it if needed.
func (s *Store) Append(ctx context.Context, e api.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := encodeLine(e)
	if err != nil {
		return fmt.Errorf("encoding expense: %w", err)
	}

	err = retry.Do(
		func() error {
			return s.write(line)
		},
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.Attempts(s.retries),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < s.retries {
				s.logger.Warn("retrying expense append", "attempt", n+1, "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("appending expense: %w", err)
	}

	s.logger.Debug("appended expense", "file", s.path, "name", e.Name, "category", e.Category)
	return nil
}

// appendLine performs a single write so a line is never split across calls.
func (s *Store) appendLine(line []byte) error {
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening expense file: %w", err)
	}

	if _, err := file.Write(line); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return fmt.Errorf("writing expense file: %w (close error: %w)", err, closeErr)
		}
		return fmt.Errorf("writing expense file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("closing expense file: %w", err)
	}
	return nil
}

// LoadAll reads every expense in file order. It returns ErrNoData when the
// file does not exist and a *FormatError for the first undecodable line,
// unless the store skips malformed lines.
func (s *Store) LoadAll(ctx context.Context) ([]api.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("opening expense file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var (
		expenses []api.Expense
		lineNo   int
		skipped  int
	)
	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		e, err := decodeLine(text)
		if err != nil {
			ferr := &FormatError{Line: lineNo, Text: text, Err: err}
			if !s.skipMalformed {
				return nil, ferr
			}
			s.logger.Warn("skipping malformed expense", "file", s.path, "line", lineNo, "error", err)
			skipped++
			continue
		}
		expenses = append(expenses, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading expense file: %w", err)
	}

	s.logger.Debug("loaded expenses", "file", s.path, "count", len(expenses), "skipped", skipped)
	return expenses, nil
}

func encodeLine(e api.Expense) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	record := []string{
		e.Name,
		strconv.FormatFloat(e.Amount, 'f', -1, 64),
		e.Category,
	}
	if err := w.Write(record); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeLine(text string) (api.Expense, error) {
	fields, err := splitLine(text)
	if err != nil {
		return api.Expense{}, err
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return api.Expense{}, fmt.Errorf("%w: %q", errAmount, fields[1])
	}

	return api.Expense{
		Name:     fields[0],
		Amount:   amount,
		Category: strings.TrimSpace(fields[2]),
	}, nil
}

// splitLine decodes the three fields of a line. Lines this store quoted are
// read as CSV; anything else falls back to a plain split on the delimiter,
// so a hand-written name such as `"Best" cafe` still loads.
func splitLine(text string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	fields, err := r.Read()
	if err == nil && len(fields) == 3 {
		return fields, nil
	}

	if plain := strings.Split(text, ","); len(plain) == 3 {
		return plain, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFieldCount, err)
	}
	return nil, errFieldCount
}

// isTransient reports whether an append failure is worth retrying.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY)
}
