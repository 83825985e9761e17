// Package config loads the expense tracker configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	kJson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the optional JSON config file read from the working directory.
const DefaultFile = "expense-tracker.json"

// EnvPrefix is the prefix of environment variables read into Config.
// EXPENSES_SKIP_MALFORMED maps to the "skip_malformed" key.
const EnvPrefix = "EXPENSES_"

// Colour modes for the daily allowance line.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the application configuration.
type Config struct {
	// FilePath is the append-only expense file.
	// Environment variable: EXPENSES_FILE
	FilePath string `koanf:"file"`

	// Budget is the monthly budget the summary is measured against.
	// Environment variable: EXPENSES_BUDGET
	Budget float64 `koanf:"budget"`

	// Currency is the symbol printed before amounts in the summary.
	// Environment variable: EXPENSES_CURRENCY
	Currency string `koanf:"currency"`

	// Color is one of auto, always or never.
	// Environment variable: EXPENSES_COLOR
	Color string `koanf:"color"`

	// SkipMalformed skips unreadable lines in the expense file with a
	// warning instead of failing the summary.
	// Environment variable: EXPENSES_SKIP_MALFORMED
	SkipMalformed bool `koanf:"skip_malformed"`

	// WriteRetries is the number of attempts made when appending hits a
	// transient I/O error.
	// Environment variable: EXPENSES_WRITE_RETRIES
	WriteRetries int `koanf:"write_retries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FilePath:     "expenses.csv",
		Budget:       2000,
		Currency:     "$",
		Color:        ColorAuto,
		WriteRetries: 3,
	}
}

// Load builds a Config from the defaults, the JSON file at path (if it
// exists) and EXPENSES_* environment variables, in that order.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), kJson.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// envKey maps EXPENSES_SKIP_MALFORMED to skip_malformed.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.FilePath) == "" {
		problems = append(problems, "expense file path cannot be empty")
	}

	if math.IsNaN(c.Budget) || math.IsInf(c.Budget, 0) {
		problems = append(problems, fmt.Sprintf("invalid budget %v: must be a finite number", c.Budget))
	} else if c.Budget < 0 {
		problems = append(problems, fmt.Sprintf("invalid budget %.2f: must not be negative", c.Budget))
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		problems = append(problems, fmt.Sprintf("invalid color mode '%s': must be one of auto, always, never", c.Color))
	}

	if c.WriteRetries < 1 {
		problems = append(problems, fmt.Sprintf("invalid write retries %d: must be at least 1", c.WriteRetries))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// UseColor resolves the colour mode given whether stdout is a terminal.
func (c *Config) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}
