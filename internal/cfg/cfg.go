// Package cfg holds the application configuration for the bizpulse binaries.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config adds server-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	SlackWebhookURL       string
	ClaudeAPIKey          string
	ClaudeModel           string
	MaxBodyBytes          int64
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token(s) for /api/v1, comma-separated for rotation (empty = no auth)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for alert notifications")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude narrator (empty = narration disabled)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", 64<<10, "maximum analyze request body size in bytes (1..10485760)")
}

// APITokens splits APIToken into its non-empty comma-separated tokens.
func (c *Config) APITokens() []string {
	var out []string
	for _, t := range strings.Split(c.APIToken, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Narration needs a model once a key is given
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	if c.MaxBodyBytes <= 0 || c.MaxBodyBytes > 10<<20 {
		errs = append(errs, fmt.Errorf("invalid MAX_BODY_BYTES %d (must be 1..10485760)", c.MaxBodyBytes))
	}

	if c.SlackWebhookURL != "" && !strings.HasPrefix(c.SlackWebhookURL, "https://") && !strings.HasPrefix(c.SlackWebhookURL, "http://") {
		errs = append(errs, errors.New("SLACK_WEBHOOK_URL must be an http(s) URL"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Output formats accepted by CLIConfig.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// CLIConfig configures the bizpulse command line tool.
type CLIConfig struct {
	Input    string
	Format   string
	SelfTest bool
	Watch    bool
	Full     bool
}

// RegisterFlags binds CLIConfig fields to the given FlagSet with defaults inline
func (c *CLIConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Input, "input", "", "request file (.json, .yaml or .yml); empty runs the built-in sample")
	fs.StringVar(&c.Format, "format", FormatJSON, "output format (json|yaml)")
	fs.BoolVar(&c.SelfTest, "self-test", false, "run the built-in negative-profit scenario and report pass/fail")
	fs.BoolVar(&c.Watch, "watch", false, "re-evaluate the -input file whenever it changes")
	fs.BoolVar(&c.Full, "full", false, "print the whole state (input, metrics, output) instead of the output only")
}

// Validate checks the CLI flags for correctness.
func (c *CLIConfig) Validate() error {
	var errs []error

	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("invalid FORMAT %q (must be json or yaml)", c.Format))
	}

	if c.Watch && c.Input == "" {
		errs = append(errs, errors.New("-watch requires -input"))
	}
	if c.Watch && c.SelfTest {
		errs = append(errs, errors.New("-watch and -self-test are mutually exclusive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
