package cfg

import (
	"flag"
	"math"
	"reflect"
	"strings"
	"testing"
)

// validBase returns a Config with all fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		ClaudeModel:           "claude-sonnet-4-20250514",
		MaxBodyBytes:          65536,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if c.MaxBodyBytes != 65536 {
		t.Errorf("MaxBodyBytes = %d, want 65536", c.MaxBodyBytes)
	}
	if c.APIToken != "" || c.ClaudeAPIKey != "" || c.SlackWebhookURL != "" {
		t.Error("optional integrations should default to disabled")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-api-token", "a,b",
		"-slack-webhook-url", "https://hooks.slack.com/services/x",
		"-claude-api-key", "sk-override",
		"-claude-model", "claude-opus-4-20250514",
		"-max-body-bytes", "1024",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.APIToken != "a,b" {
		t.Errorf("APIToken = %q, want %q", c.APIToken, "a,b")
	}
	if c.SlackWebhookURL != "https://hooks.slack.com/services/x" {
		t.Errorf("SlackWebhookURL = %q", c.SlackWebhookURL)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want %q", c.ClaudeAPIKey, "sk-override")
	}
	if c.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-opus-4-20250514")
	}
	if c.MaxBodyBytes != 1024 {
		t.Errorf("MaxBodyBytes = %d, want 1024", c.MaxBodyBytes)
	}
}

func TestAPITokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"old,new", []string{"old", "new"}},
		{" old , ,new ,", []string{"old", "new"}},
		{",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			c := Config{APIToken: tt.in}
			if got := c.APITokens(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("APITokens(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	with := func(mut func(*Config)) Config {
		c := validBase()
		mut(&c)
		return c
	}

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "defaults are valid",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name: "minimum valid values",
			cfg: Config{
				DrainSeconds: 1, ShutdownBudgetSeconds: 2, APIPort: 1, MaxBodyBytes: 1,
			},
			wantErr: false,
		},
		{
			name: "maximum valid values",
			cfg: Config{
				DrainSeconds: 299, ShutdownBudgetSeconds: 300, APIPort: 65535, MaxBodyBytes: 10 << 20,
			},
			wantErr: false,
		},
		// DrainSeconds boundaries
		{
			name:      "drain zero",
			cfg:       with(func(c *Config) { c.DrainSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain negative",
			cfg:       with(func(c *Config) { c.DrainSeconds = -1 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       with(func(c *Config) { c.DrainSeconds, c.ShutdownBudgetSeconds = 301, 302 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:    "drain at upper bound",
			cfg:     with(func(c *Config) { c.DrainSeconds, c.ShutdownBudgetSeconds = 300, 300 }),
			wantErr: true, // budget must be greater than drain
		},
		// ShutdownBudgetSeconds boundaries
		{
			name:      "budget zero",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:      "budget above max",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = 301 }),
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		// Cross-field: budget vs drain
		{
			name:      "budget equals drain",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = 60 }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:      "budget less than drain",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = 30 }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:    "budget is drain plus one",
			cfg:     with(func(c *Config) { c.ShutdownBudgetSeconds = 61 }),
			wantErr: false,
		},
		// APIPort boundaries
		{
			name:      "port zero",
			cfg:       with(func(c *Config) { c.APIPort = 0 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			cfg:       with(func(c *Config) { c.APIPort = 65536 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		// Optional integrations
		{
			name:    "claude key with model",
			cfg:     with(func(c *Config) { c.ClaudeAPIKey = "k" }),
			wantErr: false,
		},
		{
			name:      "claude key without model",
			cfg:       with(func(c *Config) { c.ClaudeAPIKey, c.ClaudeModel = "k", "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:    "empty model without key",
			cfg:     with(func(c *Config) { c.ClaudeModel = "" }),
			wantErr: false,
		},
		{
			name:    "https slack webhook",
			cfg:     with(func(c *Config) { c.SlackWebhookURL = "https://hooks.slack.com/x" }),
			wantErr: false,
		},
		{
			name:      "slack webhook without scheme",
			cfg:       with(func(c *Config) { c.SlackWebhookURL = "hooks.slack.com/x" }),
			wantErr:   true,
			errSubstr: []string{"SLACK_WEBHOOK_URL"},
		},
		// MaxBodyBytes boundaries
		{
			name:      "body limit zero",
			cfg:       with(func(c *Config) { c.MaxBodyBytes = 0 }),
			wantErr:   true,
			errSubstr: []string{"MAX_BODY_BYTES"},
		},
		{
			name:      "body limit above max",
			cfg:       with(func(c *Config) { c.MaxBodyBytes = 10<<20 + 1 }),
			wantErr:   true,
			errSubstr: []string{"MAX_BODY_BYTES"},
		},
		// Error accumulation: all fields invalid
		{
			name:      "all fields invalid",
			cfg:       Config{ClaudeAPIKey: "k", SlackWebhookURL: "ftp://x"},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "CLAUDE_MODEL", "MAX_BODY_BYTES", "SLACK_WEBHOOK_URL"},
		},
		// Extreme values
		{
			name:      "extreme negative values",
			cfg:       Config{DrainSeconds: math.MinInt32, ShutdownBudgetSeconds: math.MinInt32, APIPort: math.MinInt32, MaxBodyBytes: math.MinInt64},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "MAX_BODY_BYTES"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				errMsg := err.Error()
				for _, sub := range tt.errSubstr {
					if !strings.Contains(errMsg, sub) {
						t.Errorf("error %q does not contain %q", errMsg, sub)
					}
				}
			}
		})
	}
}

func FuzzValidate(f *testing.F) {
	// Seeds: defaults, boundaries, extremes
	seeds := []struct {
		drain, budget, port int
		body                int64
		key, model          string
	}{
		{60, 90, 8080, 65536, "", "claude-sonnet"},
		{1, 2, 1, 1, "k", "m"},
		{299, 300, 65535, 10 << 20, "k", "m"},
		{0, 0, 0, 0, "", ""},
		{-1, -1, -1, -1, "k", ""},
		{300, 300, 65535, 1, "", ""},
		{301, 302, 65536, 10<<20 + 1, "", ""},
		{150, 100, 8080, 100, "k", "m"},
		{math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt64, "", ""},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt64, "", ""},
	}
	for _, s := range seeds {
		f.Add(s.drain, s.budget, s.port, s.body, s.key, s.model)
	}

	f.Fuzz(func(t *testing.T, drain, budget, port int, body int64, key, model string) {
		c := Config{
			DrainSeconds:          drain,
			ShutdownBudgetSeconds: budget,
			APIPort:               port,
			MaxBodyBytes:          body,
			ClaudeAPIKey:          key,
			ClaudeModel:           model,
		}
		err := c.Validate()

		drainOK := drain >= 1 && drain <= 300
		budgetOK := budget >= 1 && budget <= 300
		portOK := port >= 1 && port <= 65535
		crossOK := budget > drain
		bodyOK := body >= 1 && body <= 10<<20
		modelOK := key == "" || model != ""

		allValid := drainOK && budgetOK && portOK && crossOK && bodyOK && modelOK

		if allValid && err != nil {
			t.Errorf("expected no error for valid config %+v, got: %v", c, err)
		}
		if !allValid && err == nil {
			t.Errorf("expected error for invalid config %+v, got nil", c)
		}
	})
}

func TestCLIConfig_Defaults(t *testing.T) {
	t.Parallel()

	var c CLIConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}
	if c.Format != FormatJSON {
		t.Errorf("Format = %q, want %q", c.Format, FormatJSON)
	}
	if c.Input != "" || c.SelfTest || c.Watch || c.Full {
		t.Errorf("unexpected non-zero defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestCLIConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       CLIConfig
		errSubstr string
	}{
		{"json", CLIConfig{Format: FormatJSON}, ""},
		{"yaml", CLIConfig{Format: FormatYAML}, ""},
		{"watch with input", CLIConfig{Format: FormatJSON, Input: "in.yaml", Watch: true}, ""},
		{"unknown format", CLIConfig{Format: "xml"}, "FORMAT"},
		{"empty format", CLIConfig{}, "FORMAT"},
		{"watch without input", CLIConfig{Format: FormatJSON, Watch: true}, "-watch requires -input"},
		{"watch and self-test", CLIConfig{Format: FormatJSON, Input: "x.json", Watch: true, SelfTest: true}, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.errSubstr)
			}
		})
	}
}
