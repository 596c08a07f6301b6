package cfg

import (
	"flag"
	"math"
	"strings"
	"testing"
)

// validBase returns a Config with all fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		ClaudeAPIKey:          "sk-test-key",
		ClaudeModel:           "claude-sonnet-4-20250514",
		GeminiAPIKey:          "gm-test-key",
		GeminiEmbedModel:      "text-embedding-004",
		DuplicateThreshold:    0.85,
		DuplicateWindow:       200,
		HoursSavedPerDup:      1.5,
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
	if c.GeminiEmbedModel != "text-embedding-004" {
		t.Errorf("GeminiEmbedModel = %q, want %q", c.GeminiEmbedModel, "text-embedding-004")
	}
	if c.DuplicateThreshold != 0.85 {
		t.Errorf("DuplicateThreshold = %g, want 0.85", c.DuplicateThreshold)
	}
	if c.DuplicateWindow != 200 {
		t.Errorf("DuplicateWindow = %d, want 200", c.DuplicateWindow)
	}
	if c.HoursSavedPerDup != 1.5 {
		t.Errorf("HoursSavedPerDup = %g, want 1.5", c.HoursSavedPerDup)
	}

	// AI keys default to empty: the service runs rule-based with local embeddings.
	if c.ClaudeAPIKey != "" || c.GeminiAPIKey != "" {
		t.Errorf("api keys should default to empty, got %q / %q", c.ClaudeAPIKey, c.GeminiAPIKey)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
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
		"-claude-api-key", "sk-override",
		"-gemini-api-key", "gm-override",
		"-database-url", "postgres://localhost/sift",
		"-rulebook-path", "/etc/sift/rulebook.yml",
		"-esb-webhook-url", "https://esb.example.com/webhook",
		"-duplicate-threshold", "0.9",
		"-duplicate-window", "500",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want %q", c.ClaudeAPIKey, "sk-override")
	}
	if c.GeminiAPIKey != "gm-override" {
		t.Errorf("GeminiAPIKey = %q, want %q", c.GeminiAPIKey, "gm-override")
	}
	if c.DatabaseURL != "postgres://localhost/sift" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.RulebookPath != "/etc/sift/rulebook.yml" {
		t.Errorf("RulebookPath = %q", c.RulebookPath)
	}
	if c.EsbWebhookURL != "https://esb.example.com/webhook" {
		t.Errorf("EsbWebhookURL = %q", c.EsbWebhookURL)
	}
	if c.DuplicateThreshold != 0.9 {
		t.Errorf("DuplicateThreshold = %g, want 0.9", c.DuplicateThreshold)
	}
	if c.DuplicateWindow != 500 {
		t.Errorf("DuplicateWindow = %d, want 500", c.DuplicateWindow)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	invalid := func(mutate func(*Config)) Config {
		c := validBase()
		mutate(&c)
		return c
	}

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "base is valid",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name:    "no ai keys is valid",
			cfg:     invalid(func(c *Config) { c.ClaudeAPIKey = ""; c.GeminiAPIKey = "" }),
			wantErr: false,
		},
		{
			name: "minimum valid values",
			cfg: invalid(func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = 1, 2, 1
				c.DuplicateThreshold, c.DuplicateWindow, c.HoursSavedPerDup = 0.01, 1, 0
			}),
			wantErr: false,
		},
		{
			name: "maximum valid values",
			cfg: invalid(func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = 299, 300, 65535
				c.DuplicateThreshold, c.DuplicateWindow = 1, 10000
			}),
			wantErr: false,
		},
		{
			name:      "drain zero",
			cfg:       invalid(func(c *Config) { c.DrainSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       invalid(func(c *Config) { c.DrainSeconds = 301; c.ShutdownBudgetSeconds = 302 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:      "budget equals drain",
			cfg:       invalid(func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:      "port zero",
			cfg:       invalid(func(c *Config) { c.APIPort = 0 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			cfg:       invalid(func(c *Config) { c.APIPort = 65536 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "claude key without model",
			cfg:       invalid(func(c *Config) { c.ClaudeModel = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:      "gemini key without model",
			cfg:       invalid(func(c *Config) { c.GeminiEmbedModel = "" }),
			wantErr:   true,
			errSubstr: []string{"GEMINI_EMBED_MODEL"},
		},
		{
			name:      "threshold zero",
			cfg:       invalid(func(c *Config) { c.DuplicateThreshold = 0 }),
			wantErr:   true,
			errSubstr: []string{"DUPLICATE_THRESHOLD"},
		},
		{
			name:      "threshold above one",
			cfg:       invalid(func(c *Config) { c.DuplicateThreshold = 1.01 }),
			wantErr:   true,
			errSubstr: []string{"DUPLICATE_THRESHOLD"},
		},
		{
			name:      "window zero",
			cfg:       invalid(func(c *Config) { c.DuplicateWindow = 0 }),
			wantErr:   true,
			errSubstr: []string{"DUPLICATE_WINDOW"},
		},
		{
			name:      "negative hours saved",
			cfg:       invalid(func(c *Config) { c.HoursSavedPerDup = -0.1 }),
			wantErr:   true,
			errSubstr: []string{"HOURS_SAVED_PER_DUPLICATE"},
		},
		{
			name:      "all fields invalid",
			cfg:       Config{ClaudeAPIKey: "k", GeminiAPIKey: "k"},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "CLAUDE_MODEL", "GEMINI_EMBED_MODEL", "DUPLICATE_THRESHOLD", "DUPLICATE_WINDOW"},
		},
		{
			name: "extreme negative values",
			cfg: invalid(func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = math.MinInt32, math.MinInt32, math.MinInt32
			}),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT"},
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
	seeds := []struct {
		drain, budget, port int
		threshold           float64
		window              int
	}{
		{60, 90, 8080, 0.85, 200},
		{1, 2, 1, 0.01, 1},
		{299, 300, 65535, 1, 10000},
		{0, 0, 0, 0, 0},
		{-1, -1, -1, -0.5, -1},
		{301, 302, 65536, 1.5, 10001},
		{150, 100, 8080, 0.85, 200},
		{math.MinInt32, math.MinInt32, math.MinInt32, math.Inf(-1), math.MinInt32},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, math.Inf(1), math.MaxInt32},
	}
	for _, s := range seeds {
		f.Add(s.drain, s.budget, s.port, s.threshold, s.window)
	}

	f.Fuzz(func(t *testing.T, drain, budget, port int, threshold float64, window int) {
		c := validBase()
		c.DrainSeconds = drain
		c.ShutdownBudgetSeconds = budget
		c.APIPort = port
		c.DuplicateThreshold = threshold
		c.DuplicateWindow = window
		err := c.Validate()

		drainOK := drain >= 1 && drain <= 300
		budgetOK := budget >= 1 && budget <= 300
		portOK := port >= 1 && port <= 65535
		crossOK := budget > drain
		thresholdOK := threshold > 0 && threshold <= 1
		windowOK := window >= 1 && window <= 10000

		allValid := drainOK && budgetOK && portOK && crossOK && thresholdOK && windowOK

		if allValid && err != nil {
			t.Errorf("expected no error for valid config %+v, got: %v", c, err)
		}
		if !allValid && err == nil {
			t.Errorf("expected error for invalid config %+v, got nil", c)
		}
	})
}
