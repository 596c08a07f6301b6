package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds service-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	ClaudeAPIKey          string
	ClaudeModel           string
	GeminiAPIKey          string
	GeminiEmbedModel      string
	DatabaseURL           string
	RulebookPath          string
	EsbWebhookURL         string
	DuplicateThreshold    float64
	DuplicateWindow       int
	HoursSavedPerDup      float64
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude LLM provider (empty = rule-based triage only)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.GeminiAPIKey, "gemini-api-key", "", "API key for the Gemini embedding provider (empty = local embeddings)")
	fs.StringVar(&c.GeminiEmbedModel, "gemini-embed-model", "text-embedding-004", "Gemini embedding model to use")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.RulebookPath, "rulebook-path", "", "path to a rulebook YAML file (empty = embedded default)")
	fs.StringVar(&c.EsbWebhookURL, "esb-webhook-url", "", "workflow bus webhook URL for escalations (empty = dispatch disabled)")
	fs.Float64Var(&c.DuplicateThreshold, "duplicate-threshold", 0.85, "cosine similarity threshold for duplicate detection (0..1]")
	fs.IntVar(&c.DuplicateWindow, "duplicate-window", 200, "number of recent tickets compared during duplicate detection (1..10000)")
	fs.Float64Var(&c.HoursSavedPerDup, "hours-saved-per-duplicate", 1.5, "estimated engineer hours saved per duplicate caught")
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

	// Both AI providers are optional; a key with no model is a misconfiguration
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}
	if c.GeminiAPIKey != "" && c.GeminiEmbedModel == "" {
		errs = append(errs, errors.New("GEMINI_EMBED_MODEL is required when GEMINI_API_KEY is set"))
	}

	if !(c.DuplicateThreshold > 0 && c.DuplicateThreshold <= 1) {
		errs = append(errs, fmt.Errorf("invalid DUPLICATE_THRESHOLD %g (must be in (0..1])", c.DuplicateThreshold))
	}
	if c.DuplicateWindow <= 0 || c.DuplicateWindow > 10000 {
		errs = append(errs, fmt.Errorf("invalid DUPLICATE_WINDOW %d (must be 1..10000)", c.DuplicateWindow))
	}
	if c.HoursSavedPerDup < 0 {
		errs = append(errs, fmt.Errorf("invalid HOURS_SAVED_PER_DUPLICATE %g (must be >= 0)", c.HoursSavedPerDup))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
