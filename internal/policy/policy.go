// Package policy loads the triage rulebook: override phrases, severity
// signals, routing rules, and remediation templates. The rulebook is parsed
// once at startup and is read-only afterwards, so concurrent triage calls
// can share a single *Policy without locking.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rulebook.yml
var defaultRulebook []byte

// DefaultTeam receives tickets no routing rule matches.
const DefaultTeam = "Application Support"

// Severities in scan order, most severe first.
var Severities = []string{"P1", "P2", "P3", "P4"}

// Policy is the immutable decision policy for the triage engine.
type Policy struct {
	Overrides Overrides `yaml:"overrides"`
	Routing   Routing   `yaml:"routing"`
	Severity  Signals   `yaml:"severity"`
	Fixes     Fixes     `yaml:"fixes"`
}

// Overrides holds phrases that force maximum severity unconditionally.
type Overrides struct {
	P1Phrases []string `yaml:"p1_phrases"`
}

// Routing maps teams to their keywords. Teams is the precedence order:
// the first team with a matching keyword wins.
type Routing struct {
	Teams []string            `yaml:"teams"`
	Rules map[string][]string `yaml:"rules"`
}

// Signals maps severity levels to the keywords that indicate them.
type Signals struct {
	Signals map[string][]string `yaml:"signals"`
}

// Fixes holds the remediation step templates.
type Fixes struct {
	Base       []string            `yaml:"base"`
	ByTeam     map[string][]string `yaml:"by_team"`
	P1Addendum []string            `yaml:"p1_addendum"`
}

// Load reads and validates a rulebook. An empty path loads the embedded
// default. A missing or malformed rulebook is fatal to startup: triaging
// with broken policy data is worse than not starting at all.
func Load(path string) (*Policy, error) {
	data := defaultRulebook
	if path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config, not user input
		if err != nil {
			return nil, fmt.Errorf("read rulebook %s: %w", path, err)
		}
		data = b
	}
	return parse(data)
}

func parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid rulebook: %w", err)
	}
	return &p, nil
}

func (p *Policy) validate() error {
	if len(p.Routing.Teams) == 0 {
		return fmt.Errorf("routing.teams is empty (routing order must be explicit)")
	}
	for team := range p.Routing.Rules {
		if !contains(p.Routing.Teams, team) {
			return fmt.Errorf("routing.rules references unlisted team %q", team)
		}
	}
	for sev := range p.Severity.Signals {
		if !contains(Severities, sev) {
			return fmt.Errorf("severity.signals references unknown severity %q", sev)
		}
	}
	for team := range p.Fixes.ByTeam {
		if !contains(p.Routing.Teams, team) {
			return fmt.Errorf("fixes.by_team references unlisted team %q", team)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var (
	defaultOnce   sync.Once
	defaultPolicy *Policy
	defaultErr    error
)

// Default returns the embedded rulebook, parsed at most once for the
// process lifetime.
func Default() (*Policy, error) {
	defaultOnce.Do(func() {
		defaultPolicy, defaultErr = parse(defaultRulebook)
	})
	return defaultPolicy, defaultErr
}
