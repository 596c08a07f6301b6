package triage

import (
	"fmt"
	"strings"

	"github.com/siftlabs/sift/internal/policy"
)

// Rule strategy confidence levels and fixed reasonings.
const (
	overrideConfidence = 0.99
	signalConfidence   = 0.75
	defaultConfidence  = 0.55

	overrideReasoning = "Rule-based critical override triggered."
	defaultReasoning  = "Defaulted to P3 due to weak signals."
)

// combined joins title and description into the lowercased text all keyword
// matching runs against.
func combined(title, description string) string {
	return strings.ToLower(title + "\n" + description)
}

// matchPhrase returns the first phrase contained in text, if any.
// Phrases are matched as case-insensitive substrings.
func matchPhrase(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// overridePhrase reports whether text contains a P1 override phrase.
func overridePhrase(text string, p *policy.Policy) (string, bool) {
	return matchPhrase(text, p.Overrides.P1Phrases)
}

// routeTeam returns the first team in rulebook order with a keyword match,
// or the default team. Routing is independent of severity and is computed
// on every path, including overrides.
func routeTeam(text string, p *policy.Policy) string {
	for _, team := range p.Routing.Teams {
		if _, ok := matchPhrase(text, p.Routing.Rules[team]); ok {
			return team
		}
	}
	return policy.DefaultTeam
}

// severityFromSignals scans severity signals P1 through P4; the first level
// with a keyword match wins. No match defaults to P3 with low confidence.
func severityFromSignals(text string, p *policy.Policy) (Severity, float64, string) {
	for _, sev := range policy.Severities {
		if _, ok := matchPhrase(text, p.Severity.Signals[sev]); ok {
			return Severity(sev), signalConfidence, fmt.Sprintf("Detected %s severity keywords.", sev)
		}
	}
	return SevP3, defaultConfidence, defaultReasoning
}

// ruleFixes assembles remediation steps from the rulebook templates:
// base steps, team-specific steps, and the P1 addendum when applicable.
// Rulebook strings are already clean; no normalization needed here.
func ruleFixes(p *policy.Policy, team string, sev Severity) []string {
	steps := make([]string, 0, maxFixes)
	steps = append(steps, p.Fixes.Base...)
	steps = append(steps, p.Fixes.ByTeam[team]...)
	if sev == SevP1 {
		steps = append(steps, p.Fixes.P1Addendum...)
	}
	if len(steps) > maxFixes {
		steps = steps[:maxFixes]
	}
	return steps
}
