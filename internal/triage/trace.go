package triage

import (
	"fmt"

	"github.com/siftlabs/sift/internal/policy"
)

// Trace explains a triage decision in terms of the rulebook: which override
// or severity keyword fired and how routing was decided. It is attached to
// API responses for audit, never persisted by the engine.
type Trace struct {
	Source              Source  `json:"triage_source"`
	SignalsDetected     string  `json:"signals_detected,omitempty"`
	SeverityLogic       string  `json:"severity_logic"`
	RoutingLogic        string  `json:"routing_logic"`
	RoutingMatch        string  `json:"routing_match,omitempty"`
	DuplicateScore      float64 `json:"duplicate_score"`
	EscalationTriggered bool    `json:"escalation_triggered"`
}

// BuildTrace reconstructs the rulebook evidence for a completed decision.
func BuildTrace(p *policy.Policy, title, description, team string, sev Severity, source Source, dupScore float64, escalated bool) Trace {
	text := combined(title, description)

	tr := Trace{
		Source:              source,
		DuplicateScore:      dupScore,
		EscalationTriggered: escalated,
	}

	if match, ok := matchPhrase(text, p.Routing.Rules[team]); ok {
		tr.RoutingLogic = fmt.Sprintf("Matched %s keywords", team)
		tr.RoutingMatch = match
	} else {
		tr.RoutingLogic = fmt.Sprintf("Defaulted to %s", team)
	}

	if phrase, ok := overridePhrase(text, p); ok {
		tr.SeverityLogic = "P1 override"
		tr.SignalsDetected = phrase
		return tr
	}
	if match, ok := matchPhrase(text, p.Severity.Signals[string(sev)]); ok {
		tr.SeverityLogic = fmt.Sprintf("Matched %s signal", sev)
		tr.SignalsDetected = match
		return tr
	}
	tr.SeverityLogic = "AI classification"
	return tr
}
