package triage

// Severity is an incident priority level, P1 (most severe) to P4 (least).
type Severity string

const (
	SevP1 Severity = "P1"
	SevP2 Severity = "P2"
	SevP3 Severity = "P3"
	SevP4 Severity = "P4"
)

// Valid reports whether s is a known severity level.
func (s Severity) Valid() bool {
	switch s {
	case SevP1, SevP2, SevP3, SevP4:
		return true
	}
	return false
}

// Source tags which decision path produced a Result, for observability.
type Source string

const (
	// SourceOverride means a rulebook override phrase short-circuited the engine.
	SourceOverride Source = "override"

	// SourceNoAIKey means the rule strategy ran because no API credential is configured.
	SourceNoAIKey Source = "no_ai_key"

	// SourceAI means the AI strategy produced the result.
	SourceAI Source = "ai"

	// SourceAIFallback means the AI strategy failed and the rule strategy took over.
	SourceAIFallback Source = "ai_fallback"
)

// Result is the outcome of a single triage call. It is a value object:
// constructed fresh per request, immutable once returned.
type Result struct {
	Severity       Severity `json:"severity"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	Team           string   `json:"assigned_team"`
	SuggestedFixes []string `json:"suggested_fixes"`
	Source         Source   `json:"source"`
}

const (
	// maxFixes bounds the suggested fix list on every path.
	maxFixes = 5

	// minFixes is the refinement floor for AI-produced fix lists. A rulebook
	// with fewer than minFixes combined defaults can still come up short;
	// that is an accepted edge case, not papered over with fabricated steps.
	minFixes = 3
)
