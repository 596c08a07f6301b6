package triage

import (
	"context"
	"fmt"
)

// Generator is the interface for any text-generation backend. A single call
// is placed per triage; retries, if desired, belong to the backend's caller.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// buildPrompt constructs the generation request. The team is computed
// rule-based beforehand and handed to the model; routing is never delegated.
func buildPrompt(title, description, team string) string {
	return fmt.Sprintf(`You are an enterprise IT incident triage agent.

Return STRICT JSON ONLY (no markdown, no extra keys) in this schema:
{
  "severity": "P1|P2|P3|P4",
  "confidence": 0.0,
  "reasoning": "short explanation",
  "suggested_fixes": ["step 1", "step 2", "step 3"]
}

Constraints:
- If the text indicates production down/system outage/data breach/security incident => severity must be P1.
- confidence must be a float between 0 and 1.
- reasoning must be <= 25 words.
- suggested_fixes must contain 3 to 5 short actionable steps.
- suggested_fixes must be relevant to the assigned team: %s

Ticket:
Title: %s
Description: %s`, team, title, description)
}
