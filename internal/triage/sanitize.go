package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput means the generator response contained no parseable
// JSON object. The AI strategy catches it and falls back to the rule
// strategy; it never reaches the caller.
var ErrMalformedOutput = errors.New("no JSON object found in model output")

// Defaults for keys missing from the model response.
const (
	aiDefaultConfidence = 0.6
	aiDefaultReasoning  = "AI triage result."
)

// aiPayload is the structured result extracted from a model response.
// SuggestedFixes stays raw so a non-list value degrades to an empty list
// instead of failing the whole extraction.
type aiPayload struct {
	Severity       string          `json:"severity"`
	Confidence     *float64        `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	SuggestedFixes json.RawMessage `json:"suggested_fixes"`
}

// fenceRe strips markdown code fence markers with an optional language tag.
var fenceRe = regexp.MustCompile("```[a-zA-Z]*")

// extractPayload locates and parses the first balanced-looking {...} span in
// an untrusted model response, tolerating surrounding prose and code fences.
func extractPayload(raw string) (*aiPayload, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrMalformedOutput
	}

	var p aiPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return &p, nil
}

// fixes decodes the suggested_fixes key, returning nil when absent or not a
// list of strings.
func (p *aiPayload) fixes() []string {
	if len(p.SuggestedFixes) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.SuggestedFixes, &out); err != nil {
		return nil
	}
	return out
}

// enumRe matches leading enumeration markers like "1)", "2.", "-", "*".
var enumRe = regexp.MustCompile(`^\s*(?:[-*]|\d+\)|\d+\.)\s+`)

// spaceRe collapses internal whitespace runs.
var spaceRe = regexp.MustCompile(`\s+`)

// normalizeFixes cleans an untrusted fix list: drops empties, strips leading
// enumeration markers, collapses whitespace, trims, and dedups
// case-insensitively preserving first-seen order.
func normalizeFixes(fixes []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(fixes))
	for _, f := range fixes {
		s := enumRe.ReplaceAllString(strings.TrimSpace(f), "")
		s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
