package triage

import (
	"context"
	"math"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/siftlabs/sift/internal/policy"
)

// Hooks receives engine observations. Wired to Prometheus by main; any
// field may be nil.
type Hooks struct {
	// OnLLMCall fires after each generation attempt.
	OnLLMCall func(duration float64, ok bool)

	// OnComplete fires once per Triage call with the final provenance.
	OnComplete func(source Source, severity Severity, duration float64)
}

// Engine sequences the triage decision: override check, strategy selection,
// strategy execution, policy-based refinement. The injected policy is
// read-only; concurrent Triage calls share it without locking.
type Engine struct {
	policy *policy.Policy
	gen    Generator
	logger log.Logger
	hooks  Hooks
}

// NewEngine creates a triage engine. A nil generator selects the rule-based
// strategy for every call (results tagged no_ai_key).
func NewEngine(p *policy.Policy, gen Generator, logger log.Logger, hooks Hooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		policy: p,
		gen:    gen,
		logger: logger,
		hooks:  hooks,
	}
}

// Triage classifies an incident report. It always returns a structurally
// valid Result and never returns an error: generation failures and
// malformed model output fall back to the rule-based strategy.
func (e *Engine) Triage(ctx context.Context, title, description string) Result {
	start := time.Now()
	text := combined(title, description)

	// Override check runs first and short-circuits everything else.
	// Routing is still computed; it is independent of severity.
	if phrase, ok := overridePhrase(text, e.policy); ok {
		team := routeTeam(text, e.policy)
		e.logger.Info(ctx, "override phrase matched", "phrase", phrase, "team", team)
		return e.complete(start, Result{
			Severity:       SevP1,
			Confidence:     overrideConfidence,
			Reasoning:      overrideReasoning,
			Team:           team,
			SuggestedFixes: ruleFixes(e.policy, team, SevP1),
			Source:         SourceOverride,
		})
	}

	if e.gen == nil {
		return e.complete(start, e.ruleResult(text, SourceNoAIKey))
	}

	result, err := e.aiTriage(ctx, title, description, text)
	if err != nil {
		e.logger.Error(ctx, err, "ai triage failed, using rule-based fallback")
		return e.complete(start, e.ruleResult(text, SourceAIFallback))
	}
	return e.complete(start, result)
}

// ruleResult executes the full rule-based strategy.
func (e *Engine) ruleResult(text string, source Source) Result {
	team := routeTeam(text, e.policy)
	sev, conf, reasoning := severityFromSignals(text, e.policy)
	return Result{
		Severity:       sev,
		Confidence:     conf,
		Reasoning:      reasoning,
		Team:           team,
		SuggestedFixes: ruleFixes(e.policy, team, sev),
		Source:         source,
	}
}

// aiTriage runs the AI-assisted strategy: one generation call, sanitized and
// validated, with the fix list refined against the rulebook.
func (e *Engine) aiTriage(ctx context.Context, title, description, text string) (Result, error) {
	team := routeTeam(text, e.policy)
	prompt := buildPrompt(title, description, team)

	llmStart := time.Now()
	raw, err := e.gen.Generate(ctx, prompt)
	if e.hooks.OnLLMCall != nil {
		e.hooks.OnLLMCall(time.Since(llmStart).Seconds(), err == nil)
	}
	if err != nil {
		return Result{}, err
	}

	payload, err := extractPayload(raw)
	if err != nil {
		return Result{}, err
	}

	sev := Severity(payload.Severity)
	if !sev.Valid() {
		sev = SevP3
	}

	conf := aiDefaultConfidence
	if payload.Confidence != nil {
		conf = clamp01(*payload.Confidence)
	}

	reasoning := payload.Reasoning
	if reasoning == "" {
		reasoning = aiDefaultReasoning
	}

	return Result{
		Severity:       sev,
		Confidence:     conf,
		Reasoning:      reasoning,
		Team:           team,
		SuggestedFixes: refineFixes(payload.fixes(), team, sev, e.policy),
		Source:         SourceAI,
	}, nil
}

func (e *Engine) complete(start time.Time, r Result) Result {
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(r.Source, r.Severity, time.Since(start).Seconds())
	}
	return r
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return aiDefaultConfidence
	}
	return math.Min(1, math.Max(0, f))
}
