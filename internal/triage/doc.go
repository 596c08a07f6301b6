// Package triage is the decision engine for incident reports. It combines a
// deterministic rulebook classifier with an optional AI-assisted strategy,
// sanitizes untrusted model output, and always produces a valid Result.
package triage
