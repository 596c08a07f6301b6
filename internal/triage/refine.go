package triage

import "github.com/siftlabs/sift/internal/policy"

// refineFixes reconciles an AI-produced fix list against the rulebook:
// normalize and dedup, fill gaps with base and team defaults when fewer
// than minFixes remain, append the P1 addendum for P1 incidents, and cap
// at maxFixes. The final floor re-seeds from rulebook defaults; a rulebook
// whose combined defaults are themselves sparse can still yield fewer than
// minFixes steps.
func refineFixes(aiFixes []string, team string, sev Severity, p *policy.Policy) []string {
	base := p.Fixes.Base
	teamDefaults := p.Fixes.ByTeam[team]

	refined := normalizeFixes(aiFixes)

	if len(refined) < minFixes {
		refined = normalizeFixes(concat(refined, base, teamDefaults))
	}

	if sev == SevP1 {
		refined = normalizeFixes(concat(refined, p.Fixes.P1Addendum))
	}

	if len(refined) > maxFixes {
		refined = refined[:maxFixes]
	}

	if len(refined) < minFixes {
		refined = normalizeFixes(concat(base, teamDefaults, refined))
		if len(refined) > maxFixes {
			refined = refined[:maxFixes]
		}
	}

	return refined
}

func concat(lists ...[]string) []string {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make([]string, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
