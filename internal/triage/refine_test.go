package triage

import (
	"reflect"
	"testing"

	"github.com/siftlabs/sift/internal/policy"
)

func sparsePolicy() *policy.Policy {
	return &policy.Policy{
		Routing: policy.Routing{Teams: []string{"Ops"}},
		Fixes: policy.Fixes{
			Base:       []string{"Check status page"},
			ByTeam:     map[string][]string{"Ops": {"Restart service"}},
			P1Addendum: []string{"Open bridge call"},
		},
	}
}

func TestRefineFixes_KeepsGoodAIList(t *testing.T) {
	t.Parallel()
	p := testPolicy(t)

	in := []string{"1) Check VPN concentrator", "2) Rotate certs", "3) Notify users"}
	got := refineFixes(in, "Network Operations", SevP2, p)

	want := []string{"Check VPN concentrator", "Rotate certs", "Notify users"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("refineFixes() = %v, want %v", got, want)
	}
}

func TestRefineFixes_FillsFromRulebook(t *testing.T) {
	t.Parallel()
	p := testPolicy(t)

	got := refineFixes([]string{"Only one step"}, "Network Operations", SevP3, p)
	if len(got) < minFixes {
		t.Errorf("len = %d, want >= %d after rulebook fill", len(got), minFixes)
	}
	if len(got) > maxFixes {
		t.Errorf("len = %d, want <= %d", len(got), maxFixes)
	}
	if got[0] != "Only one step" {
		t.Errorf("got[0] = %q, want AI step preserved first", got[0])
	}
}

func TestRefineFixes_P1AddendumAppended(t *testing.T) {
	t.Parallel()
	p := sparsePolicy()

	got := refineFixes([]string{"A", "B", "C"}, "Ops", SevP1, p)
	found := false
	for _, s := range got {
		if s == "Open bridge call" {
			found = true
		}
	}
	if !found {
		t.Errorf("refineFixes() = %v, want P1 addendum included", got)
	}
}

func TestRefineFixes_CapAtFive(t *testing.T) {
	t.Parallel()
	p := testPolicy(t)

	in := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := refineFixes(in, "Application Support", SevP1, p)
	if len(got) != maxFixes {
		t.Errorf("len = %d, want %d", len(got), maxFixes)
	}
}

func TestRefineFixes_SparsePolicyFloor(t *testing.T) {
	t.Parallel()
	p := sparsePolicy()

	// Two combined defaults plus an empty AI list: the floor re-seed can
	// still come up short of three. That shortfall is accepted.
	got := refineFixes(nil, "Ops", SevP3, p)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2 (base + team default)", len(got))
	}
	for _, s := range got {
		if s == "" {
			t.Error("empty entry in refined fixes")
		}
	}
}

func TestRefineFixes_DedupAcrossAIAndRulebook(t *testing.T) {
	t.Parallel()
	p := sparsePolicy()

	got := refineFixes([]string{"check status page", "Restart service"}, "Ops", SevP3, p)
	counts := make(map[string]int)
	for _, s := range got {
		counts[s]++
		if counts[s] > 1 {
			t.Errorf("duplicate entry %q in %v", s, got)
		}
	}
	// Case-insensitive dedup collapses the AI's "check status page" and
	// the rulebook's "Check status page" into one entry.
	if len(got) != 2 {
		t.Errorf("refineFixes() = %v, want 2 deduped entries", got)
	}
}
