package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/siftlabs/sift/internal/policy"
	"github.com/siftlabs/sift/internal/triage"
)

type seedTicket struct {
	title       string
	description string
	reporter    string
	department  string
}

// demoTickets is a baseline corpus for demos: a mix of outages, a duplicate
// pair, and routine requests so routing and duplicate detection have
// something to match against.
var demoTickets = []seedTicket{
	{
		title:       "Production API returning 503 - checkout service down",
		description: "Production down: users cannot complete checkout. 503 from /checkout. Started 10 minutes ago.",
		reporter:    "SRE Oncall",
		department:  "E-Commerce",
	},
	{
		title:       "System outage: Customer portal unavailable",
		description: "System outage observed across regions. Portal login fails for all users. production down.",
		reporter:    "NOC",
		department:  "Customer Experience",
	},
	{
		title:       "VPN not connecting for multiple users",
		description: "VPN tunnel fails with authentication error. Many remote employees unable to connect since morning.",
		reporter:    "IT Helpdesk",
		department:  "Corporate IT",
	},
	{
		title:       "Duplicate: VPN connection failing with auth error",
		description: "Several users report VPN not connecting. Error says authentication failed. Started today 9AM.",
		reporter:    "Service Desk",
		department:  "Corporate IT",
	},
	{
		title:       "Potential data breach - suspicious access to finance share",
		description: "Possible data breach: unusual downloads detected from finance share, unauthorized account activity. security incident.",
		reporter:    "SOC Analyst",
		department:  "Security",
	},
	{
		title:       "Database performance degradation - slow queries on orders DB",
		description: "Orders DB experiencing slow queries and increased lock waits. Degraded performance for reporting jobs.",
		reporter:    "DBA",
		department:  "Data Platform",
	},
	{
		title:       "Password reset request - user locked out",
		description: "User cannot login due to repeated failed attempts. Needs password reset and MFA re-enrollment.",
		reporter:    "HR Ops",
		department:  "HR",
	},
	{
		title:       "High network latency between HQ and DC",
		description: "Intermittent high latency and packet loss observed on WAN link between HQ and data center.",
		reporter:    "Network Ops",
		department:  "Infrastructure",
	},
	{
		title:       "App error: 500 when submitting expense reports",
		description: "Expense app throws 500 on submit for a subset of users. Workaround: save draft works.",
		reporter:    "Finance Ops",
		department:  "Finance",
	},
	{
		title:       "Mobile app crash on launch after latest update",
		description: "After the latest app update, some Android devices crash on launch. Single user reported so far.",
		reporter:    "Product Support",
		department:  "Product",
	},
}

// SeedDemo inserts the demo corpus as untriaged tickets. It is a no-op when
// the store already holds at least as many tickets as the corpus. Returns
// the number of tickets inserted.
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	existing, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	if existing >= len(demoTickets) {
		return 0, nil
	}

	inserted := 0
	for _, st := range demoTickets {
		t := &Ticket{
			Title:          st.title,
			Description:    st.description,
			Reporter:       st.reporter,
			Department:     st.department,
			Source:         SourceManual,
			Severity:       triage.SevP4,
			Confidence:     0.5,
			AssignedTeam:   policy.DefaultTeam,
			SuggestedFixes: []string{},
			TriageSource:   triage.SourceNoAIKey,
			Lifecycle:      LifecycleReceived,
			Status:         "open",
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.store.Create(ctx, t); err != nil {
			return inserted, fmt.Errorf("seed ticket %q: %w", st.title, err)
		}
		inserted++
	}

	s.logger.Info(ctx, "seeded demo tickets", "inserted", inserted)
	return inserted, nil
}
