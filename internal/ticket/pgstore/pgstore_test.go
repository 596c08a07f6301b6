package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/siftlabs/sift/internal/postgres"
	"github.com/siftlabs/sift/internal/ticket"
	"github.com/siftlabs/sift/internal/ticket/pgstore"
	"github.com/siftlabs/sift/internal/triage"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("SIFT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SIFT_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func sampleTicket(title string) *ticket.Ticket {
	return &ticket.Ticket{
		Title:          title,
		Description:    "VPN tunnel fails with authentication error for remote staff.",
		Reporter:       "IT Helpdesk",
		Department:     "Corporate IT",
		Source:         ticket.SourceManual,
		Metadata:       map[string]any{"host": "vpn-gw-01"},
		Severity:       triage.SevP2,
		Confidence:     0.75,
		AssignedTeam:   "Network Operations",
		SuggestedFixes: []string{"Verify VPN concentrator and tunnel health"},
		TriageSource:   triage.SourceNoAIKey,
		Lifecycle:      ticket.LifecycleTriaged,
		Status:         "open",
	}
}

func TestCreateAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tk := sampleTicket("pgstore create-get " + time.Now().Format(time.RFC3339Nano))
	if err := s.Create(ctx, tk); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.ID == 0 {
		t.Fatal("Create did not assign an ID")
	}
	if tk.CreatedAt.IsZero() {
		t.Fatal("Create did not fill created_at")
	}

	got, ok, err := s.Get(ctx, tk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false")
	}

	assertEqual(t, "Title", tk.Title, got.Title)
	assertEqual(t, "Reporter", tk.Reporter, got.Reporter)
	assertEqual(t, "Severity", tk.Severity, got.Severity)
	assertEqual(t, "Confidence", tk.Confidence, got.Confidence)
	assertEqual(t, "AssignedTeam", tk.AssignedTeam, got.AssignedTeam)
	assertEqual(t, "TriageSource", tk.TriageSource, got.TriageSource)
	assertEqual(t, "Lifecycle", tk.Lifecycle, got.Lifecycle)
	if len(got.SuggestedFixes) != 1 || got.SuggestedFixes[0] != tk.SuggestedFixes[0] {
		t.Errorf("SuggestedFixes mismatch: got %v", got.SuggestedFixes)
	}
	if got.Metadata["host"] != "vpn-gw-01" {
		t.Errorf("Metadata mismatch: got %v", got.Metadata)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Get(context.Background(), -1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get returned ok=true for nonexistent ID")
	}
}

func TestGetByJiraKey(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	key := "OPS-" + time.Now().Format("150405.000000000")
	tk := sampleTicket("pgstore jira-key")
	tk.JiraIssueKey = key
	if err := s.Create(ctx, tk); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok, err := s.GetByJiraKey(ctx, key)
	if err != nil {
		t.Fatalf("GetByJiraKey: %v", err)
	}
	if !ok {
		t.Fatal("GetByJiraKey returned ok=false")
	}
	if got.ID != tk.ID {
		t.Errorf("ID = %d, want %d", got.ID, tk.ID)
	}

	if _, ok, _ := s.GetByJiraKey(ctx, ""); ok {
		t.Error("empty jira key should not match any ticket")
	}
}

func TestUpdate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tk := sampleTicket("pgstore update")
	if err := s.Create(ctx, tk); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().Truncate(time.Microsecond).UTC()
	tk.Escalated = true
	tk.Lifecycle = ticket.LifecycleResolved
	tk.Status = "resolved"
	tk.ResolvedAt = &now

	if err := s.Update(ctx, tk); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, ok, err := s.Get(ctx, tk.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !got.Escalated {
		t.Error("Escalated not persisted")
	}
	assertEqual(t, "Lifecycle", ticket.LifecycleResolved, got.Lifecycle)
	assertEqual(t, "Status", "resolved", got.Status)
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(now) {
		t.Errorf("ResolvedAt = %v, want %v", got.ResolvedAt, now)
	}

	if err := s.Update(ctx, &ticket.Ticket{ID: -1}); err != ticket.ErrNotFound {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestRecentOrdering(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := sampleTicket("pgstore recent a")
	second := sampleTicket("pgstore recent b")
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if err := s.Create(ctx, second); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != second.ID {
		t.Errorf("Recent[0].ID = %d, want most recent %d", got[0].ID, second.ID)
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}
