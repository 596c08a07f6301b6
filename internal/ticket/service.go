package ticket

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/siftlabs/sift/internal/dupe"
	"github.com/siftlabs/sift/internal/policy"
	"github.com/siftlabs/sift/internal/triage"
)

// monitoring override applied when an alerting source marks a ticket critical.
const (
	forceP1Reasoning     = "Monitoring P1 override: critical monitoring alert triggered."
	forceP1MinConfidence = 0.9
)

// Escalator dispatches a P1 escalation to the external workflow bus. The
// returned issue key may be empty when the bus creates the issue
// asynchronously.
type Escalator interface {
	Escalate(ctx context.Context, ev EscalationEvent) (issueKey string, err error)
}

// EscalationEvent is the enriched payload handed to the Escalator.
type EscalationEvent struct {
	AuditID        string          `json:"audit_id"`
	TicketID       int64           `json:"ticket_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Severity       triage.Severity `json:"severity"`
	AssignedTeam   string          `json:"assigned_team"`
	Reporter       string          `json:"reporter"`
	Department     string          `json:"department"`
	Reasoning      string          `json:"ai_reasoning"`
	SuggestedFixes []string        `json:"suggested_fixes"`
	IsDuplicate    bool            `json:"is_duplicate"`
	Escalated      bool            `json:"escalated"`
}

// Service is the business boundary for ticket operations.
type Service struct {
	store     Store
	engine    *triage.Engine
	detector  *dupe.Detector
	policy    *policy.Policy
	escalator Escalator
	logger    log.Logger

	// HoursSavedPerDuplicate feeds the dashboard estimate.
	hoursSavedPerDuplicate float64

	// recentWindow bounds the corpus handed to the duplicate detector.
	recentWindow int
}

// NewService creates a ticket service. The escalator may be nil, in which
// case P1 tickets are marked escalated but nothing is dispatched. A
// non-positive hoursSavedPerDuplicate or recentWindow falls back to the
// default rate and duplicate-detection window.
func NewService(store Store, engine *triage.Engine, detector *dupe.Detector, p *policy.Policy, escalator Escalator, logger log.Logger, hoursSavedPerDuplicate float64, recentWindow int) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if hoursSavedPerDuplicate <= 0 {
		hoursSavedPerDuplicate = 1.5
	}
	if recentWindow <= 0 {
		recentWindow = dupe.WindowSize
	}
	return &Service{
		store:                  store,
		engine:                 engine,
		detector:               detector,
		policy:                 p,
		escalator:              escalator,
		logger:                 logger,
		hoursSavedPerDuplicate: hoursSavedPerDuplicate,
		recentWindow:           recentWindow,
	}
}

// CreateInput is a new report to triage and persist.
type CreateInput struct {
	Title       string
	Description string
	Reporter    string
	Department  string
	Source      string
	Metadata    map[string]any

	// ForceP1 overrides the triage severity; set by monitoring intake when
	// the alerting source already classified the event as critical.
	ForceP1 bool
}

// Created is a freshly triaged ticket plus per-request decision context that
// is returned to the caller but not persisted.
type Created struct {
	Ticket    *Ticket
	Reasoning string
	Trace     triage.Trace
}

// Create triages a report, checks it against the recent-ticket window,
// persists it, and escalates P1 incidents.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	auditID := ulid.Make().String()
	L := s.logger.With("audit_id", auditID, "title", in.Title)

	res := s.engine.Triage(ctx, in.Title, in.Description)
	if in.ForceP1 {
		res.Severity = triage.SevP1
		if res.Confidence < forceP1MinConfidence {
			res.Confidence = forceP1MinConfidence
		}
		res.Reasoning = forceP1Reasoning
	}

	match := s.checkDuplicate(ctx, L, in.Title, in.Description)

	t := &Ticket{
		Title:           in.Title,
		Description:     in.Description,
		Reporter:        orUnknown(in.Reporter),
		Department:      orUnknown(in.Department),
		Source:          orManual(in.Source),
		Metadata:        in.Metadata,
		Severity:        res.Severity,
		Confidence:      res.Confidence,
		AssignedTeam:    res.Team,
		SuggestedFixes:  res.SuggestedFixes,
		TriageSource:    res.Source,
		IsDuplicate:     match.IsDuplicate,
		SimilarityScore: match.Score,
		Lifecycle:       LifecycleTriaged,
		Status:          "open",
		CreatedAt:       time.Now().UTC(),
	}
	if match.IsDuplicate {
		id := match.MatchedID
		t.DuplicateTicketID = &id
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.escalateIfNeeded(ctx, L, auditID, t, res.Reasoning)

	L.Info(ctx, "ticket created",
		"ticket_id", t.ID,
		"severity", t.Severity,
		"team", t.AssignedTeam,
		"triage_source", t.TriageSource,
		"is_duplicate", t.IsDuplicate,
		"similarity", t.SimilarityScore,
		"escalated", t.Escalated,
	)

	return &Created{
		Ticket:    t,
		Reasoning: res.Reasoning,
		Trace: triage.BuildTrace(s.policy, t.Title, t.Description, t.AssignedTeam,
			t.Severity, t.TriageSource, t.SimilarityScore, t.Escalated),
	}, nil
}

// checkDuplicate compares the report against the recent window. Detection
// problems degrade to "not a duplicate" rather than blocking intake.
func (s *Service) checkDuplicate(ctx context.Context, L log.Logger, title, description string) dupe.Match {
	recent, err := s.store.Recent(ctx, s.recentWindow)
	if err != nil {
		L.Error(ctx, err, "recent window fetch failed, skipping duplicate check")
		return dupe.Match{}
	}

	corpus := make([]dupe.Entry, 0, len(recent))
	for _, t := range recent {
		corpus = append(corpus, dupe.Entry{ID: t.ID, Title: t.Title, Description: t.Description})
	}

	match, err := s.detector.FindDuplicate(ctx, title, description, corpus)
	if err != nil {
		L.Error(ctx, err, "duplicate check failed, treating report as unique")
		return dupe.Match{}
	}
	return match
}

// escalateIfNeeded marks P1 tickets escalated and dispatches them to the
// workflow bus. Duplicate monitoring tickets are not re-escalated (the
// original alert already was). Dispatch failures are logged, not retried.
func (s *Service) escalateIfNeeded(ctx context.Context, L log.Logger, auditID string, t *Ticket, reasoning string) {
	if t.Severity != triage.SevP1 {
		return
	}
	if t.Source == SourceDatadog && t.IsDuplicate {
		return
	}

	t.Escalated = true
	t.Lifecycle = LifecycleEscalated

	if s.escalator != nil {
		key, err := s.escalator.Escalate(ctx, EscalationEvent{
			AuditID:        auditID,
			TicketID:       t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Severity:       t.Severity,
			AssignedTeam:   t.AssignedTeam,
			Reporter:       t.Reporter,
			Department:     t.Department,
			Reasoning:      reasoning,
			SuggestedFixes: t.SuggestedFixes,
			IsDuplicate:    t.IsDuplicate,
			Escalated:      true,
		})
		if err != nil {
			L.Error(ctx, err, "escalation dispatch failed", "ticket_id", t.ID)
		} else if key != "" {
			t.JiraIssueKey = key
		}
	}

	if err := s.store.Update(ctx, t); err != nil {
		L.Error(ctx, err, "failed to persist escalation state", "ticket_id", t.ID)
	}
}

// Get retrieves a ticket by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Ticket, bool, error) {
	return s.store.Get(ctx, id)
}

// List returns all tickets, most recent first.
func (s *Service) List(ctx context.Context) ([]*Ticket, error) {
	return s.store.List(ctx)
}

// UpdateStatus sets a ticket's lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Lifecycle) (*Ticket, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	t, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	t.Lifecycle = status
	if err := s.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", id, err)
	}
	return t, nil
}

// ResolveByJiraKey closes the ticket linked to a Jira issue, driven by the
// workflow bus closure webhook.
func (s *Service) ResolveByJiraKey(ctx context.Context, jiraKey, status string) (*Ticket, error) {
	t, ok, err := s.store.GetByJiraKey(ctx, jiraKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: jira key %q", ErrNotFound, jiraKey)
	}

	t.Status = status
	if status == "resolved" || status == "closed" {
		t.Lifecycle = LifecycleResolved
	}
	now := time.Now().UTC()
	t.ResolvedAt = &now

	if err := s.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("resolve ticket %d: %w", t.ID, err)
	}
	return t, nil
}

// NameValue is one dashboard breakdown row.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Dashboard summarizes the ticket population.
type Dashboard struct {
	TotalTickets        int         `json:"total_tickets"`
	EscalatedTickets    int         `json:"escalated_tickets"`
	DuplicateTickets    int         `json:"duplicate_tickets"`
	MonitoringTickets   int         `json:"monitoring_tickets"`
	DuplicatesPrevented int         `json:"duplicate_tickets_prevented"`
	HoursSaved          float64     `json:"estimated_engineer_hours_saved"`
	BySeverity          []NameValue `json:"by_severity"`
	ByTeam              []NameValue `json:"by_team"`
}

// Dashboard computes the summary metrics.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	tickets, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	d := &Dashboard{TotalTickets: len(tickets)}
	bySev := make(map[string]int)
	byTeam := make(map[string]int)

	for _, t := range tickets {
		if t.Escalated {
			d.EscalatedTickets++
		}
		if t.IsDuplicate {
			d.DuplicateTickets++
		}
		if t.Source == SourceDatadog {
			d.MonitoringTickets++
		}
		bySev[string(t.Severity)]++
		byTeam[t.AssignedTeam]++
	}

	d.DuplicatesPrevented = d.DuplicateTickets
	d.HoursSaved = float64(d.DuplicateTickets) * s.hoursSavedPerDuplicate
	d.BySeverity = sortedNameValues(bySev)
	d.ByTeam = sortedNameValues(byTeam)
	return d, nil
}

func sortedNameValues(m map[string]int) []NameValue {
	out := make([]NameValue, 0, len(m))
	for k, v := range m {
		out = append(out, NameValue{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orManual(s string) string {
	if s == "" {
		return SourceManual
	}
	return s
}
