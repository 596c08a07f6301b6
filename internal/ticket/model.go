// Package ticket provides the business boundary for incident tickets. It
// defines the Service (triage + duplicate check + escalation dispatch), the
// Store interface (persistence), and the domain model.
package ticket

import (
	"errors"
	"time"

	"github.com/siftlabs/sift/internal/triage"
)

// Lifecycle tracks where a ticket is in its intake flow.
type Lifecycle string

const (
	LifecycleReceived  Lifecycle = "RECEIVED"
	LifecycleTriaged   Lifecycle = "TRIAGED"
	LifecycleEscalated Lifecycle = "ESCALATED"
	LifecycleResolved  Lifecycle = "RESOLVED"
)

// Valid reports whether l is a known lifecycle status.
func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleReceived, LifecycleTriaged, LifecycleEscalated, LifecycleResolved:
		return true
	}
	return false
}

// Ticket intake sources.
const (
	SourceManual  = "manual"
	SourceDatadog = "datadog"
)

var (
	// ErrNotFound means no ticket matches the lookup.
	ErrNotFound = errors.New("ticket not found")

	// ErrInvalidStatus means a lifecycle update named an unknown status.
	ErrInvalidStatus = errors.New("invalid lifecycle status")
)

// Ticket is a triaged incident report.
type Ticket struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
	Department  string `json:"department"`

	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata,omitempty"`

	Severity       triage.Severity `json:"severity"`
	Confidence     float64         `json:"confidence"`
	AssignedTeam   string          `json:"assigned_team"`
	SuggestedFixes []string        `json:"suggested_fixes"`
	TriageSource   triage.Source   `json:"triage_source"`

	IsDuplicate       bool    `json:"is_duplicate"`
	DuplicateTicketID *int64  `json:"duplicate_ticket_id,omitempty"`
	SimilarityScore   float64 `json:"similarity_score"`

	Escalated    bool   `json:"escalated"`
	JiraIssueKey string `json:"jira_issue_key,omitempty"`

	Lifecycle  Lifecycle  `json:"lifecycle_status"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
