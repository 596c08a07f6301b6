// Package esb dispatches escalations to the workflow bus via a webhook.
// The bus (an n8n instance in the reference deployment) owns all downstream
// orchestration: Jira issue creation, chat notifications, and human review.
package esb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/siftlabs/sift/internal/ticket"
	"github.com/siftlabs/sift/internal/triage"
)

const httpTimeout = 15 * time.Second

// Dispatcher posts escalation events to the workflow bus webhook.
type Dispatcher struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Dispatcher. If webhookURL is empty, Escalate is a no-op.
func New(webhookURL string, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// response is the optional acknowledgement body from the bus. Synchronous
// workflows return the Jira key they created; asynchronous ones return
// nothing.
type response struct {
	JiraIssueKey string `json:"jira_issue_key"`
}

// Escalate posts the event to the configured webhook and returns the Jira
// issue key when the bus responds with one. If no webhook URL is
// configured, it returns immediately.
func (d *Dispatcher) Escalate(ctx context.Context, ev ticket.EscalationEvent) (string, error) {
	if d.webhookURL == "" {
		d.logger.Warn(ctx, "esb webhook not configured, escalation dispatch skipped", "ticket_id", ev.TicketID)
		return "", nil
	}

	body, err := json.Marshal(buildPayload(ev))
	if err != nil {
		return "", fmt.Errorf("esb: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("esb: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("esb: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("esb: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	var ack response
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(respBody) > 0 {
		// Tolerate non-JSON acks from fire-and-forget workflows.
		_ = json.Unmarshal(respBody, &ack)
	}

	d.logger.Info(ctx, "esb dispatch ok",
		"ticket_id", ev.TicketID,
		"severity", ev.Severity,
		"jira_issue_key", ack.JiraIssueKey,
	)
	return ack.JiraIssueKey, nil
}

// buildPayload flattens the event into the shape the intake workflow
// expects, adding the Jira summary, priority, and labels the workflow
// forwards verbatim.
func buildPayload(ev ticket.EscalationEvent) map[string]any {
	labels := []string{"escalated"}
	if ev.IsDuplicate {
		labels = append(labels, "duplicate")
	}

	return map[string]any{
		"audit_id":        ev.AuditID,
		"ticket_id":       ev.TicketID,
		"title":           ev.Title,
		"description":     ev.Description,
		"severity":        ev.Severity,
		"assigned_team":   ev.AssignedTeam,
		"reporter":        ev.Reporter,
		"department":      ev.Department,
		"ai_reasoning":    ev.Reasoning,
		"suggested_fixes": ev.SuggestedFixes,
		"is_duplicate":    ev.IsDuplicate,
		"escalated":       ev.Escalated,
		"jira_summary":    fmt.Sprintf("[%s] %s", ev.Severity, ev.Title),
		"jira_priority":   jiraPriority(ev.Severity),
		"jira_labels":     labels,
	}
}

func jiraPriority(sev triage.Severity) string {
	switch sev {
	case triage.SevP1:
		return "Highest"
	case triage.SevP2:
		return "High"
	case triage.SevP3:
		return "Medium"
	default:
		return "Low"
	}
}
