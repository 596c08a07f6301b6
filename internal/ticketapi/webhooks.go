package ticketapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/siftlabs/sift/internal/monitoring"
	"github.com/siftlabs/sift/internal/ticket"
)

func (a *API) handleDatadogAlert(w http.ResponseWriter, r *http.Request) {
	var alert monitoring.DatadogAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON payload")
		return
	}

	in, err := monitoring.ParseDatadogAlert(alert)
	if err != nil {
		if errors.Is(err, monitoring.ErrInvalidPayload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid Datadog payload")
		return
	}

	created, err := a.svc.Create(r.Context(), in)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to create monitoring ticket")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.Int64("sift.ticket.id", created.Ticket.ID),
		attribute.String("sift.ticket.source", created.Ticket.Source),
		attribute.Bool("sift.ticket.force_p1", in.ForceP1),
	)

	writeJSON(w, http.StatusCreated, ticketOut{
		Ticket:        created.Ticket,
		AIReasoning:   created.Reasoning,
		DecisionTrace: &created.Trace,
	})
}

// jiraClosureRequest is sent by the workflow bus when a Jira issue is
// resolved or closed.
type jiraClosureRequest struct {
	JiraIssueKey string `json:"jira_issue_key"`
	Status       string `json:"status"`
	ResolvedBy   string `json:"resolved_by"`
}

func (a *API) handleJiraClosure(w http.ResponseWriter, r *http.Request) {
	var req jiraClosureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	key := strings.TrimSpace(req.JiraIssueKey)
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if key == "" || status == "" {
		writeError(w, http.StatusUnprocessableEntity, "jira_issue_key and status are required")
		return
	}

	t, err := a.svc.ResolveByJiraKey(r.Context(), key, status)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		writeError(w, http.StatusNotFound, "no ticket linked to jira issue")
		return
	case err != nil:
		a.logger.Error(r.Context(), err, "failed to resolve ticket from jira closure", "jira_issue_key", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.logger.Info(r.Context(), "ticket resolved via jira closure",
		"ticket_id", t.ID,
		"jira_issue_key", key,
		"resolved_by", req.ResolvedBy,
	)
	writeJSON(w, http.StatusOK, t)
}
