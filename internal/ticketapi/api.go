// Package ticketapi exposes the ticket intake and triage HTTP API.
package ticketapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/siftlabs/sift/internal/ticket"
	"github.com/siftlabs/sift/internal/triage"
)

// TicketService defines the business operations ticketapi needs.
type TicketService interface {
	Create(ctx context.Context, in ticket.CreateInput) (*ticket.Created, error)
	Get(ctx context.Context, id int64) (*ticket.Ticket, bool, error)
	List(ctx context.Context) ([]*ticket.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status ticket.Lifecycle) (*ticket.Ticket, error)
	ResolveByJiraKey(ctx context.Context, jiraKey, status string) (*ticket.Ticket, error)
	Dashboard(ctx context.Context) (*ticket.Dashboard, error)
	SeedDemo(ctx context.Context) (int, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TicketService
}

// New creates a new API handler.
func New(logger log.Logger, svc TicketService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("ticket service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tickets", a.handleCreateTicket)
		r.Get("/tickets", a.handleListTickets)
		r.Get("/tickets/{id}", a.handleGetTicket)
		r.Patch("/tickets/{id}/status", a.handleUpdateStatus)
		r.Get("/dashboard/metrics", a.handleDashboard)
		r.Post("/seed", a.handleSeed)
		r.Post("/monitoring/datadog", a.handleDatadogAlert)
		r.Post("/webhooks/jira-closure", a.handleJiraClosure)
	})
}

// ticketOut is a ticket plus the per-request decision context that is
// returned on creation but never persisted.
type ticketOut struct {
	*ticket.Ticket
	AIReasoning   string        `json:"ai_reasoning,omitempty"`
	DecisionTrace *triage.Trace `json:"decision_trace,omitempty"`
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
	Department  string `json:"department"`
}

func (req *createRequest) validate() error {
	title := strings.TrimSpace(req.Title)
	if len(title) < 3 || len(title) > 255 {
		return errors.New("title must be between 3 and 255 characters")
	}
	if len(strings.TrimSpace(req.Description)) < 10 {
		return errors.New("description must be at least 10 characters")
	}
	return nil
}

func (a *API) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := a.svc.Create(r.Context(), ticket.CreateInput{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Reporter:    strings.TrimSpace(req.Reporter),
		Department:  strings.TrimSpace(req.Department),
	})
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to create ticket")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.Int64("sift.ticket.id", created.Ticket.ID),
		attribute.String("sift.ticket.severity", string(created.Ticket.Severity)),
		attribute.String("sift.triage.source", string(created.Ticket.TriageSource)),
	)

	writeJSON(w, http.StatusCreated, ticketOut{
		Ticket:        created.Ticket,
		AIReasoning:   created.Reasoning,
		DecisionTrace: &created.Trace,
	})
}

func (a *API) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := a.svc.List(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list tickets")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tickets == nil {
		tickets = []*ticket.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (a *API) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int64("sift.ticket.id", id))

	t, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get ticket", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type statusUpdateRequest struct {
	LifecycleStatus string `json:"lifecycle_status"`
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	t, err := a.svc.UpdateStatus(r.Context(), id, ticket.Lifecycle(strings.ToUpper(strings.TrimSpace(req.LifecycleStatus))))
	switch {
	case errors.Is(err, ticket.ErrInvalidStatus):
		writeError(w, http.StatusUnprocessableEntity, "invalid lifecycle status")
		return
	case errors.Is(err, ticket.ErrNotFound):
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	case err != nil:
		a.logger.Error(r.Context(), err, "failed to update ticket status", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.Dashboard(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to compute dashboard metrics")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) handleSeed(w http.ResponseWriter, r *http.Request) {
	inserted, err := a.svc.SeedDemo(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to seed demo tickets")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
