// Package pgstore provides a PostgreSQL implementation of ticket.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siftlabs/sift/internal/ticket"
	"github.com/siftlabs/sift/internal/triage"
)

var tracer = otel.Tracer("github.com/siftlabs/sift/internal/ticket/pgstore")

//go:embed schema.sql
var schema string

// Store persists tickets in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by the
// caller and is not closed by the store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const ticketColumns = `id, title, description, reporter, department, source, metadata,
	severity, confidence, assigned_team, suggested_fixes, triage_source,
	is_duplicate, duplicate_ticket_id, similarity_score, escalated,
	jira_issue_key, lifecycle_status, status, resolved_at, created_at`

// Create inserts a ticket and fills in its generated ID and created_at.
func (s *Store) Create(ctx context.Context, t *ticket.Ticket) error {
	ctx, span := tracer.Start(ctx, "pgstore.Create", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	metadataJSON, fixesJSON, err := marshalJSONFields(t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	query := `INSERT INTO tickets (
		title, description, reporter, department, source, metadata,
		severity, confidence, assigned_team, suggested_fixes, triage_source,
		is_duplicate, duplicate_ticket_id, similarity_score, escalated,
		jira_issue_key, lifecycle_status, status, resolved_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	RETURNING id, created_at`

	err = s.pool.QueryRow(ctx, query,
		t.Title, t.Description, t.Reporter, t.Department, t.Source, metadataJSON,
		string(t.Severity), t.Confidence, t.AssignedTeam, fixesJSON, string(t.TriageSource),
		t.IsDuplicate, t.DuplicateTicketID, t.SimilarityScore, t.Escalated,
		nullIfEmpty(t.JiraIssueKey), string(t.Lifecycle), t.Status, t.ResolvedAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// Get retrieves a ticket by ID.
func (s *Store) Get(ctx context.Context, id int64) (*ticket.Ticket, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	t, err := scanTicketRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if t == nil {
		return nil, false, nil
	}
	return t, true, nil
}

// GetByJiraKey retrieves the most recent ticket linked to a Jira issue.
func (s *Store) GetByJiraKey(ctx context.Context, key string) (*ticket.Ticket, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetByJiraKey", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if key == "" {
		return nil, false, nil
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE jira_issue_key = $1 ORDER BY created_at DESC LIMIT 1`
	t, err := scanTicketRow(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if t == nil {
		return nil, false, nil
	}
	return t, true, nil
}

// List returns all tickets, most recent first.
func (s *Store) List(ctx context.Context) ([]*ticket.Ticket, error) {
	return s.query(ctx, "pgstore.List",
		`SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC, id DESC`)
}

// Recent returns the n most recent tickets, most recent first.
func (s *Store) Recent(ctx context.Context, n int) ([]*ticket.Ticket, error) {
	return s.query(ctx, "pgstore.Recent",
		`SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC, id DESC LIMIT $1`, n)
}

// Update rewrites the mutable fields of a ticket.
func (s *Store) Update(ctx context.Context, t *ticket.Ticket) error {
	ctx, span := tracer.Start(ctx, "pgstore.Update", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	metadataJSON, fixesJSON, err := marshalJSONFields(t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	query := `UPDATE tickets SET
		title = $2, description = $3, reporter = $4, department = $5, source = $6,
		metadata = $7, severity = $8, confidence = $9, assigned_team = $10,
		suggested_fixes = $11, triage_source = $12, is_duplicate = $13,
		duplicate_ticket_id = $14, similarity_score = $15, escalated = $16,
		jira_issue_key = $17, lifecycle_status = $18, status = $19, resolved_at = $20
	WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		t.ID, t.Title, t.Description, t.Reporter, t.Department, t.Source,
		metadataJSON, string(t.Severity), t.Confidence, t.AssignedTeam,
		fixesJSON, string(t.TriageSource), t.IsDuplicate,
		t.DuplicateTicketID, t.SimilarityScore, t.Escalated,
		nullIfEmpty(t.JiraIssueKey), string(t.Lifecycle), t.Status, t.ResolvedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("update ticket %d: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ticket.ErrNotFound
	}
	return nil
}

// Count returns the number of stored tickets.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Count", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM tickets`).Scan(&n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, spanName, sql string, args ...any) ([]*ticket.Ticket, error) {
	ctx, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var out []*ticket.Ticket
	for rows.Next() {
		t, err := scanTicketRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return out, nil
}

// scanTicketRow scans a single row into a Ticket. Returns (nil, nil) when no
// row is found.
func scanTicketRow(row pgx.Row) (*ticket.Ticket, error) {
	var (
		t            ticket.Ticket
		severity     string
		triageSource string
		lifecycle    string
		metadataJSON []byte
		fixesJSON    []byte
		jiraKey      *string
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Reporter, &t.Department, &t.Source, &metadataJSON,
		&severity, &t.Confidence, &t.AssignedTeam, &fixesJSON, &triageSource,
		&t.IsDuplicate, &t.DuplicateTicketID, &t.SimilarityScore, &t.Escalated,
		&jiraKey, &lifecycle, &t.Status, &t.ResolvedAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	t.Severity = triage.Severity(severity)
	t.TriageSource = triage.Source(triageSource)
	t.Lifecycle = ticket.Lifecycle(lifecycle)
	if jiraKey != nil {
		t.JiraIssueKey = *jiraKey
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if err := json.Unmarshal(fixesJSON, &t.SuggestedFixes); err != nil {
		return nil, fmt.Errorf("unmarshal suggested fixes: %w", err)
	}

	return &t, nil
}

func marshalJSONFields(t *ticket.Ticket) (metadata, fixes []byte, err error) {
	if t.Metadata != nil {
		metadata, err = json.Marshal(t.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metadata: %w", err)
		}
	}

	fixList := t.SuggestedFixes
	if fixList == nil {
		fixList = []string{}
	}
	fixes, err = json.Marshal(fixList)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal suggested fixes: %w", err)
	}
	return metadata, fixes, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
