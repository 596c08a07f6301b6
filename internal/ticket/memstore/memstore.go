// Package memstore provides an in-memory implementation of ticket.Store.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/siftlabs/sift/internal/ticket"
)

// Store holds tickets in memory. Suitable for dev/testing and demo runs.
type Store struct {
	mu      sync.RWMutex
	tickets []*ticket.Ticket // insertion order, oldest first
	nextID  int64
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{}
}

// Create assigns the next ID and stores a copy of the ticket.
func (s *Store) Create(_ context.Context, t *ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	s.tickets = append(s.tickets, clone(t))
	return nil
}

// Get retrieves a ticket by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id int64) (*ticket.Ticket, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return clone(t), true, nil
		}
	}
	return nil, false, nil
}

// GetByJiraKey retrieves the ticket linked to a Jira issue. Returns a copy.
func (s *Store) GetByJiraKey(_ context.Context, key string) (*ticket.Ticket, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key == "" {
		return nil, false, nil
	}
	for _, t := range s.tickets {
		if t.JiraIssueKey == key {
			return clone(t), true, nil
		}
	}
	return nil, false, nil
}

// List returns copies of all tickets, most recent first.
func (s *Store) List(_ context.Context) ([]*ticket.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ticket.Ticket, 0, len(s.tickets))
	for i := len(s.tickets) - 1; i >= 0; i-- {
		out = append(out, clone(s.tickets[i]))
	}
	return out, nil
}

// Recent returns copies of the n most recent tickets, most recent first.
// A non-positive n returns an empty slice.
func (s *Store) Recent(ctx context.Context, n int) ([]*ticket.Ticket, error) {
	if n <= 0 {
		return []*ticket.Ticket{}, nil
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Update replaces the stored ticket with the same ID.
func (s *Store) Update(_ context.Context, t *ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.tickets {
		if existing.ID == t.ID {
			s.tickets[i] = clone(t)
			return nil
		}
	}
	return ticket.ErrNotFound
}

// Count returns the number of stored tickets.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets), nil
}

// clone copies a ticket including its slice and map fields, so callers
// cannot mutate stored state through a returned pointer.
func clone(t *ticket.Ticket) *ticket.Ticket {
	cp := *t
	cp.SuggestedFixes = slices.Clone(t.SuggestedFixes)
	if t.Metadata != nil {
		cp.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	if t.DuplicateTicketID != nil {
		id := *t.DuplicateTicketID
		cp.DuplicateTicketID = &id
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}
