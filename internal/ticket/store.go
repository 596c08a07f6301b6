package ticket

import "context"

// Store is the persistence interface for tickets. List and Recent return
// tickets most-recent-first; Recent bounds the result for the duplicate
// detection window.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id int64) (*Ticket, bool, error)
	GetByJiraKey(ctx context.Context, key string) (*Ticket, bool, error)
	List(ctx context.Context) ([]*Ticket, error)
	Recent(ctx context.Context, n int) ([]*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	Count(ctx context.Context) (int, error)
}
