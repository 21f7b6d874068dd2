package storage

import (
	"context"
	"errors"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
)

var (
	// ErrNotFound is returned when a referenced event or ticket does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an idempotency record for the same (caller, key) already exists.
	ErrDuplicate = errors.New("entity already exists")

	// ErrNotLocked is returned when a transaction writes an entity outside its lock set.
	ErrNotLocked = errors.New("entity not in transaction lock set")
)

// Store is the transactional key-value contract the ledger runs on.
// Only the ledger engine calls Update; everything else reads through View.
type Store interface {
	// Update runs fn in one read-write transaction. The store acquires exclusive
	// locks for every key in locks (in LockSet order) before calling fn and
	// releases them after commit or rollback. Writes become visible to other
	// transactions only if fn returns nil and the commit succeeds.
	Update(ctx context.Context, locks LockSet, fn func(tx Tx) error) error

	// View runs fn against a consistent snapshot of committed state.
	View(ctx context.Context, fn func(tx ReadTx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// EventFilter narrows ListEvents. The zero value matches every event.
type EventFilter struct {
	Owner      string
	ActiveOnly bool
}

// TicketFilter narrows ListTickets and CountTickets. The zero value matches every ticket.
type TicketFilter struct {
	Owner      string
	EventID    uint64
	ListedOnly bool
}

// ReadTx is the read side of a transaction or snapshot.
type ReadTx interface {
	// Role returns the stored role, or v1.RoleUser when none is stored.
	Role(ctx context.Context, identity string) (v1.Role, error)
	Event(ctx context.Context, eventID uint64) (*v1.Event, error)
	Ticket(ctx context.Context, tokenID uint64) (*v1.Ticket, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*v1.Event, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]*v1.Ticket, error)
	CountTickets(ctx context.Context, filter TicketFilter) (int64, error)

	// Idempotency returns the record stored for (caller, key), or nil.
	Idempotency(ctx context.Context, caller, key string) (*IdempotencyRecord, error)
}

// Tx is a read-write transaction.
type Tx interface {
	ReadTx

	PutRole(ctx context.Context, identity string, role v1.Role) error

	// CreateEvent assigns a fresh EventID to event and stores it.
	CreateEvent(ctx context.Context, event *v1.Event) error
	UpdateEvent(ctx context.Context, event *v1.Event) error

	// CreateTicket assigns a fresh TokenID to ticket and stores it.
	CreateTicket(ctx context.Context, ticket *v1.Ticket) error
	UpdateTicket(ctx context.Context, ticket *v1.Ticket) error

	SaveIdempotency(ctx context.Context, record *IdempotencyRecord) error
}

// IdempotencyRecord remembers the committed outcome of one keyed mutation.
type IdempotencyRecord struct {
	Caller      string
	Key         string
	Operation   string
	Fingerprint string
	Result      []byte
	CreatedAt   int64
}
