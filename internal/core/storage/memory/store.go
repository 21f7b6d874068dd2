// Package memory is an in-process implementation of storage.Store.
// Writers hold striped per-entity locks for the whole transaction and stage
// their writes; staged writes are applied under a short global write lock, so
// snapshot readers never observe a partial commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/partition"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

var errClosed = errors.New("memory store closed")

type idemKey struct {
	caller string
	key    string
}

// Store is an in-memory storage.Store.
type Store struct {
	stripes [partition.Count]sync.Mutex

	mu          sync.RWMutex
	roles       map[string]v1.Role
	events      map[uint64]*v1.Event
	tickets     map[uint64]*v1.Ticket
	idempotency map[idemKey]*storage.IdempotencyRecord

	nextEventID atomic.Uint64
	nextTokenID atomic.Uint64
	closed      atomic.Bool
}

// New creates an empty store. Event and token ids start at 1.
func New() *Store {
	return &Store{
		roles:       make(map[string]v1.Role),
		events:      make(map[uint64]*v1.Event),
		tickets:     make(map[uint64]*v1.Ticket),
		idempotency: make(map[idemKey]*storage.IdempotencyRecord),
	}
}

func (s *Store) Update(ctx context.Context, locks storage.LockSet, fn func(tx storage.Tx) error) error {
	if s.closed.Load() {
		return errClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	keys := locks.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	stripes := partition.Stripes(names)
	for _, p := range stripes {
		s.stripes[p].Lock()
	}
	defer func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			s.stripes[stripes[i]].Unlock()
		}
	}()

	tx := newTx(s, locks)
	if err := fn(tx); err != nil {
		return err
	}
	// A caller that gave up before commit gets a rollback, not a partial write.
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx storage.ReadTx) error) error {
	if s.closed.Load() {
		return errClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(snapshot{s: s})
}

func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return errClosed
	}
	return ctx.Err()
}

func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, role := range tx.roles {
		s.roles[id] = role
	}
	for id, evt := range tx.events {
		s.events[id] = evt
	}
	for id, t := range tx.tickets {
		s.tickets[id] = t
	}
	for k, rec := range tx.idempotency {
		s.idempotency[k] = rec
	}
}

// snapshot reads committed state; the caller holds s.mu for reading.
type snapshot struct {
	s *Store
}

func (r snapshot) Role(_ context.Context, identity string) (v1.Role, error) {
	if role, ok := r.s.roles[identity]; ok {
		return role, nil
	}
	return v1.RoleUser, nil
}

func (r snapshot) Event(_ context.Context, eventID uint64) (*v1.Event, error) {
	evt, ok := r.s.events[eventID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return evt.Clone(), nil
}

func (r snapshot) Ticket(_ context.Context, tokenID uint64) (*v1.Ticket, error) {
	t, ok := r.s.tickets[tokenID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.Clone(), nil
}

func (r snapshot) ListEvents(_ context.Context, filter storage.EventFilter) ([]*v1.Event, error) {
	out := make([]*v1.Event, 0)
	for _, evt := range r.s.events {
		if matchEvent(evt, filter) {
			out = append(out, evt.Clone())
		}
	}
	sortEvents(out)
	return out, nil
}

func (r snapshot) ListTickets(_ context.Context, filter storage.TicketFilter) ([]*v1.Ticket, error) {
	out := make([]*v1.Ticket, 0)
	for _, t := range r.s.tickets {
		if matchTicket(t, filter) {
			out = append(out, t.Clone())
		}
	}
	sortTickets(out)
	return out, nil
}

func (r snapshot) CountTickets(_ context.Context, filter storage.TicketFilter) (int64, error) {
	var n int64
	for _, t := range r.s.tickets {
		if matchTicket(t, filter) {
			n++
		}
	}
	return n, nil
}

func (r snapshot) Idempotency(_ context.Context, caller, key string) (*storage.IdempotencyRecord, error) {
	rec, ok := r.s.idempotency[idemKey{caller: caller, key: key}]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

// memTx stages writes until commit. Reads see staged writes first.
type memTx struct {
	s     *Store
	locks storage.LockSet

	roles       map[string]v1.Role
	events      map[uint64]*v1.Event
	tickets     map[uint64]*v1.Ticket
	idempotency map[idemKey]*storage.IdempotencyRecord
}

func newTx(s *Store, locks storage.LockSet) *memTx {
	return &memTx{
		s:           s,
		locks:       locks,
		roles:       make(map[string]v1.Role),
		events:      make(map[uint64]*v1.Event),
		tickets:     make(map[uint64]*v1.Ticket),
		idempotency: make(map[idemKey]*storage.IdempotencyRecord),
	}
}

func (tx *memTx) committed(fn func(r snapshot)) {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	fn(snapshot{s: tx.s})
}

func (tx *memTx) Role(ctx context.Context, identity string) (role v1.Role, err error) {
	if role, ok := tx.roles[identity]; ok {
		return role, nil
	}
	tx.committed(func(r snapshot) { role, err = r.Role(ctx, identity) })
	return role, err
}

func (tx *memTx) Event(ctx context.Context, eventID uint64) (evt *v1.Event, err error) {
	if staged, ok := tx.events[eventID]; ok {
		return staged.Clone(), nil
	}
	tx.committed(func(r snapshot) { evt, err = r.Event(ctx, eventID) })
	return evt, err
}

func (tx *memTx) Ticket(ctx context.Context, tokenID uint64) (t *v1.Ticket, err error) {
	if staged, ok := tx.tickets[tokenID]; ok {
		return staged.Clone(), nil
	}
	tx.committed(func(r snapshot) { t, err = r.Ticket(ctx, tokenID) })
	return t, err
}

func (tx *memTx) ListEvents(ctx context.Context, filter storage.EventFilter) ([]*v1.Event, error) {
	merged := make(map[uint64]*v1.Event)
	tx.committed(func(r snapshot) {
		for id, evt := range r.s.events {
			merged[id] = evt
		}
	})
	for id, evt := range tx.events {
		merged[id] = evt
	}
	out := make([]*v1.Event, 0)
	for _, evt := range merged {
		if matchEvent(evt, filter) {
			out = append(out, evt.Clone())
		}
	}
	sortEvents(out)
	return out, nil
}

func (tx *memTx) ListTickets(ctx context.Context, filter storage.TicketFilter) ([]*v1.Ticket, error) {
	merged := make(map[uint64]*v1.Ticket)
	tx.committed(func(r snapshot) {
		for id, t := range r.s.tickets {
			merged[id] = t
		}
	})
	for id, t := range tx.tickets {
		merged[id] = t
	}
	out := make([]*v1.Ticket, 0)
	for _, t := range merged {
		if matchTicket(t, filter) {
			out = append(out, t.Clone())
		}
	}
	sortTickets(out)
	return out, nil
}

func (tx *memTx) CountTickets(ctx context.Context, filter storage.TicketFilter) (int64, error) {
	tickets, err := tx.ListTickets(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(tickets)), nil
}

func (tx *memTx) Idempotency(ctx context.Context, caller, key string) (rec *storage.IdempotencyRecord, err error) {
	if staged, ok := tx.idempotency[idemKey{caller: caller, key: key}]; ok {
		c := *staged
		return &c, nil
	}
	tx.committed(func(r snapshot) { rec, err = r.Idempotency(ctx, caller, key) })
	return rec, err
}

func (tx *memTx) PutRole(_ context.Context, identity string, role v1.Role) error {
	if !tx.locks.Contains(storage.LockKey{Kind: storage.LockRole, ID: identity}) {
		return storage.ErrNotLocked
	}
	tx.roles[identity] = role
	return nil
}

func (tx *memTx) CreateEvent(_ context.Context, event *v1.Event) error {
	event.EventID = tx.s.nextEventID.Add(1)
	tx.events[event.EventID] = event.Clone()
	return nil
}

func (tx *memTx) UpdateEvent(ctx context.Context, event *v1.Event) error {
	if _, staged := tx.events[event.EventID]; !staged {
		if !tx.locks.Contains(eventLock(event.EventID)) {
			return storage.ErrNotLocked
		}
		if _, err := tx.Event(ctx, event.EventID); err != nil {
			return err
		}
	}
	tx.events[event.EventID] = event.Clone()
	return nil
}

func (tx *memTx) CreateTicket(_ context.Context, ticket *v1.Ticket) error {
	ticket.TokenID = tx.s.nextTokenID.Add(1)
	tx.tickets[ticket.TokenID] = ticket.Clone()
	return nil
}

func (tx *memTx) UpdateTicket(ctx context.Context, ticket *v1.Ticket) error {
	if _, staged := tx.tickets[ticket.TokenID]; !staged {
		if !tx.locks.Contains(ticketLock(ticket.TokenID)) {
			return storage.ErrNotLocked
		}
		if _, err := tx.Ticket(ctx, ticket.TokenID); err != nil {
			return err
		}
	}
	tx.tickets[ticket.TokenID] = ticket.Clone()
	return nil
}

func (tx *memTx) SaveIdempotency(ctx context.Context, record *storage.IdempotencyRecord) error {
	if !tx.locks.Contains(storage.LockKey{Kind: storage.LockIdempotency, ID: record.Caller + "\x00" + record.Key}) {
		return storage.ErrNotLocked
	}
	existing, err := tx.Idempotency(ctx, record.Caller, record.Key)
	if err != nil {
		return err
	}
	if existing != nil {
		return storage.ErrDuplicate
	}
	c := *record
	tx.idempotency[idemKey{caller: record.Caller, key: record.Key}] = &c
	return nil
}

func eventLock(id uint64) storage.LockKey {
	return storage.LockKey{Kind: storage.LockEvent, ID: strconv.FormatUint(id, 10)}
}

func ticketLock(id uint64) storage.LockKey {
	return storage.LockKey{Kind: storage.LockTicket, ID: strconv.FormatUint(id, 10)}
}

func matchEvent(evt *v1.Event, f storage.EventFilter) bool {
	if f.Owner != "" && evt.Owner != f.Owner {
		return false
	}
	if f.ActiveOnly && !evt.IsActive {
		return false
	}
	return true
}

func matchTicket(t *v1.Ticket, f storage.TicketFilter) bool {
	if f.Owner != "" && t.Owner != f.Owner {
		return false
	}
	if f.EventID != 0 && t.EventID != f.EventID {
		return false
	}
	if f.ListedOnly && !t.Listing.Listed {
		return false
	}
	return true
}

func sortEvents(events []*v1.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].EventID < events[j].EventID })
}

func sortTickets(tickets []*v1.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].TokenID < tickets[j].TokenID })
}
