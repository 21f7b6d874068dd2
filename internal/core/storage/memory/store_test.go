package memory

import (
	"context"
	"errors"
	"testing"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func createEvent(t *testing.T, s *Store, total int64) *v1.Event {
	t.Helper()

	evt := &v1.Event{Owner: "org-1", Name: "Show", TotalTickets: total, AvailableTickets: total, IsActive: true}
	err := s.Update(context.Background(), storage.Locks(), func(tx storage.Tx) error {
		return tx.CreateEvent(context.Background(), evt)
	})
	require.NoError(t, err)
	require.NotZero(t, evt.EventID)
	return evt
}

func TestStore_CreateAssignsMonotonicIDs(t *testing.T) {
	s := New()

	first := createEvent(t, s, 1)
	second := createEvent(t, s, 1)
	require.Equal(t, first.EventID+1, second.EventID)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	evt := createEvent(t, s, 5)

	boom := errors.New("boom")
	err := s.Update(ctx, storage.Locks().Event(evt.EventID), func(tx storage.Tx) error {
		e, err := tx.Event(ctx, evt.EventID)
		require.NoError(t, err)
		e.AvailableTickets = 0
		require.NoError(t, tx.UpdateEvent(ctx, e))

		// Staged writes are visible inside the transaction.
		staged, err := tx.Event(ctx, evt.EventID)
		require.NoError(t, err)
		require.Equal(t, int64(0), staged.AvailableTickets)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(ctx, func(tx storage.ReadTx) error {
		e, err := tx.Event(ctx, evt.EventID)
		require.NoError(t, err)
		require.Equal(t, int64(5), e.AvailableTickets)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_CancelledContextRollsBack(t *testing.T) {
	s := New()
	evt := createEvent(t, s, 5)

	ctx, cancel := context.WithCancel(context.Background())
	err := s.Update(ctx, storage.Locks().Event(evt.EventID), func(tx storage.Tx) error {
		e, err := tx.Event(ctx, evt.EventID)
		if err != nil {
			return err
		}
		e.IsActive = false
		cancel()
		return tx.UpdateEvent(ctx, e)
	})
	require.ErrorIs(t, err, context.Canceled)

	err = s.View(context.Background(), func(tx storage.ReadTx) error {
		e, err := tx.Event(context.Background(), evt.EventID)
		require.NoError(t, err)
		require.True(t, e.IsActive)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_WriteOutsideLockSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	evt := createEvent(t, s, 1)

	err := s.Update(ctx, storage.Locks(), func(tx storage.Tx) error {
		e, err := tx.Event(ctx, evt.EventID)
		if err != nil {
			return err
		}
		return tx.UpdateEvent(ctx, e)
	})
	require.ErrorIs(t, err, storage.ErrNotLocked)

	err = s.Update(ctx, storage.Locks(), func(tx storage.Tx) error {
		return tx.PutRole(ctx, "alice", v1.RoleOrganizer)
	})
	require.ErrorIs(t, err, storage.ErrNotLocked)
}

func TestStore_MissingEntities(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.View(ctx, func(tx storage.ReadTx) error {
		_, err := tx.Event(ctx, 99)
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = tx.Ticket(ctx, 99)
		require.ErrorIs(t, err, storage.ErrNotFound)

		role, err := tx.Role(ctx, "nobody")
		require.NoError(t, err)
		require.Equal(t, v1.RoleUser, role)

		rec, err := tx.Idempotency(ctx, "nobody", "k")
		require.NoError(t, err)
		require.Nil(t, rec)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	ticket := &v1.Ticket{EventID: 1, Owner: "alice", IsValid: true, History: []v1.TransferRecord{{To: "alice"}}}
	require.NoError(t, s.Update(ctx, storage.Locks(), func(tx storage.Tx) error {
		return tx.CreateTicket(ctx, ticket)
	}))

	require.NoError(t, s.View(ctx, func(tx storage.ReadTx) error {
		got, err := tx.Ticket(ctx, ticket.TokenID)
		require.NoError(t, err)
		got.Owner = "mallory"
		got.History[0].To = "mallory"
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.ReadTx) error {
		got, err := tx.Ticket(ctx, ticket.TokenID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Owner)
		require.Equal(t, "alice", got.History[0].To)
		return nil
	}))
}

func TestStore_Filters(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Update(ctx, storage.Locks(), func(tx storage.Tx) error {
		for _, evt := range []*v1.Event{
			{Owner: "org-1", IsActive: true},
			{Owner: "org-1", IsActive: false},
			{Owner: "org-2", IsActive: true},
		} {
			if err := tx.CreateEvent(ctx, evt); err != nil {
				return err
			}
		}
		for _, tk := range []*v1.Ticket{
			{EventID: 1, Owner: "alice", Listing: v1.Listing{Listed: true, ResalePrice: 10}},
			{EventID: 1, Owner: "bob"},
			{EventID: 3, Owner: "alice"},
		} {
			if err := tx.CreateTicket(ctx, tk); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.ReadTx) error {
		active, err := tx.ListEvents(ctx, storage.EventFilter{ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, active, 2)

		byOwner, err := tx.ListEvents(ctx, storage.EventFilter{Owner: "org-1"})
		require.NoError(t, err)
		require.Len(t, byOwner, 2)
		require.Less(t, byOwner[0].EventID, byOwner[1].EventID)

		alice, err := tx.ListTickets(ctx, storage.TicketFilter{Owner: "alice"})
		require.NoError(t, err)
		require.Len(t, alice, 2)

		listed, err := tx.ListTickets(ctx, storage.TicketFilter{ListedOnly: true})
		require.NoError(t, err)
		require.Len(t, listed, 1)

		n, err := tx.CountTickets(ctx, storage.TicketFilter{EventID: 1})
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
		return nil
	}))
}

func TestStore_IdempotencyDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()
	locks := storage.Locks().Idempotency("alice", "k1")

	save := func() error {
		return s.Update(ctx, locks, func(tx storage.Tx) error {
			return tx.SaveIdempotency(ctx, &storage.IdempotencyRecord{Caller: "alice", Key: "k1", Fingerprint: "fp"})
		})
	}
	require.NoError(t, save())
	require.ErrorIs(t, save(), storage.ErrDuplicate)
}

func TestStore_ConcurrentUpdatesSerializePerEntity(t *testing.T) {
	ctx := context.Background()
	s := New()
	evt := createEvent(t, s, 500)

	var g errgroup.Group
	for i := 0; i < 500; i++ {
		g.Go(func() error {
			return s.Update(ctx, storage.Locks().Event(evt.EventID), func(tx storage.Tx) error {
				e, err := tx.Event(ctx, evt.EventID)
				if err != nil {
					return err
				}
				e.AvailableTickets--
				return tx.UpdateEvent(ctx, e)
			})
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, s.View(ctx, func(tx storage.ReadTx) error {
		e, err := tx.Event(ctx, evt.EventID)
		require.NoError(t, err)
		require.Equal(t, int64(0), e.AvailableTickets)
		return nil
	}))
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())
	require.Error(t, s.Ping(ctx))
	require.Error(t, s.View(ctx, func(storage.ReadTx) error { return nil }))
}
