// Package projection is the read-only query side of the ledger. Every read
// runs against one consistent store snapshot and never mutates state.
package projection

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/auth"
	"github.com/aevon-lab/ticket-ledger/internal/core/pricing"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrNotFound marks reads of unknown events or tickets (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks reads the caller may not perform (HTTP 403).
	ErrForbidden = errors.New("forbidden")
)

// metadataEncMode encodes token metadata with Core Deterministic Encoding so
// identical metadata always produces identical blobs.
var metadataEncMode cbor.EncMode

func init() {
	var err error
	metadataEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("projection: CBOR encoder initialization failed: " + err.Error())
	}
}

// Service implements the query façade.
type Service struct {
	store  storage.Store
	policy pricing.Policy
}

func NewService(store storage.Store, policy pricing.Policy) *Service {
	if store == nil {
		panic("projection: store must not be nil")
	}
	return &Service{store: store, policy: policy}
}

// ListActiveEvents returns every active event.
func (s *Service) ListActiveEvents(ctx context.Context) ([]*v1.Event, error) {
	return s.listEvents(ctx, storage.EventFilter{ActiveOnly: true})
}

// ListEventsByOrganizer returns every event owned by identity, cancelled ones included.
func (s *Service) ListEventsByOrganizer(ctx context.Context, identity string) ([]*v1.Event, error) {
	return s.listEvents(ctx, storage.EventFilter{Owner: identity})
}

func (s *Service) listEvents(ctx context.Context, filter storage.EventFilter) ([]*v1.Event, error) {
	var events []*v1.Event
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		events, err = tx.ListEvents(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID uint64) (*v1.Event, error) {
	var evt *v1.Event
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		evt, err = tx.Event(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, notFound(err, "event", eventID)
	}
	return evt, nil
}

// GetEventTickets returns every ticket issued against an event.
func (s *Service) GetEventTickets(ctx context.Context, eventID uint64) ([]*v1.Ticket, error) {
	var tickets []*v1.Ticket
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		if _, err := tx.Event(ctx, eventID); err != nil {
			return err
		}
		var err error
		tickets, err = tx.ListTickets(ctx, storage.TicketFilter{EventID: eventID})
		return err
	})
	if err != nil {
		return nil, notFound(err, "event", eventID)
	}
	return tickets, nil
}

// EventStats summarizes sales. Only the event owner or an Admin may read it.
func (s *Service) EventStats(ctx context.Context, caller string, eventID uint64) (*v1.EventStats, error) {
	var stats v1.EventStats
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		evt, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		role, err := tx.Role(ctx, caller)
		if err != nil {
			return err
		}
		if !auth.CanManageEvent(caller, role, evt.Owner) {
			return ErrForbidden
		}
		tickets, err := tx.ListTickets(ctx, storage.TicketFilter{EventID: eventID})
		if err != nil {
			return err
		}
		stats = rollupStats(evt, tickets)
		return nil
	})
	if err != nil {
		return nil, notFound(err, "event", eventID)
	}
	return &stats, nil
}

// GetUserTickets returns every ticket identity owns, valid or not.
func (s *Service) GetUserTickets(ctx context.Context, identity string) ([]*v1.Ticket, error) {
	var tickets []*v1.Ticket
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		tickets, err = tx.ListTickets(ctx, storage.TicketFilter{Owner: identity})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}
	return tickets, nil
}

func (s *Service) GetTicket(ctx context.Context, tokenID uint64) (*v1.Ticket, error) {
	var ticket *v1.Ticket
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		ticket, err = tx.Ticket(ctx, tokenID)
		return err
	})
	if err != nil {
		return nil, notFound(err, "ticket", tokenID)
	}
	return ticket, nil
}

// VerifyTicket reports whether the ticket is valid and owned by identity.
// Unknown tickets verify as false.
func (s *Service) VerifyTicket(ctx context.Context, tokenID uint64, identity string) (bool, error) {
	ticket, err := s.GetTicket(ctx, tokenID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ticket.IsValid && ticket.Owner == identity, nil
}

// ListResaleListings returns every active listing with its price cap.
func (s *Service) ListResaleListings(ctx context.Context) ([]v1.ResaleListing, error) {
	var tickets []*v1.Ticket
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		tickets, err = tx.ListTickets(ctx, storage.TicketFilter{ListedOnly: true})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list resale listings: %w", err)
	}
	return rollupListings(tickets, s.policy), nil
}

// TotalSupply counts every ticket ever issued.
func (s *Service) TotalSupply(ctx context.Context) (int64, error) {
	return s.countTickets(ctx, storage.TicketFilter{})
}

// BalanceOf counts the tickets identity owns.
func (s *Service) BalanceOf(ctx context.Context, identity string) (int64, error) {
	return s.countTickets(ctx, storage.TicketFilter{Owner: identity})
}

func (s *Service) countTickets(ctx context.Context, filter storage.TicketFilter) (int64, error) {
	var n int64
	err := s.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		n, err = tx.CountTickets(ctx, filter)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

func (s *Service) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	ticket, err := s.GetTicket(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return ticket.Owner, nil
}

// TokensOf lists the token ids identity owns, ascending.
func (s *Service) TokensOf(ctx context.Context, identity string) ([]uint64, error) {
	tickets, err := s.GetUserTickets(ctx, identity)
	if err != nil {
		return nil, err
	}
	return tokenIDs(tickets), nil
}

// TokenMetadata is the DIP721 view of a ticket. The metadata snapshot is
// carried as a deterministic CBOR blob; tickets without metadata have no blob.
func (s *Service) TokenMetadata(ctx context.Context, tokenID uint64) (*v1.TokenMetadata, error) {
	ticket, err := s.GetTicket(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	meta := &v1.TokenMetadata{
		TokenID:    ticket.TokenID,
		Owner:      ticket.Owner,
		Properties: tokenProperties(ticket),
		IsApproved: ticket.IsValid && ticket.Listing.Listed,
	}
	if md, ok := ticket.Metadata.Get(); ok {
		blob, err := metadataEncMode.Marshal(md)
		if err != nil {
			return nil, fmt.Errorf("encode token metadata: %w", err)
		}
		meta.MetadataBlob = blob
	}
	return meta, nil
}

func notFound(err error, what string, id uint64) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	case errors.Is(err, ErrForbidden):
		return err
	}
	return fmt.Errorf("read %s %d: %w", what, id, err)
}
