package ledger

import (
	"context"
	"log/slog"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/auth"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

// CreateEvent stores a new active event owned by the caller with its full
// supply available.
func (e *Engine) CreateEvent(ctx context.Context, caller Caller, req v1.CreateEventRequest) (*v1.Event, error) {
	m := mutation{
		op:     "create_event",
		caller: caller,
		locks:  storage.Locks().Role(caller.Identity),
		params: []any{req},
	}
	evt, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (*v1.Event, error) {
		role, err := tx.Role(ctx, caller.Identity)
		if err != nil {
			return nil, internalError("read caller role", err)
		}
		if !auth.Can(role, auth.CreateEvent) {
			return nil, newError(KindPermissionDenied, "creating events requires %s", auth.CreateEvent)
		}
		if err := req.Validate(); err != nil {
			return nil, &Error{Kind: KindInvalidArgument, Message: err.Error()}
		}

		evt := &v1.Event{
			Owner:            caller.Identity,
			Name:             req.Name,
			Venue:            req.Venue,
			Description:      req.Description,
			ImageURL:         req.ImageURL,
			Date:             req.Date,
			Price:            req.Price,
			TotalTickets:     req.TotalTickets,
			AvailableTickets: req.TotalTickets,
			IsActive:         true,
			CreatedAt:        e.nowNanos(),
		}
		if err := tx.CreateEvent(ctx, evt); err != nil {
			return nil, internalError("create event", err)
		}
		return evt, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("[Ledger] Event created",
		"event_id", evt.EventID,
		"owner", evt.Owner,
		"total_tickets", evt.TotalTickets,
		"price", evt.Price)
	return evt, nil
}

// CancelEvent deactivates an event. Cancellation is terminal; issued tickets
// stay valid and are not refunded.
func (e *Engine) CancelEvent(ctx context.Context, caller Caller, eventID uint64) error {
	m := mutation{
		op:     "cancel_event",
		caller: caller,
		locks:  storage.Locks().Event(eventID),
		params: []any{eventID},
	}
	_, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (struct{}, error) {
		evt, err := e.manageableEvent(ctx, tx, caller.Identity, eventID)
		if err != nil {
			return struct{}{}, err
		}
		if !evt.IsActive {
			return struct{}{}, newError(KindAlreadyCancelled, "event %d is already cancelled", eventID)
		}

		evt.IsActive = false
		if err := tx.UpdateEvent(ctx, evt); err != nil {
			return struct{}{}, internalError("update event", err)
		}
		return struct{}{}, nil
	})
	if err == nil {
		slog.Info("[Ledger] Event cancelled", "event_id", eventID, "caller", caller.Identity)
	}
	return err
}

// UpdateEvent applies the present fields of req to an active event. Supply
// may only grow, and growth becomes available immediately. Issued tickets keep
// their original price.
func (e *Engine) UpdateEvent(ctx context.Context, caller Caller, eventID uint64, req v1.UpdateEventRequest) (*v1.Event, error) {
	m := mutation{
		op:     "update_event",
		caller: caller,
		locks:  storage.Locks().Event(eventID),
		params: []any{eventID, req},
	}
	return mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (*v1.Event, error) {
		evt, err := e.manageableEvent(ctx, tx, caller.Identity, eventID)
		if err != nil {
			return nil, err
		}
		if !evt.IsActive {
			return nil, newError(KindEventCancelled, "event %d is cancelled", eventID)
		}
		if err := req.Validate(); err != nil {
			return nil, &Error{Kind: KindInvalidArgument, Message: err.Error()}
		}

		if total, ok := req.TotalTickets.Get(); ok {
			if total < evt.TotalTickets {
				return nil, newError(KindInvalidArgument, "total_tickets cannot shrink from %d to %d", evt.TotalTickets, total)
			}
			evt.AvailableTickets += total - evt.TotalTickets
			evt.TotalTickets = total
		}
		if name, ok := req.Name.Get(); ok {
			evt.Name = name
		}
		if date, ok := req.Date.Get(); ok {
			evt.Date = date
		}
		if venue, ok := req.Venue.Get(); ok {
			evt.Venue = venue
		}
		if price, ok := req.Price.Get(); ok {
			evt.Price = price
		}
		if desc, ok := req.Description.Get(); ok {
			evt.Description = desc
		}
		if req.ImageURL.IsPresent() {
			evt.ImageURL = req.ImageURL
		}

		if err := tx.UpdateEvent(ctx, evt); err != nil {
			return nil, internalError("update event", err)
		}
		return evt, nil
	})
}

// manageableEvent loads an event and checks the caller may administer it.
func (e *Engine) manageableEvent(ctx context.Context, tx storage.Tx, caller string, eventID uint64) (*v1.Event, error) {
	evt, err := tx.Event(ctx, eventID)
	if err != nil {
		return nil, wrapStorage(err, "event", eventID)
	}
	role, err := tx.Role(ctx, caller)
	if err != nil {
		return nil, internalError("read caller role", err)
	}
	if !auth.CanManageEvent(caller, role, evt.Owner) {
		return nil, newError(KindPermissionDenied, "caller does not manage event %d", eventID)
	}
	return evt, nil
}
