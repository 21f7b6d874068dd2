package ledger

import (
	"context"
	"log/slog"
	"strings"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/auth"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

// PurchasePrimary issues a new ticket for eventID to the caller at face value.
// Payment, the supply decrement and the new ticket commit together.
func (e *Engine) PurchasePrimary(ctx context.Context, caller Caller, eventID uint64) (*v1.Ticket, error) {
	m := mutation{
		op:     "purchase_primary",
		caller: caller,
		locks:  storage.Locks().Event(eventID),
		params: []any{eventID},
	}
	ticket, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, run *settlementRun) (*v1.Ticket, error) {
		evt, err := tx.Event(ctx, eventID)
		if err != nil {
			return nil, wrapStorage(err, "event", eventID)
		}
		if !evt.IsActive {
			return nil, newError(KindEventCancelled, "event %d is cancelled", eventID)
		}
		if evt.AvailableTickets <= 0 {
			return nil, newError(KindSoldOut, "event %d is sold out", eventID)
		}

		if err := e.settle(ctx, run, caller.Identity, evt.Owner, evt.Price); err != nil {
			return nil, err
		}

		evt.AvailableTickets--
		if err := tx.UpdateEvent(ctx, evt); err != nil {
			return nil, internalError("update event", err)
		}

		now := e.nowNanos()
		ticket := &v1.Ticket{
			EventID:       evt.EventID,
			Owner:         caller.Identity,
			OriginalPrice: evt.Price,
			CurrentPrice:  evt.Price,
			IsValid:       true,
			Metadata: v1.Some(v1.TicketMetadata{
				EventName:    evt.Name,
				TicketClass:  v1.DefaultTicketClass,
				PurchaseDate: now,
			}),
			History: []v1.TransferRecord{{
				From:      evt.Owner,
				To:        caller.Identity,
				Price:     evt.Price,
				Kind:      v1.TransferPrimary,
				Timestamp: now,
			}},
		}
		if err := tx.CreateTicket(ctx, ticket); err != nil {
			return nil, internalError("create ticket", err)
		}
		return ticket, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("[Ledger] Primary ticket issued",
		"event_id", eventID,
		"token_id", ticket.TokenID,
		"owner", ticket.Owner,
		"price", ticket.OriginalPrice)
	return ticket, nil
}

// Transfer gives a valid ticket to recipient. Any resale listing is dropped.
func (e *Engine) Transfer(ctx context.Context, caller Caller, tokenID uint64, recipient string) error {
	m := mutation{
		op:     "transfer",
		caller: caller,
		locks:  storage.Locks().Ticket(tokenID),
		params: []any{tokenID, recipient},
	}
	_, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (struct{}, error) {
		ticket, err := e.ownedTicket(ctx, tx, caller.Identity, tokenID)
		if err != nil {
			return struct{}{}, err
		}
		if strings.TrimSpace(recipient) == "" {
			return struct{}{}, newError(KindInvalidArgument, "recipient is required")
		}
		if recipient == caller.Identity {
			return struct{}{}, newError(KindInvalidArgument, "cannot transfer a ticket to its owner")
		}

		ticket.ClearListing()
		ticket.Owner = recipient
		ticket.History = append(ticket.History, v1.TransferRecord{
			From:      caller.Identity,
			To:        recipient,
			Kind:      v1.TransferGift,
			Timestamp: e.nowNanos(),
		})
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return struct{}{}, internalError("update ticket", err)
		}
		return struct{}{}, nil
	})
	if err == nil {
		slog.Info("[Ledger] Ticket transferred", "token_id", tokenID, "from", caller.Identity, "to", recipient)
	}
	return err
}

// InvalidateTicket permanently revokes a ticket. Only the event owner or an
// Admin may do this. Supply is not returned to the event.
func (e *Engine) InvalidateTicket(ctx context.Context, caller Caller, tokenID uint64) error {
	m := mutation{
		op:     "invalidate_ticket",
		caller: caller,
		locks:  storage.Locks().Ticket(tokenID),
		params: []any{tokenID},
	}
	_, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (struct{}, error) {
		ticket, err := tx.Ticket(ctx, tokenID)
		if err != nil {
			return struct{}{}, wrapStorage(err, "ticket", tokenID)
		}
		evt, err := tx.Event(ctx, ticket.EventID)
		if err != nil {
			return struct{}{}, internalError("read ticket event", err)
		}
		role, err := tx.Role(ctx, caller.Identity)
		if err != nil {
			return struct{}{}, internalError("read caller role", err)
		}
		if !auth.CanManageEvent(caller.Identity, role, evt.Owner) {
			return struct{}{}, newError(KindPermissionDenied, "caller does not manage event %d", evt.EventID)
		}
		if !ticket.IsValid {
			return struct{}{}, newError(KindInvalidated, "ticket %d is already invalidated", tokenID)
		}

		ticket.IsValid = false
		ticket.ClearListing()
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return struct{}{}, internalError("update ticket", err)
		}
		return struct{}{}, nil
	})
	if err == nil {
		slog.Info("[Ledger] Ticket invalidated", "token_id", tokenID, "caller", caller.Identity)
	}
	return err
}

// ownedTicket loads a ticket the caller may act on as owner: it must exist,
// be valid, and belong to caller, checked in that order.
func (e *Engine) ownedTicket(ctx context.Context, tx storage.Tx, caller string, tokenID uint64) (*v1.Ticket, error) {
	ticket, err := tx.Ticket(ctx, tokenID)
	if err != nil {
		return nil, wrapStorage(err, "ticket", tokenID)
	}
	if !ticket.IsValid {
		return nil, newError(KindInvalidated, "ticket %d is invalidated", tokenID)
	}
	if ticket.Owner != caller {
		return nil, newError(KindPermissionDenied, "caller does not own ticket %d", tokenID)
	}
	return ticket, nil
}

// settle pays amount from payer to payee with the platform fee split off.
func (e *Engine) settle(ctx context.Context, run *settlementRun, payer, payee string, amount int64) error {
	fee := e.policy.Fee(amount)
	if err := run.pay(ctx, payer, payee, e.platformAccount, amount, fee); err != nil {
		slog.Warn("[Ledger] Settlement declined",
			"payer", payer,
			"payee", payee,
			"amount", amount,
			"error", err)
		return &Error{Kind: KindSettlementFailed, Message: "payment declined", Err: err}
	}
	return nil
}
