package ledger

import (
	"context"
	"log/slog"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

// ListForResale offers the caller's valid ticket at price, replacing any
// existing listing. Price may not exceed the resale cap of the original price.
func (e *Engine) ListForResale(ctx context.Context, caller Caller, tokenID uint64, price int64) error {
	m := mutation{
		op:     "list_for_resale",
		caller: caller,
		locks:  storage.Locks().Ticket(tokenID),
		params: []any{tokenID, price},
	}
	_, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (struct{}, error) {
		ticket, err := e.ownedTicket(ctx, tx, caller.Identity, tokenID)
		if err != nil {
			return struct{}{}, err
		}
		if price < 0 {
			return struct{}{}, newError(KindInvalidArgument, "price must be >= 0")
		}
		if !e.policy.WithinCap(ticket.OriginalPrice, price) {
			return struct{}{}, newError(KindPriceCapExceeded, "price %d exceeds resale cap %d", price, e.policy.ResaleCap(ticket.OriginalPrice))
		}

		ticket.Listing = v1.Listing{Listed: true, ResalePrice: price}
		ticket.CurrentPrice = price
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return struct{}{}, internalError("update ticket", err)
		}
		return struct{}{}, nil
	})
	if err == nil {
		slog.Info("[Ledger] Ticket listed for resale", "token_id", tokenID, "seller", caller.Identity, "price", price)
	}
	return err
}

// BuyResale buys a listed ticket at its listing price. Payment and the
// ownership change commit together; if payment fails nothing changes.
// The new owner's basis for any later resale is the original price.
func (e *Engine) BuyResale(ctx context.Context, caller Caller, tokenID uint64) (*v1.Ticket, error) {
	m := mutation{
		op:     "buy_resale",
		caller: caller,
		locks:  storage.Locks().Ticket(tokenID),
		params: []any{tokenID},
	}
	var seller string
	ticket, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, run *settlementRun) (*v1.Ticket, error) {
		ticket, err := tx.Ticket(ctx, tokenID)
		if err != nil {
			return nil, wrapStorage(err, "ticket", tokenID)
		}
		if !ticket.IsValid {
			return nil, newError(KindInvalidated, "ticket %d is invalidated", tokenID)
		}
		if !ticket.Listing.Listed {
			return nil, newError(KindNotListed, "ticket %d is not listed", tokenID)
		}
		if ticket.Owner == caller.Identity {
			return nil, newError(KindInvalidArgument, "cannot buy your own listing")
		}

		seller = ticket.Owner
		price := ticket.Listing.ResalePrice
		if err := e.settle(ctx, run, caller.Identity, seller, price); err != nil {
			return nil, err
		}

		ticket.ClearListing()
		ticket.Owner = caller.Identity
		ticket.History = append(ticket.History, v1.TransferRecord{
			From:      seller,
			To:        caller.Identity,
			Price:     price,
			Kind:      v1.TransferResale,
			Timestamp: e.nowNanos(),
		})
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return nil, internalError("update ticket", err)
		}
		return ticket, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("[Ledger] Resale completed", "token_id", tokenID, "seller", seller, "buyer", caller.Identity)
	return ticket, nil
}
