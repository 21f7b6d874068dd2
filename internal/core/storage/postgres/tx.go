package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

// pgTx implements storage.Tx over one *sql.Tx.
type pgTx struct {
	tx    *sql.Tx
	locks storage.LockSet
}

func (t *pgTx) Role(ctx context.Context, identity string) (v1.Role, error) {
	var role string
	err := t.tx.QueryRowContext(ctx, querySelectRole, identity).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return v1.RoleUser, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read role: %w", err)
	}
	return v1.ParseRole(role)
}

func (t *pgTx) Event(ctx context.Context, eventID uint64) (*v1.Event, error) {
	evt, err := scanEventRow(t.tx.QueryRowContext(ctx, querySelectEvent, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event %d: %w", eventID, err)
	}
	return evt, nil
}

func (t *pgTx) Ticket(ctx context.Context, tokenID uint64) (*v1.Ticket, error) {
	tk, err := scanTicketRow(t.tx.QueryRowContext(ctx, querySelectTicket, tokenID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket %d: %w", tokenID, err)
	}
	return tk, nil
}

func (t *pgTx) ListEvents(ctx context.Context, filter storage.EventFilter) ([]*v1.Event, error) {
	where, args := eventWhere(filter)
	rows, err := t.tx.QueryContext(ctx, queryListEvents+where+" ORDER BY event_id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*v1.Event, 0)
	for rows.Next() {
		evt, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (t *pgTx) ListTickets(ctx context.Context, filter storage.TicketFilter) ([]*v1.Ticket, error) {
	where, args := ticketWhere(filter)
	rows, err := t.tx.QueryContext(ctx, queryListTickets+where+" ORDER BY token_id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*v1.Ticket, 0)
	for rows.Next() {
		tk, err := scanTicketRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		tickets = append(tickets, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

func (t *pgTx) CountTickets(ctx context.Context, filter storage.TicketFilter) (int64, error) {
	where, args := ticketWhere(filter)
	var n int64
	if err := t.tx.QueryRowContext(ctx, queryCountTickets+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

func (t *pgTx) Idempotency(ctx context.Context, caller, key string) (*storage.IdempotencyRecord, error) {
	var rec storage.IdempotencyRecord
	err := t.tx.QueryRowContext(ctx, querySelectIdempotency, caller, key).Scan(
		&rec.Caller,
		&rec.Key,
		&rec.Operation,
		&rec.Fingerprint,
		&rec.Result,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}
	return &rec, nil
}

func (t *pgTx) PutRole(ctx context.Context, identity string, role v1.Role) error {
	if !t.locks.Contains(storage.LockKey{Kind: storage.LockRole, ID: identity}) {
		return storage.ErrNotLocked
	}
	if _, err := t.tx.ExecContext(ctx, queryUpsertRole, identity, string(role)); err != nil {
		return fmt.Errorf("failed to write role: %w", err)
	}
	return nil
}

func (t *pgTx) CreateEvent(ctx context.Context, event *v1.Event) error {
	err := t.tx.QueryRowContext(ctx, queryInsertEvent,
		event.Owner,
		event.Name,
		event.Venue,
		event.Description,
		nullString(event.ImageURL),
		event.Date,
		event.Price,
		event.TotalTickets,
		event.AvailableTickets,
		event.IsActive,
		event.CreatedAt,
	).Scan(&event.EventID)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateEvent(ctx context.Context, event *v1.Event) error {
	if !t.locks.Contains(storage.LockKey{Kind: storage.LockEvent, ID: strconv.FormatUint(event.EventID, 10)}) {
		return storage.ErrNotLocked
	}
	res, err := t.tx.ExecContext(ctx, queryUpdateEvent,
		event.EventID,
		event.Name,
		event.Venue,
		event.Description,
		nullString(event.ImageURL),
		event.Date,
		event.Price,
		event.TotalTickets,
		event.AvailableTickets,
		event.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", event.EventID, err)
	}
	return requireOneRow(res)
}

func (t *pgTx) CreateTicket(ctx context.Context, ticket *v1.Ticket) error {
	metadataJSON, historyJSON, err := marshalTicketJSON(ticket)
	if err != nil {
		return err
	}
	err = t.tx.QueryRowContext(ctx, queryInsertTicket,
		ticket.EventID,
		ticket.Owner,
		ticket.OriginalPrice,
		ticket.CurrentPrice,
		ticket.IsValid,
		ticket.Listing.Listed,
		ticket.Listing.ResalePrice,
		metadataJSON,
		historyJSON,
	).Scan(&ticket.TokenID)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateTicket(ctx context.Context, ticket *v1.Ticket) error {
	if !t.locks.Contains(storage.LockKey{Kind: storage.LockTicket, ID: strconv.FormatUint(ticket.TokenID, 10)}) {
		return storage.ErrNotLocked
	}
	metadataJSON, historyJSON, err := marshalTicketJSON(ticket)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, queryUpdateTicket,
		ticket.TokenID,
		ticket.Owner,
		ticket.CurrentPrice,
		ticket.IsValid,
		ticket.Listing.Listed,
		ticket.Listing.ResalePrice,
		metadataJSON,
		historyJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticket.TokenID, err)
	}
	return requireOneRow(res)
}

func (t *pgTx) SaveIdempotency(ctx context.Context, rec *storage.IdempotencyRecord) error {
	if !t.locks.Contains(storage.LockKey{Kind: storage.LockIdempotency, ID: rec.Caller + "\x00" + rec.Key}) {
		return storage.ErrNotLocked
	}
	_, err := t.tx.ExecContext(ctx, queryInsertIdempotency,
		rec.Caller,
		rec.Key,
		rec.Operation,
		rec.Fingerprint,
		rec.Result,
		rec.CreatedAt,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to save idempotency record: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
