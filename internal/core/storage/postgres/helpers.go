package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans one events row. Compatible with both sql.Row and sql.Rows.
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var imageURL sql.NullString

	err := row.Scan(
		&evt.EventID,
		&evt.Owner,
		&evt.Name,
		&evt.Venue,
		&evt.Description,
		&imageURL,
		&evt.Date,
		&evt.Price,
		&evt.TotalTickets,
		&evt.AvailableTickets,
		&evt.IsActive,
		&evt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		evt.ImageURL = v1.Some(imageURL.String)
	}
	return &evt, nil
}

// scanTicketRow scans one tickets row, decoding the JSONB metadata and history columns.
func scanTicketRow(row scanner) (*v1.Ticket, error) {
	var t v1.Ticket
	var metadataJSON, historyJSON []byte

	err := row.Scan(
		&t.TokenID,
		&t.EventID,
		&t.Owner,
		&t.OriginalPrice,
		&t.CurrentPrice,
		&t.IsValid,
		&t.Listing.Listed,
		&t.Listing.ResalePrice,
		&metadataJSON,
		&historyJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		var md v1.TicketMetadata
		if err := json.Unmarshal(metadataJSON, &md); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ticket metadata: %w", err)
		}
		t.Metadata = v1.Some(md)
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &t.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ticket history: %w", err)
		}
	}
	return &t, nil
}

// marshalTicketJSON encodes the JSONB columns. Absent metadata becomes SQL NULL.
func marshalTicketJSON(t *v1.Ticket) (metadataJSON, historyJSON []byte, err error) {
	if md, ok := t.Metadata.Get(); ok {
		metadataJSON, err = json.Marshal(md)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal ticket metadata: %w", err)
		}
	}

	history := t.History
	if history == nil {
		history = []v1.TransferRecord{}
	}
	historyJSON, err = json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal ticket history: %w", err)
	}
	return metadataJSON, historyJSON, nil
}

func nullString(o v1.Optional[string]) sql.NullString {
	s, ok := o.Get()
	return sql.NullString{String: s, Valid: ok}
}

// eventWhere builds the WHERE clause for an EventFilter.
func eventWhere(f storage.EventFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Owner != "" {
		args = append(args, f.Owner)
		conds = append(conds, fmt.Sprintf("owner = $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	return joinWhere(conds), args
}

// ticketWhere builds the WHERE clause for a TicketFilter.
func ticketWhere(f storage.TicketFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Owner != "" {
		args = append(args, f.Owner)
		conds = append(conds, fmt.Sprintf("owner = $%d", len(args)))
	}
	if f.EventID != 0 {
		args = append(args, f.EventID)
		conds = append(conds, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if f.ListedOnly {
		conds = append(conds, "listed")
	}
	return joinWhere(conds), args
}

func joinWhere(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// isUniqueViolation recognizes 23505 from either registered driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
