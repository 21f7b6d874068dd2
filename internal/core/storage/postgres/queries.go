package postgres

// SQL for the ledger tables. Column order in the SELECTs must match
// scanEventRow / scanTicketRow.

const (
	// queryAdvisoryLock takes a transaction-scoped exclusive lock on one entity key.
	// Keys are acquired in LockSet order, so concurrent writers cannot deadlock.
	queryAdvisoryLock = `SELECT pg_advisory_xact_lock($1)`

	querySelectRole = `SELECT role FROM roles WHERE identity = $1`

	queryUpsertRole = `
		INSERT INTO roles (identity, role, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity) DO UPDATE
		SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
	`

	eventColumns = `
		event_id, owner, name, venue, description, image_url,
		date_ns, price, total_tickets, available_tickets, is_active, created_at_ns`

	querySelectEvent = `SELECT` + eventColumns + `
		FROM events
		WHERE event_id = $1
	`

	queryListEvents = `SELECT` + eventColumns + `
		FROM events`

	// queryInsertEvent lets BIGSERIAL assign the id; ids are never reused.
	queryInsertEvent = `
		INSERT INTO events (
			owner, name, venue, description, image_url,
			date_ns, price, total_tickets, available_tickets, is_active, created_at_ns
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING event_id
	`

	queryUpdateEvent = `
		UPDATE events
		SET name = $2, venue = $3, description = $4, image_url = $5, date_ns = $6,
		    price = $7, total_tickets = $8, available_tickets = $9, is_active = $10
		WHERE event_id = $1
	`

	ticketColumns = `
		token_id, event_id, owner, original_price, current_price, is_valid,
		listed, resale_price, metadata, history`

	querySelectTicket = `SELECT` + ticketColumns + `
		FROM tickets
		WHERE token_id = $1
	`

	queryListTickets = `SELECT` + ticketColumns + `
		FROM tickets`

	queryCountTickets = `SELECT COUNT(*) FROM tickets`

	queryInsertTicket = `
		INSERT INTO tickets (
			event_id, owner, original_price, current_price, is_valid,
			listed, resale_price, metadata, history
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING token_id
	`

	queryUpdateTicket = `
		UPDATE tickets
		SET owner = $2, current_price = $3, is_valid = $4,
		    listed = $5, resale_price = $6, metadata = $7, history = $8
		WHERE token_id = $1
	`

	querySelectIdempotency = `
		SELECT caller, idem_key, operation, fingerprint, result, created_at_ns
		FROM idempotency_keys
		WHERE caller = $1 AND idem_key = $2
	`

	queryInsertIdempotency = `
		INSERT INTO idempotency_keys (caller, idem_key, operation, fingerprint, result, created_at_ns)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	queryTicketsTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'tickets'
		)
	`
)
