package v1

import (
	"fmt"
	"strings"
)

// Event is an organizer-owned ticketed event and its primary-market supply.
type Event struct {
	// EventID is assigned by the store on creation and never reused.
	EventID uint64 `json:"event_id"`

	// Owner is the Organizer (or Admin) identity that created the event.
	Owner string `json:"owner"`

	Name        string           `json:"name"`
	Venue       string           `json:"venue"`
	Description string           `json:"description"`
	ImageURL    Optional[string] `json:"image_url,omitzero"`

	// Date is nanoseconds since the Unix epoch. The ledger never expires events by date.
	Date int64 `json:"date"`

	// Price is the face value in integer minor currency units.
	Price int64 `json:"price"`

	TotalTickets     int64 `json:"total_tickets"`
	AvailableTickets int64 `json:"available_tickets"`

	// IsActive is true until cancellation, which is terminal.
	IsActive bool `json:"is_active"`

	CreatedAt int64 `json:"created_at"`
}

// Clone returns an independent copy.
func (e *Event) Clone() *Event {
	c := *e
	return &c
}

// CreateEventRequest is the input of CreateEvent.
type CreateEventRequest struct {
	Name         string           `json:"name"`
	Date         int64            `json:"date"`
	Venue        string           `json:"venue"`
	Price        int64            `json:"price"`
	TotalTickets int64            `json:"total_tickets"`
	Description  string           `json:"description"`
	ImageURL     Optional[string] `json:"image_url,omitzero"`
}

// Validate checks the fields the ledger requires regardless of client-side validation.
func (r *CreateEventRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.TotalTickets <= 0 {
		return fmt.Errorf("total_tickets must be > 0")
	}
	if r.Price < 0 {
		return fmt.Errorf("price must be >= 0")
	}
	return nil
}

// UpdateEventRequest carries the optional fields of UpdateEvent.
// Absent fields are left unchanged.
type UpdateEventRequest struct {
	Name         Optional[string] `json:"name,omitzero"`
	Date         Optional[int64]  `json:"date,omitzero"`
	Venue        Optional[string] `json:"venue,omitzero"`
	Price        Optional[int64]  `json:"price,omitzero"`
	TotalTickets Optional[int64]  `json:"total_tickets,omitzero"`
	Description  Optional[string] `json:"description,omitzero"`
	ImageURL     Optional[string] `json:"image_url,omitzero"`
}

// Validate checks each present field in isolation. Supply growth is checked
// against the stored event by the ledger.
func (r *UpdateEventRequest) Validate() error {
	if name, ok := r.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if price, ok := r.Price.Get(); ok && price < 0 {
		return fmt.Errorf("price must be >= 0")
	}
	if total, ok := r.TotalTickets.Get(); ok && total <= 0 {
		return fmt.Errorf("total_tickets must be > 0")
	}
	return nil
}

// EventStats summarizes primary sales for one event.
type EventStats struct {
	EventID      uint64 `json:"event_id"`
	TotalSold    int64  `json:"total_sold"`
	TotalRevenue int64  `json:"total_revenue"`
	ValidTickets int64  `json:"valid_tickets"`
}
