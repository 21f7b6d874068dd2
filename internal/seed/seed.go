// Package seed loads development fixtures (organizers, events and wallet
// top-ups) from a YAML file and applies them through the ledger engine.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/ledger"
	"gopkg.in/yaml.v3"
)

// File is the on-disk seed document.
//
//	organizers: [org-1]
//	events:
//	  - organizer: org-1
//	    name: Launch Night
//	    date: 2026-12-01T20:00:00Z
//	    venue: Main Hall
//	    price: 5000
//	    total_tickets: 100
//	balances:
//	  alice: 20000
type File struct {
	Organizers []string         `yaml:"organizers"`
	Events     []Event          `yaml:"events"`
	Balances   map[string]int64 `yaml:"balances"`
}

type Event struct {
	Organizer    string    `yaml:"organizer"`
	Name         string    `yaml:"name"`
	Date         time.Time `yaml:"date"`
	Venue        string    `yaml:"venue"`
	Price        int64     `yaml:"price"`
	TotalTickets int64     `yaml:"total_tickets"`
	Description  string    `yaml:"description"`
	ImageURL     string    `yaml:"image_url"`
}

func (e Event) request() v1.CreateEventRequest {
	req := v1.CreateEventRequest{
		Name:         e.Name,
		Date:         e.Date.UnixNano(),
		Venue:        e.Venue,
		Price:        e.Price,
		TotalTickets: e.TotalTickets,
		Description:  e.Description,
	}
	if e.ImageURL != "" {
		req.ImageURL = v1.Some(e.ImageURL)
	}
	return req
}

// Crediter funds wallets; wallet.Book satisfies it.
type Crediter interface {
	Credit(ctx context.Context, identity string, amount int64) error
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, evt := range f.Events {
		if strings.TrimSpace(evt.Organizer) == "" {
			return nil, fmt.Errorf("events[%d]: organizer is required", i)
		}
		req := evt.request()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	for identity, amount := range f.Balances {
		if amount < 0 {
			return nil, fmt.Errorf("balances[%s]: amount must be >= 0", identity)
		}
	}
	return &f, nil
}

// Apply grants the Organizer role to every organizer (and event owner), then
// creates the events. Each call carries a deterministic idempotency key, so
// re-applying the same file against a persistent store creates nothing new.
func Apply(ctx context.Context, engine *ledger.Engine, wallets Crediter, admin string, f *File) error {
	organizers := make(map[string]struct{})
	for _, id := range f.Organizers {
		organizers[id] = struct{}{}
	}
	for _, evt := range f.Events {
		organizers[evt.Organizer] = struct{}{}
	}

	for id := range organizers {
		role, err := engine.GetRole(ctx, id)
		if err != nil {
			return err
		}
		if role == v1.RoleAdmin {
			continue
		}
		caller := ledger.Caller{Identity: admin, IdempotencyKey: "seed:organizer:" + id}
		if err := engine.AssignOrganizer(ctx, caller, id); err != nil {
			return fmt.Errorf("seed organizer %s: %w", id, err)
		}
	}

	for i, evt := range f.Events {
		caller := ledger.Caller{
			Identity:       evt.Organizer,
			IdempotencyKey: fmt.Sprintf("seed:event:%d:%s", i, evt.Name),
		}
		created, err := engine.CreateEvent(ctx, caller, evt.request())
		if err != nil {
			return fmt.Errorf("seed event %q: %w", evt.Name, err)
		}
		slog.Info("[Seed] Event ready", "event_id", created.EventID, "name", created.Name, "organizer", created.Owner)
	}

	if wallets != nil {
		for identity, amount := range f.Balances {
			if err := wallets.Credit(ctx, identity, amount); err != nil {
				return fmt.Errorf("seed balance %s: %w", identity, err)
			}
		}
	}

	slog.Info("[Seed] Applied",
		"organizers", len(organizers),
		"events", len(f.Events),
		"balances", len(f.Balances))
	return nil
}
