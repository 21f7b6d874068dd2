package projection

import (
	"strconv"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/pricing"
	"github.com/shopspring/decimal"
)

// rollupStats folds the tickets issued against evt into its sales summary.
// Revenue is primary-market face value; resale proceeds belong to sellers.
func rollupStats(evt *v1.Event, tickets []*v1.Ticket) v1.EventStats {
	revenue := decimal.Zero
	var valid int64
	for _, t := range tickets {
		revenue = revenue.Add(decimal.NewFromInt(t.OriginalPrice))
		if t.IsValid {
			valid++
		}
	}

	return v1.EventStats{
		EventID:      evt.EventID,
		TotalSold:    int64(len(tickets)),
		TotalRevenue: pricing.Saturate(revenue),
		ValidTickets: valid,
	}
}

// rollupListings projects listed tickets into marketplace entries with their cap.
func rollupListings(tickets []*v1.Ticket, policy pricing.Policy) []v1.ResaleListing {
	out := make([]v1.ResaleListing, 0, len(tickets))
	for _, t := range tickets {
		if !t.IsValid || !t.Listing.Listed {
			continue
		}
		out = append(out, v1.ResaleListing{
			TokenID:       t.TokenID,
			EventID:       t.EventID,
			Seller:        t.Owner,
			ResalePrice:   t.Listing.ResalePrice,
			OriginalPrice: t.OriginalPrice,
			PriceCap:      policy.ResaleCap(t.OriginalPrice),
		})
	}
	return out
}

// tokenProperties flattens a ticket into DIP721-style key/value properties.
func tokenProperties(t *v1.Ticket) [][2]string {
	return [][2]string{
		{"event_id", strconv.FormatUint(t.EventID, 10)},
		{"original_price", strconv.FormatInt(t.OriginalPrice, 10)},
		{"current_price", strconv.FormatInt(t.CurrentPrice, 10)},
		{"is_valid", strconv.FormatBool(t.IsValid)},
		{"listed", strconv.FormatBool(t.Listing.Listed)},
	}
}

func tokenIDs(tickets []*v1.Ticket) []uint64 {
	ids := make([]uint64, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.TokenID)
	}
	return ids
}
