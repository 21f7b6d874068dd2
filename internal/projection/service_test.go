package projection

import (
	"context"
	"testing"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/pricing"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage/memory"
	"github.com/aevon-lab/ticket-ledger/internal/ledger"
	"github.com/aevon-lab/ticket-ledger/internal/wallet"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

// seeded builds a ledger with two events and three tickets:
// token 1 (alice, listed at 120), token 2 (bob, invalidated), token 3 (alice, event 2).
func seeded(t *testing.T) (*Service, *ledger.Engine) {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	engine := ledger.NewEngine(store, wallet.NewBook(10_000))
	require.NoError(t, engine.BootstrapAdmins(ctx, []string{"admin"}))
	require.NoError(t, engine.AssignOrganizer(ctx, ledger.As("admin"), "org"))

	evt1, err := engine.CreateEvent(ctx, ledger.As("org"), v1.CreateEventRequest{Name: "One", Price: 100, TotalTickets: 5})
	require.NoError(t, err)
	evt2, err := engine.CreateEvent(ctx, ledger.As("org"), v1.CreateEventRequest{Name: "Two", Price: 50, TotalTickets: 5})
	require.NoError(t, err)

	t1, err := engine.PurchasePrimary(ctx, ledger.As("alice"), evt1.EventID)
	require.NoError(t, err)
	t2, err := engine.PurchasePrimary(ctx, ledger.As("bob"), evt1.EventID)
	require.NoError(t, err)
	_, err = engine.PurchasePrimary(ctx, ledger.As("alice"), evt2.EventID)
	require.NoError(t, err)

	require.NoError(t, engine.ListForResale(ctx, ledger.As("alice"), t1.TokenID, 120))
	require.NoError(t, engine.InvalidateTicket(ctx, ledger.As("org"), t2.TokenID))
	require.NoError(t, engine.CancelEvent(ctx, ledger.As("org"), evt2.EventID))

	return NewService(store, pricing.DefaultPolicy()), engine
}

func TestService_ListEvents(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	active, err := svc.ListActiveEvents(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "One", active[0].Name)

	byOrg, err := svc.ListEventsByOrganizer(ctx, "org")
	require.NoError(t, err)
	require.Len(t, byOrg, 2)

	none, err := svc.ListEventsByOrganizer(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestService_GetEventAndTickets(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	evt, err := svc.GetEvent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), evt.AvailableTickets)

	_, err = svc.GetEvent(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)

	tickets, err := svc.GetEventTickets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	_, err = svc.GetEventTickets(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_EventStats(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	stats, err := svc.EventStats(ctx, "org", 1)
	require.NoError(t, err)
	require.Equal(t, v1.EventStats{EventID: 1, TotalSold: 2, TotalRevenue: 200, ValidTickets: 1}, *stats)

	_, err = svc.EventStats(ctx, "admin", 1)
	require.NoError(t, err)

	_, err = svc.EventStats(ctx, "alice", 1)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.EventStats(ctx, "org", 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_UserTicketsIncludeInvalid(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	bobs, err := svc.GetUserTickets(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	require.False(t, bobs[0].IsValid)

	ids, err := svc.TokensOf(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 3}, ids)

	n, err := svc.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	supply, err := svc.TotalSupply(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), supply)
}

func TestService_VerifyTicket(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	ok, err := svc.VerifyTicket(ctx, 1, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.VerifyTicket(ctx, 1, "bob")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.VerifyTicket(ctx, 2, "bob")
	require.NoError(t, err)
	require.False(t, ok, "invalidated tickets never verify")

	ok, err = svc.VerifyTicket(ctx, 99, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	owner, err := svc.OwnerOf(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "alice", owner)
}

func TestService_ListResaleListings(t *testing.T) {
	svc, engine := seeded(t)
	ctx := context.Background()

	listings, err := svc.ListResaleListings(ctx)
	require.NoError(t, err)
	require.Equal(t, []v1.ResaleListing{{
		TokenID:       1,
		EventID:       1,
		Seller:        "alice",
		ResalePrice:   120,
		OriginalPrice: 100,
		PriceCap:      120,
	}}, listings)

	_, err = engine.BuyResale(ctx, ledger.As("carol"), 1)
	require.NoError(t, err)

	listings, err = svc.ListResaleListings(ctx)
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestService_TokenMetadata(t *testing.T) {
	svc, _ := seeded(t)

	meta, err := svc.TokenMetadata(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "alice", meta.Owner)
	require.True(t, meta.IsApproved)
	require.Contains(t, meta.Properties, [2]string{"original_price", "100"})
	require.Contains(t, meta.Properties, [2]string{"listed", "true"})

	var md v1.TicketMetadata
	require.NoError(t, cbor.Unmarshal(meta.MetadataBlob, &md))
	require.Equal(t, "One", md.EventName)
	require.Equal(t, v1.DefaultTicketClass, md.TicketClass)
	require.False(t, md.SeatInfo.IsPresent())

	// Deterministic encoding.
	again, err := svc.TokenMetadata(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, meta.MetadataBlob, again.MetadataBlob)

	_, err = svc.TokenMetadata(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}
