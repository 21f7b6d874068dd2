package wallet

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aevon-lab/ticket-ledger/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestBook_DebitCredit(t *testing.T) {
	b := NewBook(500)
	ctx := context.Background()

	require.NoError(t, b.Debit(ctx, "alice", 200))
	require.NoError(t, b.Credit(ctx, "bob", 200))

	require.Equal(t, int64(300), b.Balance("alice"))
	require.Equal(t, int64(700), b.Balance("bob"))
	require.Equal(t, int64(500), b.Balance("carol"))

	entries := b.Journal("alice")
	require.Len(t, entries, 1)
	require.Equal(t, int64(-200), entries[0].Amount)
	require.Equal(t, int64(300), entries[0].Balance)
	require.NotEmpty(t, entries[0].ID.String())
}

func TestBook_InsufficientFunds(t *testing.T) {
	b := NewBook(100)

	err := b.Debit(context.Background(), "alice", 101)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	require.Equal(t, int64(100), b.Balance("alice"))
	require.Empty(t, b.Journal("alice"))
}

func TestBook_RejectsNegativeAmounts(t *testing.T) {
	b := NewBook(100)

	require.Error(t, b.Debit(context.Background(), "alice", -1))
	require.Error(t, b.Credit(context.Background(), "alice", -1))
}

func TestBook_CreditRejectsOverflow(t *testing.T) {
	b := NewBook(math.MaxInt64 - 10)
	ctx := context.Background()

	require.NoError(t, b.Credit(ctx, "alice", 10))
	require.Equal(t, int64(math.MaxInt64), b.Balance("alice"))

	err := b.Credit(ctx, "alice", 1)
	require.ErrorIs(t, err, ErrBalanceOverflow)
	require.Equal(t, int64(math.MaxInt64), b.Balance("alice"))
	require.Len(t, b.Journal("alice"), 1)

	require.ErrorIs(t, b.Credit(ctx, "bob", math.MaxInt64), ErrBalanceOverflow)
	require.Equal(t, int64(math.MaxInt64-10), b.Balance("bob"))
}

func TestBook_CancelledContext(t *testing.T) {
	b := NewBook(100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, b.Debit(ctx, "alice", 1), context.Canceled)
	require.Equal(t, int64(100), b.Balance("alice"))
}

func TestBook_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	b := NewBook(1000)

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			_ = b.Debit(context.Background(), "alice", 30)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int64(1000-33*30), b.Balance("alice"))
	require.Len(t, b.Journal("alice"), 33)
}

func TestBalanceHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	b := NewBook(50)
	require.NoError(t, b.Credit(context.Background(), "alice", 25))

	r := gin.New()
	b.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/v1/wallets/alice", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body BalanceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "alice", body.Identity)
	require.Equal(t, int64(75), body.Balance)
	require.Len(t, body.Entries, 1)
}
