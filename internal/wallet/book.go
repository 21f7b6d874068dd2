// Package wallet is an in-memory balance book that settles ledger payments.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aevon-lab/ticket-ledger/internal/ledger"
	"github.com/google/uuid"
)

// ErrBalanceOverflow rejects a credit that would exceed the largest representable balance.
var ErrBalanceOverflow = errors.New("balance overflow")

// Entry is one journal line. Amount is signed: credits are positive.
type Entry struct {
	ID       uuid.UUID `json:"id"`
	Identity string    `json:"identity"`
	Amount   int64     `json:"amount"`
	Balance  int64     `json:"balance"`
	At       time.Time `json:"at"`
}

// Book holds one balance per identity. Identities seen for the first time
// start at the configured initial balance.
type Book struct {
	mu       sync.Mutex
	initial  int64
	balances map[string]int64
	journal  []Entry
}

func NewBook(initialBalance int64) *Book {
	return &Book{
		initial:  initialBalance,
		balances: make(map[string]int64),
	}
}

// Debit removes amount from identity, or fails with ledger.ErrInsufficientFunds.
func (b *Book) Debit(ctx context.Context, identity string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("debit amount %d must not be negative", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balanceLocked(identity)
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ledger.ErrInsufficientFunds, identity, bal, amount)
	}
	b.postLocked(identity, -amount)
	return nil
}

// Credit adds amount to identity, or fails with ErrBalanceOverflow and leaves
// the balance unchanged.
func (b *Book) Credit(ctx context.Context, identity string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("credit amount %d must not be negative", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if bal := b.balanceLocked(identity); bal > math.MaxInt64-amount {
		return fmt.Errorf("%w: %s has %d, credit %d", ErrBalanceOverflow, identity, bal, amount)
	}
	b.postLocked(identity, amount)
	return nil
}

// Balance returns the current balance of identity.
func (b *Book) Balance(identity string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceLocked(identity)
}

// Journal returns the entries for identity, oldest first.
func (b *Book) Journal(identity string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, 0)
	for _, e := range b.journal {
		if e.Identity == identity {
			out = append(out, e)
		}
	}
	return out
}

func (b *Book) balanceLocked(identity string) int64 {
	if bal, ok := b.balances[identity]; ok {
		return bal
	}
	return b.initial
}

func (b *Book) postLocked(identity string, amount int64) {
	bal := b.balanceLocked(identity) + amount
	b.balances[identity] = bal
	b.journal = append(b.journal, Entry{
		ID:       uuid.New(),
		Identity: identity,
		Amount:   amount,
		Balance:  bal,
		At:       time.Now().UTC(),
	})
}
