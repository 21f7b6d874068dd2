package ledger

import (
	"context"
	"errors"
	"log/slog"
)

// ErrInsufficientFunds is the decline a Settlement returns from Debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Settlement moves funds between identities. Amounts are integer minor units.
// Implementations must be safe for concurrent use.
type Settlement interface {
	Debit(ctx context.Context, identity string, amount int64) error
	Credit(ctx context.Context, identity string, amount int64) error
}

type legKind int

const (
	legDebit legKind = iota
	legCredit
)

type leg struct {
	kind     legKind
	identity string
	amount   int64
}

// settlementRun records the legs applied during one operation so they can be
// reversed if the operation does not commit.
type settlementRun struct {
	settlement Settlement
	applied    []leg
}

// pay debits amount from payer and credits the payee, minus fee which goes to
// the platform account. Partial progress is reversed before returning an error.
func (r *settlementRun) pay(ctx context.Context, payer, payee, platform string, amount, fee int64) error {
	if amount == 0 {
		return nil
	}
	legs := []leg{
		{kind: legDebit, identity: payer, amount: amount},
		{kind: legCredit, identity: payee, amount: amount - fee},
	}
	if fee > 0 {
		legs = append(legs, leg{kind: legCredit, identity: platform, amount: fee})
	}

	mark := len(r.applied)
	for _, l := range legs {
		if err := r.apply(ctx, l); err != nil {
			r.reverseFrom(ctx, mark)
			return err
		}
	}
	return nil
}

func (r *settlementRun) apply(ctx context.Context, l leg) error {
	if l.amount == 0 {
		return nil
	}
	var err error
	switch l.kind {
	case legDebit:
		err = r.settlement.Debit(ctx, l.identity, l.amount)
	case legCredit:
		err = r.settlement.Credit(ctx, l.identity, l.amount)
	}
	if err != nil {
		return err
	}
	r.applied = append(r.applied, l)
	return nil
}

// reverse undoes every applied leg, newest first.
func (r *settlementRun) reverse(ctx context.Context) {
	r.reverseFrom(ctx, 0)
}

func (r *settlementRun) reverseFrom(ctx context.Context, mark int) {
	// Compensation must run even when the request context is already done.
	ctx = context.WithoutCancel(ctx)
	for i := len(r.applied) - 1; i >= mark; i-- {
		l := r.applied[i]
		var err error
		switch l.kind {
		case legDebit:
			err = r.settlement.Credit(ctx, l.identity, l.amount)
		case legCredit:
			err = r.settlement.Debit(ctx, l.identity, l.amount)
		}
		if err != nil {
			slog.Error("[Ledger] Failed to reverse settlement leg",
				"identity", l.identity,
				"amount", l.amount,
				"error", err)
		}
	}
	r.applied = r.applied[:mark]
}
