// Package ledger is the authoritative state machine for events and tickets.
// Every mutating operation goes through Engine, which re-validates against
// committed state inside a locked store transaction and commits atomically.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aevon-lab/ticket-ledger/internal/core/pricing"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

// DefaultPlatformAccount receives platform fees unless configured otherwise.
const DefaultPlatformAccount = "platform"

// Caller is the already-authenticated identity invoking an operation, plus
// the optional idempotency key it attached to the request.
type Caller struct {
	Identity       string
	IdempotencyKey string
}

// As is shorthand for a Caller without an idempotency key.
func As(identity string) Caller {
	return Caller{Identity: identity}
}

// Engine is the single commit path for ledger mutations.
type Engine struct {
	store           storage.Store
	settlement      Settlement
	policy          pricing.Policy
	platformAccount string
	now             func() time.Time
}

type Option func(*Engine)

func WithPolicy(p pricing.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithPlatformAccount(identity string) Option {
	return func(e *Engine) {
		if identity != "" {
			e.platformAccount = identity
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store storage.Store, settlement Settlement, opts ...Option) *Engine {
	if store == nil {
		panic("ledger: store must not be nil")
	}
	if settlement == nil {
		panic("ledger: settlement must not be nil")
	}
	e := &Engine{
		store:           store,
		settlement:      settlement,
		policy:          pricing.DefaultPolicy(),
		platformAccount: DefaultPlatformAccount,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) nowNanos() int64 {
	return e.now().UnixNano()
}

// mutation describes one logical ledger operation.
type mutation struct {
	op     string
	caller Caller
	locks  storage.LockSet
	// params are fingerprinted together with op for idempotency replays.
	params []any
}

// opFunc runs inside the locked transaction. Any settlement it performs goes
// through run so the engine can reverse it if the operation does not commit.
type opFunc[T any] func(ctx context.Context, tx storage.Tx, run *settlementRun) (T, error)

// mutate is the engine's only write path. It takes the operation's locks,
// replays a stored result for a repeated idempotency key, otherwise runs fn and
// records its result in the same commit. Settlement legs applied by fn are
// reversed when fn fails or the commit does not happen.
func mutate[T any](ctx context.Context, e *Engine, m mutation, fn opFunc[T]) (T, error) {
	var zero T

	if strings.TrimSpace(m.caller.Identity) == "" {
		return zero, newError(KindInvalidArgument, "caller identity is required")
	}

	key := m.caller.IdempotencyKey
	var fp string
	if key != "" {
		var err error
		if fp, err = fingerprint(m.op, m.params...); err != nil {
			return zero, internalError(m.op, err)
		}
	}

	run := &settlementRun{settlement: e.settlement}
	var result T

	err := e.store.Update(ctx, m.locks.Idempotency(m.caller.Identity, key), func(tx storage.Tx) error {
		if key != "" {
			rec, err := tx.Idempotency(ctx, m.caller.Identity, key)
			if err != nil {
				return internalError("read idempotency record", err)
			}
			if rec != nil {
				if rec.Operation != m.op || rec.Fingerprint != fp {
					return newError(KindIdempotencyConflict, "idempotency key %q was used with different parameters", key)
				}
				if err := json.Unmarshal(rec.Result, &result); err != nil {
					return internalError("decode idempotency result", err)
				}
				slog.Info("[Ledger] Replayed idempotent request",
					"op", m.op,
					"caller", m.caller.Identity,
					"idempotency_key", key)
				return nil
			}
		}

		out, err := fn(ctx, tx, run)
		if err != nil {
			return err
		}

		if key != "" {
			body, err := json.Marshal(out)
			if err != nil {
				return internalError("encode idempotency result", err)
			}
			err = tx.SaveIdempotency(ctx, &storage.IdempotencyRecord{
				Caller:      m.caller.Identity,
				Key:         key,
				Operation:   m.op,
				Fingerprint: fp,
				Result:      body,
				CreatedAt:   e.nowNanos(),
			})
			if err != nil {
				return internalError("save idempotency record", err)
			}
		}

		result = out
		return nil
	})
	if err != nil {
		run.reverse(ctx)
		return zero, e.classify(m, err)
	}
	return result, nil
}

// classify turns a transaction error into exactly one *Error.
func (e *Engine) classify(m mutation, err error) error {
	var le *Error
	if errors.As(err, &le) {
		if le.Kind == KindInternal {
			slog.Error("[Ledger] Operation failed", "op", m.op, "caller", m.caller.Identity, "error", err)
		}
		return le
	}
	slog.Error("[Ledger] Storage fault", "op", m.op, "caller", m.caller.Identity, "error", err)
	return internalError(m.op, err)
}

// wrapStorage maps a store read failure to NotFound or Internal.
func wrapStorage(err error, what string, id uint64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newError(KindNotFound, "%s %d not found", what, id)
	}
	return internalError("read "+what, err)
}
