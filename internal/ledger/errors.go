package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure. Every mutating operation fails with
// exactly one Kind.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindPermissionDenied    Kind = "PermissionDenied"
	KindInvalidArgument     Kind = "InvalidArgument"
	KindEventCancelled      Kind = "EventCancelled"
	KindSoldOut             Kind = "SoldOut"
	KindInvalidated         Kind = "Invalidated"
	KindNotListed           Kind = "NotListed"
	KindPriceCapExceeded    Kind = "PriceCapExceeded"
	KindAlreadyCancelled    Kind = "AlreadyCancelled"
	KindSettlementFailed    Kind = "SettlementFailed"
	KindIdempotencyConflict Kind = "IdempotencyConflict"
	KindInternal            Kind = "Internal"
)

// Kind sentinels for errors.Is.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrEventCancelled      = &Error{Kind: KindEventCancelled}
	ErrSoldOut             = &Error{Kind: KindSoldOut}
	ErrInvalidated         = &Error{Kind: KindInvalidated}
	ErrNotListed           = &Error{Kind: KindNotListed}
	ErrPriceCapExceeded    = &Error{Kind: KindPriceCapExceeded}
	ErrAlreadyCancelled    = &Error{Kind: KindAlreadyCancelled}
	ErrSettlementFailed    = &Error{Kind: KindSettlementFailed}
	ErrIdempotencyConflict = &Error{Kind: KindIdempotencyConflict}
	ErrInternal            = &Error{Kind: KindInternal}
)

// Error is the single typed failure returned by ledger operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrSoldOut)
// works regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// internalError wraps a storage or encoding fault. These are surfaced, never swallowed.
func internalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

// KindOf extracts the Kind of err. Errors that did not come from the ledger
// are reported as KindInternal.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}
