package v1

const (
	// IdentityHeader carries the caller identity asserted by the upstream
	// identity provider. The ledger trusts it as-is.
	IdentityHeader = "X-Ledger-Identity"
	// IdempotencyHeader optionally makes a mutating request replay-safe.
	IdempotencyHeader = "Idempotency-Key"
)
