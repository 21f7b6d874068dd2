package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// DefaultResaleMultiplier caps resale at 120% of the original price.
	DefaultResaleMultiplier = "1.20"
	// DefaultPlatformFeeBps is 2% in basis points.
	DefaultPlatformFeeBps = 200

	basisPoints = 10000
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Policy holds the marketplace price rules. All amounts are integer minor units;
// fractional results are floored so the cap never admits a price above the exact bound.
type Policy struct {
	multiplier decimal.Decimal
	feeBps     int64
}

// NewPolicy parses the resale multiplier as an exact decimal string (e.g. "1.20").
func NewPolicy(resaleMultiplier string, feeBps int64) (Policy, error) {
	m, err := decimal.NewFromString(resaleMultiplier)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid resale multiplier %q: %w", resaleMultiplier, err)
	}
	if m.LessThan(decimal.NewFromInt(1)) {
		return Policy{}, fmt.Errorf("resale multiplier %s must be >= 1", m)
	}
	if feeBps < 0 || feeBps > basisPoints {
		return Policy{}, fmt.Errorf("platform fee %d bps out of range [0, %d]", feeBps, basisPoints)
	}
	return Policy{multiplier: m, feeBps: feeBps}, nil
}

// DefaultPolicy returns the 1.20x / 2% policy.
func DefaultPolicy() Policy {
	return Policy{
		multiplier: decimal.RequireFromString(DefaultResaleMultiplier),
		feeBps:     DefaultPlatformFeeBps,
	}
}

// ResaleCap returns floor(original × multiplier), saturating at MaxInt64.
func (p Policy) ResaleCap(original int64) int64 {
	return Saturate(decimal.NewFromInt(original).Mul(p.multiplier).Floor())
}

// Saturate converts an integral amount to int64, clamping anything above
// MaxInt64 instead of wrapping.
func Saturate(d decimal.Decimal) int64 {
	if d.GreaterThan(maxAmount) {
		return math.MaxInt64
	}
	return d.IntPart()
}

// WithinCap reports whether price is an admissible resale price for original.
func (p Policy) WithinCap(original, price int64) bool {
	return price >= 0 && price <= p.ResaleCap(original)
}

// Fee returns the platform's share of amount, floored.
func (p Policy) Fee(amount int64) int64 {
	if amount <= 0 || p.feeBps == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(p.feeBps)).
		Div(decimal.NewFromInt(basisPoints)).
		Floor().
		IntPart()
}

func (p Policy) Multiplier() string {
	return p.multiplier.String()
}

func (p Policy) FeeBps() int64 {
	return p.feeBps
}
