package asset

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how an amount that cannot be represented at the asset
// precision is brought to a representable one.
type RoundingMode uint8

const (
	// RoundExact refuses amounts that would need rounding.
	RoundExact RoundingMode = iota
	// RoundAwayFromZero moves to the next representable value farther from zero.
	RoundAwayFromZero
	// RoundTowardZero drops the digits beyond the asset precision.
	RoundTowardZero
)

// String returns the mode name.
func (m RoundingMode) String() string {
	switch m {
	case RoundExact:
		return "exact"
	case RoundAwayFromZero:
		return "away-from-zero"
	case RoundTowardZero:
		return "toward-zero"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Round brings d to the asset precision using mode.
// Representable amounts are returned unchanged for every mode.
func (a Asset) Round(d decimal.Decimal, mode RoundingMode) (decimal.Decimal, error) {
	if a.IsRepresentable(d) {
		return d, nil
	}
	places := int32(a.Decimals)
	switch mode {
	case RoundExact:
		return decimal.Zero, fmt.Errorf("%w: %s with %d decimals", ErrNotRepresentable, d, a.Decimals)
	case RoundAwayFromZero:
		return d.RoundUp(places), nil
	case RoundTowardZero:
		return d.Truncate(places), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidRoundingMode, mode)
	}
}
