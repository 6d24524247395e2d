// Package asset describes the resource types handled by the rewards library:
// their identity, precision, and the rounding rules applied to amounts.
package asset

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDecimals is the finest precision an asset may declare.
const MaxDecimals = 18

// Kind distinguishes divisible assets from uniquely identified ones.
type Kind uint8

const (
	// Fungible assets are quantities; any unit is interchangeable with another.
	Fungible Kind = iota
	// NonFungible assets are sets of uniquely identified, indivisible items.
	NonFungible
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Fungible:
		return "fungible"
	case NonFungible:
		return "non-fungible"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Asset is the identity of a resource type. It carries no quantity.
type Asset struct {
	ID       string // Resource address or ticker-like identifier
	Symbol   string // Display symbol, may be empty
	Decimals uint8  // Number of fractional digits the asset can represent
	Kind     Kind
}

// NewFungible returns a fungible asset with the given precision.
func NewFungible(id, symbol string, decimals uint8) Asset {
	return Asset{ID: id, Symbol: symbol, Decimals: decimals, Kind: Fungible}
}

// NewNonFungible returns a non-fungible asset.
func NewNonFungible(id, symbol string) Asset {
	return Asset{ID: id, Symbol: symbol, Kind: NonFungible}
}

// Validate checks the asset definition.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	switch a.Kind {
	case Fungible:
		if a.Decimals > MaxDecimals {
			return fmt.Errorf("%w: %d exceeds %d", ErrInvalidDecimals, a.Decimals, MaxDecimals)
		}
	case NonFungible:
		if a.Decimals != 0 {
			return fmt.Errorf("%w: non-fungible asset must have 0 decimals", ErrInvalidDecimals)
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidKind, a.Kind)
	}
	return nil
}

// IsFungible reports whether the asset is divisible.
func (a Asset) IsFungible() bool {
	return a.Kind == Fungible
}

// MinimalUnit returns the smallest positive amount the asset can represent.
func (a Asset) MinimalUnit() decimal.Decimal {
	return decimal.New(1, -int32(a.Decimals))
}

// IsRepresentable reports whether d has no digits beyond the asset precision.
func (a Asset) IsRepresentable(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(int32(a.Decimals)))
}

// String returns the symbol if set, otherwise the ID.
func (a Asset) String() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.ID
}

// ParseAmount parses a non-negative amount of this asset.
// Digits beyond the asset precision are rejected rather than rounded.
func (a Asset) ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, d)
	}
	if !a.IsRepresentable(d) {
		return decimal.Zero, fmt.Errorf("%w: %s with %d decimals", ErrNotRepresentable, d, a.Decimals)
	}
	return d, nil
}

// Format renders d at the asset precision followed by the symbol.
func (a Asset) Format(d decimal.Decimal) string {
	return fmt.Sprintf("%s %s", d.StringFixed(int32(a.Decimals)), a.String())
}
