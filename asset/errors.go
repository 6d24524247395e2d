package asset

import "errors"

var (
	// ErrEmptyID indicates the asset has no identifier.
	ErrEmptyID = errors.New("asset: empty asset ID")

	// ErrInvalidDecimals indicates the precision is outside 0..MaxDecimals.
	ErrInvalidDecimals = errors.New("asset: invalid decimals")

	// ErrInvalidKind indicates an unknown asset kind.
	ErrInvalidKind = errors.New("asset: invalid asset kind")

	// ErrNotRepresentable indicates an amount has more digits than the asset precision allows.
	ErrNotRepresentable = errors.New("asset: amount not representable at asset precision")

	// ErrNegativeAmount indicates a negative quantity where only non-negative ones are allowed.
	ErrNegativeAmount = errors.New("asset: negative amount")

	// ErrInvalidAmount indicates the amount text could not be parsed.
	ErrInvalidAmount = errors.New("asset: invalid amount")

	// ErrInvalidRoundingMode indicates an unknown rounding mode.
	ErrInvalidRoundingMode = errors.New("asset: invalid rounding mode")
)
