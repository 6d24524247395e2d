package batch

import "errors"

var (
	// ErrUnsupportedAllocation indicates a non-fungible allocation where only fungible ones are accepted.
	ErrUnsupportedAllocation = errors.New("batch: unsupported allocation kind")

	// ErrDuplicateRecipient indicates the recipient already has an entry in the request.
	ErrDuplicateRecipient = errors.New("batch: duplicate recipient")

	// ErrNegativeAmount indicates a fungible allocation below zero.
	ErrNegativeAmount = errors.New("batch: negative allocation amount")

	// ErrEmptyIDs indicates a non-fungible allocation that names no IDs.
	ErrEmptyIDs = errors.New("batch: non-fungible allocation without IDs")

	// ErrZeroRecipient indicates an unset recipient identity.
	ErrZeroRecipient = errors.New("batch: recipient identity is unset")

	// ErrNoShares indicates a split without any shares.
	ErrNoShares = errors.New("batch: no shares to split")

	// ErrZeroShare indicates a share with zero weight.
	ErrZeroShare = errors.New("batch: share weight is zero")

	// ErrShareOverflow indicates the share weights overflow uint64.
	ErrShareOverflow = errors.New("batch: total share weight overflows")
)
