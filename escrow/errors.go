package escrow

import "errors"

var (
	// ErrInsufficientBalance indicates the (rounded) withdrawal exceeds the escrowed amount.
	ErrInsufficientBalance = errors.New("escrow: insufficient balance")

	// ErrNonFungibleAsset indicates an attempt to escrow a non-fungible asset.
	ErrNonFungibleAsset = errors.New("escrow: only fungible assets can be escrowed")

	// ErrAssetMismatch indicates a bucket of another asset was offered to the escrow.
	ErrAssetMismatch = errors.New("escrow: bucket asset does not match escrow asset")

	// ErrNegativeAmount indicates a negative withdrawal request.
	ErrNegativeAmount = errors.New("escrow: negative amount")

	// ErrTxClosed indicates a Tx was used after its Update returned.
	ErrTxClosed = errors.New("escrow: transaction already closed")

	// ErrSettlementPending indicates escrow-owned funds are held in memory because
	// the store refused to commit them. They are retried on the next update.
	ErrSettlementPending = errors.New("escrow: funds pending settlement")

	// ErrCorruptBalance indicates a stored balance could not be decoded.
	ErrCorruptBalance = errors.New("escrow: corrupt stored balance")
)
