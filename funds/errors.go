package funds

import "errors"

var (
	// ErrBucketSpent indicates the bucket was already moved into another holder.
	ErrBucketSpent = errors.New("funds: bucket already spent")

	// ErrNilBucket indicates a required bucket is nil.
	ErrNilBucket = errors.New("funds: bucket is nil")

	// ErrAssetMismatch indicates two buckets or a bucket and a holder disagree on the asset.
	ErrAssetMismatch = errors.New("funds: asset mismatch")

	// ErrInsufficientFunds indicates a take exceeds what the bucket holds.
	ErrInsufficientFunds = errors.New("funds: insufficient funds in bucket")

	// ErrWrongKind indicates a fungible operation on a non-fungible bucket or vice versa.
	ErrWrongKind = errors.New("funds: operation does not match asset kind")

	// ErrUnknownID indicates a non-fungible ID not present in the bucket.
	ErrUnknownID = errors.New("funds: non-fungible ID not in bucket")

	// ErrDuplicateID indicates the same non-fungible ID was given twice.
	ErrDuplicateID = errors.New("funds: duplicate non-fungible ID")
)
