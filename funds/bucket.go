// Package funds models transferable amounts of an asset as move-only values.
//
// A Bucket is consumed when it is merged into another bucket or handed to a
// holder that absorbs it. After that every method reports ErrBucketSpent, so
// the same funds cannot be counted twice.
package funds

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rewards-go/asset"
)

// Bucket holds a quantity of one asset: an amount for fungible assets or a
// set of local IDs for non-fungible ones.
type Bucket struct {
	asset  asset.Asset
	amount decimal.Decimal
	ids    map[string]struct{}
	spent  bool
}

// Mint creates a fungible bucket. It is the entry point for ledger adapters
// that bring funds into the library; amount must be non-negative and
// representable at the asset precision.
func Mint(a asset.Asset, amount decimal.Decimal) (*Bucket, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if !a.IsFungible() {
		return nil, fmt.Errorf("%w: mint amount of %s", ErrWrongKind, a.ID)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", asset.ErrNegativeAmount, amount)
	}
	if !a.IsRepresentable(amount) {
		return nil, fmt.Errorf("%w: %s with %d decimals", asset.ErrNotRepresentable, amount, a.Decimals)
	}
	return &Bucket{asset: a, amount: amount}, nil
}

// MintNonFungible creates a non-fungible bucket holding ids.
func MintNonFungible(a asset.Asset, ids ...string) (*Bucket, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a.IsFungible() {
		return nil, fmt.Errorf("%w: mint IDs of %s", ErrWrongKind, a.ID)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := set[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		set[id] = struct{}{}
	}
	return &Bucket{asset: a, amount: decimal.NewFromInt(int64(len(set))), ids: set}, nil
}

// Empty returns an empty bucket of a.
func Empty(a asset.Asset) *Bucket {
	b := &Bucket{asset: a}
	if !a.IsFungible() {
		b.ids = make(map[string]struct{})
	}
	return b
}

// Asset returns the asset held. It stays readable after the bucket is spent.
func (b *Bucket) Asset() asset.Asset {
	return b.asset
}

// Amount returns the held quantity; for non-fungible buckets it is the number of IDs.
// A spent bucket reports zero.
func (b *Bucket) Amount() decimal.Decimal {
	if b.spent {
		return decimal.Zero
	}
	return b.amount
}

// IDs returns the non-fungible IDs in sorted order.
func (b *Bucket) IDs() []string {
	if b.spent || len(b.ids) == 0 {
		return nil
	}
	ids := make([]string, 0, len(b.ids))
	for id := range b.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsEmpty reports whether the bucket holds nothing.
func (b *Bucket) IsEmpty() bool {
	return b.spent || b.amount.IsZero()
}

// Spent reports whether the bucket has been moved.
func (b *Bucket) Spent() bool {
	return b.spent
}

// Take splits amount off into a new bucket.
func (b *Bucket) Take(amount decimal.Decimal) (*Bucket, error) {
	if b.spent {
		return nil, ErrBucketSpent
	}
	if !b.asset.IsFungible() {
		return nil, fmt.Errorf("%w: take amount from %s", ErrWrongKind, b.asset.ID)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", asset.ErrNegativeAmount, amount)
	}
	if !b.asset.IsRepresentable(amount) {
		return nil, fmt.Errorf("%w: %s with %d decimals", asset.ErrNotRepresentable, amount, b.asset.Decimals)
	}
	if amount.GreaterThan(b.amount) {
		return nil, fmt.Errorf("%w: take %s, have %s", ErrInsufficientFunds, amount, b.amount)
	}
	b.amount = b.amount.Sub(amount)
	return &Bucket{asset: b.asset, amount: amount}, nil
}

// TakeIDs splits the listed non-fungible IDs off into a new bucket.
// Either all IDs are moved or none.
func (b *Bucket) TakeIDs(ids ...string) (*Bucket, error) {
	if b.spent {
		return nil, ErrBucketSpent
	}
	if b.asset.IsFungible() {
		return nil, fmt.Errorf("%w: take IDs from %s", ErrWrongKind, b.asset.ID)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		if _, ok := b.ids[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
		}
		seen[id] = struct{}{}
	}
	for id := range seen {
		delete(b.ids, id)
	}
	b.amount = decimal.NewFromInt(int64(len(b.ids)))
	return &Bucket{asset: b.asset, amount: decimal.NewFromInt(int64(len(seen))), ids: seen}, nil
}

// Put merges other into b. other is spent afterwards.
func (b *Bucket) Put(other *Bucket) error {
	if other == nil {
		return ErrNilBucket
	}
	if b.spent || other.spent {
		return ErrBucketSpent
	}
	if b == other {
		return nil
	}
	if b.asset != other.asset {
		return fmt.Errorf("%w: %s into %s", ErrAssetMismatch, other.asset.ID, b.asset.ID)
	}
	if b.asset.IsFungible() {
		b.amount = b.amount.Add(other.amount)
	} else {
		for id := range other.ids {
			if _, dup := b.ids[id]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
		}
		if b.ids == nil {
			b.ids = make(map[string]struct{}, len(other.ids))
		}
		for id := range other.ids {
			b.ids[id] = struct{}{}
		}
		b.amount = decimal.NewFromInt(int64(len(b.ids)))
	}
	other.markSpent()
	return nil
}

// Burn consumes the bucket and returns what it held.
// Holders call it when they absorb the funds into their own bookkeeping.
func (b *Bucket) Burn() (decimal.Decimal, []string, error) {
	if b.spent {
		return decimal.Zero, nil, ErrBucketSpent
	}
	amount, ids := b.amount, b.IDs()
	b.markSpent()
	return amount, ids, nil
}

// String returns a short description for logs.
func (b *Bucket) String() string {
	if b.spent {
		return fmt.Sprintf("spent bucket of %s", b.asset)
	}
	if !b.asset.IsFungible() {
		return fmt.Sprintf("%d × %s", len(b.ids), b.asset)
	}
	return b.asset.Format(b.amount)
}

func (b *Bucket) markSpent() {
	b.spent = true
	b.amount = decimal.Zero
	b.ids = nil
}
