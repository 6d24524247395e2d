// Package batch defines the per-recipient allocation map handed to a
// distribution call.
package batch

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"

	"github.com/bitfsorg/rewards-go/auth"
)

// Kind tags an Allocation.
type Kind uint8

const (
	KindFungible Kind = iota
	KindNonFungible
)

// Allocation is what one recipient should receive: an amount of a fungible
// asset, or a list of non-fungible IDs.
type Allocation struct {
	Kind   Kind
	Amount decimal.Decimal // KindFungible only
	IDs    []string        // KindNonFungible only
}

// Fungible returns an amount allocation.
func Fungible(amount decimal.Decimal) Allocation {
	return Allocation{Kind: KindFungible, Amount: amount}
}

// NonFungible returns an allocation of specific IDs.
func NonFungible(ids ...string) Allocation {
	return Allocation{Kind: KindNonFungible, IDs: append([]string(nil), ids...)}
}

// IsFungible reports whether the allocation carries an amount.
func (a Allocation) IsFungible() bool {
	return a.Kind == KindFungible
}

// String returns a short description for logs.
func (a Allocation) String() string {
	if a.IsFungible() {
		return a.Amount.String()
	}
	return fmt.Sprintf("ids%v", a.IDs)
}

// Entry is one recipient and its allocation.
type Entry struct {
	Recipient  auth.Identity
	Allocation Allocation
}

// Request maps recipients to allocations, keeping insertion order.
// The zero value is an empty request ready for use.
type Request struct {
	entries []Entry
	index   map[auth.Identity]int
}

// NewRequest builds a request from entries in order.
func NewRequest(entries ...Entry) (*Request, error) {
	r := &Request{}
	for _, e := range entries {
		if err := r.Add(e.Recipient, e.Allocation); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends an allocation for recipient.
func (r *Request) Add(recipient auth.Identity, alloc Allocation) error {
	if recipient.IsZero() {
		return ErrZeroRecipient
	}
	if _, dup := r.index[recipient]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRecipient, recipient)
	}
	switch alloc.Kind {
	case KindFungible:
		if alloc.Amount.IsNegative() {
			return fmt.Errorf("%w: %s for %s", ErrNegativeAmount, alloc.Amount, recipient)
		}
	case KindNonFungible:
		if len(alloc.IDs) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyIDs, recipient)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrUnsupportedAllocation, alloc.Kind)
	}
	if r.index == nil {
		r.index = make(map[auth.Identity]int)
	}
	r.index[recipient] = len(r.entries)
	r.entries = append(r.entries, Entry{Recipient: recipient, Allocation: alloc})
	return nil
}

// Len returns the number of recipients.
func (r *Request) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Entries returns the entries in insertion order. The slice is a copy.
func (r *Request) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns the allocation for recipient.
func (r *Request) Get(recipient auth.Identity) (Allocation, bool) {
	if r == nil {
		return Allocation{}, false
	}
	i, ok := r.index[recipient]
	if !ok {
		return Allocation{}, false
	}
	return r.entries[i].Allocation, true
}

// FungibleTotal sums every allocation. Any non-fungible entry fails the whole
// request with ErrUnsupportedAllocation. The sum is exact.
func (r *Request) FungibleTotal() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range r.Entries() {
		if !e.Allocation.IsFungible() {
			return decimal.Zero, fmt.Errorf("%w: non-fungible entry for %s", ErrUnsupportedAllocation, e.Recipient)
		}
		total = total.Add(e.Allocation.Amount)
	}
	return total, nil
}

// Digest returns a BLAKE2b-256 digest of the request contents. Entry order
// does not affect it, so two requests with the same allocations share a digest.
func (r *Request) Digest() [32]byte {
	entries := r.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Recipient.String() < entries[j].Recipient.String()
	})

	var buf []byte
	for _, e := range entries {
		buf = append(buf, e.Recipient[:]...)
		buf = append(buf, byte(e.Allocation.Kind))
		if e.Allocation.IsFungible() {
			buf = appendString(buf, e.Allocation.Amount.String())
			continue
		}
		ids := append([]string(nil), e.Allocation.IDs...)
		sort.Strings(ids)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(ids)))
		for _, id := range ids {
			buf = appendString(buf, id)
		}
	}
	return blake2b.Sum256(buf)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
