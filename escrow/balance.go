// Package escrow holds the owner-deposited balance of a single fungible asset
// and hands out exact or rounded withdrawals to the distribution engine.
package escrow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rewards-go/asset"
	"github.com/bitfsorg/rewards-go/funds"
)

// Balance is the escrowed amount of one fungible asset.
//
// All mutations run through Update, which holds the balance lock for the whole
// unit of work: no reader can observe the amount between a withdrawal and the
// deposit that compensates it.
//
// Funds that belong to the escrow but could not be persisted after a
// checkpoint are held as pending and settled before the next unit of work.
type Balance struct {
	mu      sync.Mutex
	asset   asset.Asset
	amount  decimal.Decimal
	pending []pendingReturn
	store   Store
	now     func() time.Time
}

// pendingReturn is escrow-owned value waiting to be committed back.
type pendingReturn struct {
	held *funds.Bucket
	kind MovementKind
	ref  string
}

// Option configures a Balance.
type Option func(*Balance)

// WithClock sets the time source used to stamp journal entries.
func WithClock(now func() time.Time) Option {
	return func(b *Balance) { b.now = now }
}

// Open loads the balance of a from store. The asset must be fungible.
func Open(a asset.Asset, store Store, opts ...Option) (*Balance, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("escrow: %w", err)
	}
	if !a.IsFungible() {
		return nil, fmt.Errorf("%w: %s", ErrNonFungibleAsset, a.ID)
	}
	if store == nil {
		store = NewMemStore()
	}
	amount, err := store.LoadBalance(a.ID)
	if err != nil {
		return nil, fmt.Errorf("escrow: load balance: %w", err)
	}
	b := &Balance{asset: a, amount: amount, store: store, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Asset returns the escrowed asset.
func (b *Balance) Asset() asset.Asset {
	return b.asset
}

// Amount returns the escrowed amount.
func (b *Balance) Amount() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount
}

// Movements returns the committed journal.
func (b *Balance) Movements() ([]Movement, error) {
	return b.store.Movements(b.asset.ID)
}

// Deposit absorbs bucket into the escrow.
func (b *Balance) Deposit(bucket *funds.Bucket) error {
	return b.Update("", func(tx *Tx) error {
		return tx.Deposit(bucket)
	})
}

// Withdraw removes total, rounded to the asset precision with mode, and
// returns it as a bucket.
func (b *Balance) Withdraw(total decimal.Decimal, mode asset.RoundingMode) (*funds.Bucket, error) {
	var out *funds.Bucket
	err := b.Update("", func(tx *Tx) error {
		var err error
		out, err = tx.Withdraw(total, mode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pending returns the escrow-owned amount that is held but not yet committed.
func (b *Balance) Pending() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, p := range b.pending {
		total = total.Add(p.held.Amount())
	}
	return total
}

// Settle commits pending funds back into the balance.
func (b *Balance) Settle() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settle()
}

// Update runs fn as one atomic unit of work. If fn or the store commit fails
// the balance is left as it was: deposited buckets get their funds back and
// withdrawn buckets that were not passed on are spent.
//
// Once fn calls Tx.Checkpoint, the state up to that point is durable and a
// later failure only undoes what followed it. Withdrawn funds handed out
// before the checkpoint that come back unspent are refunded to the escrow.
// When such funds cannot be committed they stay pending and Update reports
// ErrSettlementPending.
func (b *Balance) Update(ref string, fn func(tx *Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.settle(); err != nil {
		return err
	}

	tx := &Tx{
		asset:  b.asset,
		amount: b.amount,
		base:   b.amount,
		ref:    ref,
		now:    b.now,
		persist: func(amount decimal.Decimal, movements []Movement) error {
			return b.store.Commit(b.asset.ID, amount, movements)
		},
	}
	defer tx.close()

	if err := fn(tx); err != nil {
		if serr := b.abort(tx); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}
	if len(tx.movements) > 0 {
		if err := tx.persist(tx.amount, tx.movements); err != nil {
			settleable := tx.checkpointed && !tx.hasOwnerDeposits()
			if serr := b.abort(tx); serr != nil {
				return fmt.Errorf("%w: commit: %w", serr, err)
			}
			if settleable {
				// Everything after the checkpoint was escrow-owned and is now settled.
				return nil
			}
			return fmt.Errorf("escrow: commit: %w", err)
		}
	}
	tx.commit()
	b.amount = tx.amount
	return nil
}

// abort rolls tx back to its last checkpoint and tries to settle whatever
// escrow-owned funds the rollback recovered.
func (b *Balance) abort(tx *Tx) error {
	recovered := tx.rollback()
	b.amount = tx.base
	if len(recovered) == 0 {
		return nil
	}
	b.pending = append(b.pending, recovered...)
	return b.settle()
}

func (b *Balance) settle() error {
	if len(b.pending) == 0 {
		return nil
	}
	amount := b.amount
	movements := make([]Movement, 0, len(b.pending))
	for _, p := range b.pending {
		amount = amount.Add(p.held.Amount())
		movements = append(movements, Movement{
			Kind:   p.kind,
			Amount: p.held.Amount(),
			Ref:    p.ref,
			Time:   b.now(),
		})
	}
	if err := b.store.Commit(b.asset.ID, amount, movements); err != nil {
		return fmt.Errorf("%w: %w", ErrSettlementPending, err)
	}
	for _, p := range b.pending {
		_, _, _ = p.held.Burn()
	}
	b.pending = nil
	b.amount = amount
	return nil
}

// Tx is the working copy of the balance inside Update. It must not be used
// after Update returns.
type Tx struct {
	asset        asset.Asset
	amount       decimal.Decimal
	base         decimal.Decimal // amount at the last checkpoint
	ref          string
	now          func() time.Time
	persist      func(decimal.Decimal, []Movement) error
	movements    []Movement
	deposits     []pendingDeposit
	withdrawn    []*funds.Bucket // since the last checkpoint
	handedOut    []*funds.Bucket // withdrawn before a checkpoint
	checkpointed bool
	closed       bool
}

type pendingDeposit struct {
	src  *funds.Bucket // caller's bucket, emptied but not yet spent
	held *funds.Bucket // the funds taken out of src
	kind MovementKind
}

// Amount returns the working amount.
func (tx *Tx) Amount() decimal.Decimal {
	return tx.amount
}

// Deposit moves bucket into the escrow.
func (tx *Tx) Deposit(bucket *funds.Bucket) error {
	return tx.deposit(bucket, MovementDeposit)
}

// ReturnRemainder deposits a leftover handed back by the distribution facility.
func (tx *Tx) ReturnRemainder(bucket *funds.Bucket) error {
	return tx.deposit(bucket, MovementRemainder)
}

func (tx *Tx) deposit(bucket *funds.Bucket, kind MovementKind) error {
	if tx.closed {
		return ErrTxClosed
	}
	if bucket == nil {
		return funds.ErrNilBucket
	}
	if bucket.Spent() {
		return funds.ErrBucketSpent
	}
	if bucket.Asset() != tx.asset {
		return fmt.Errorf("%w: got %s, escrow holds %s", ErrAssetMismatch, bucket.Asset().ID, tx.asset.ID)
	}
	held, err := bucket.Take(bucket.Amount())
	if err != nil {
		return fmt.Errorf("escrow: take deposit: %w", err)
	}
	tx.deposits = append(tx.deposits, pendingDeposit{src: bucket, held: held, kind: kind})
	tx.amount = tx.amount.Add(held.Amount())
	tx.record(kind, held.Amount())
	return nil
}

// Withdraw removes total rounded with mode. It fails with ErrInsufficientBalance
// without changing anything when the rounded total exceeds the working amount.
func (tx *Tx) Withdraw(total decimal.Decimal, mode asset.RoundingMode) (*funds.Bucket, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, total)
	}
	rounded, err := tx.asset.Round(total, mode)
	if err != nil {
		return nil, fmt.Errorf("escrow: round withdrawal: %w", err)
	}
	if rounded.GreaterThan(tx.amount) {
		return nil, fmt.Errorf("%w: need %s, have %s",
			ErrInsufficientBalance, tx.asset.Format(rounded), tx.asset.Format(tx.amount))
	}
	out, err := funds.Mint(tx.asset, rounded)
	if err != nil {
		return nil, fmt.Errorf("escrow: mint withdrawal: %w", err)
	}
	tx.amount = tx.amount.Sub(rounded)
	tx.withdrawn = append(tx.withdrawn, out)
	tx.record(MovementWithdrawal, rounded)
	return out, nil
}

func (tx *Tx) record(kind MovementKind, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	tx.movements = append(tx.movements, Movement{
		Kind:   kind,
		Amount: amount,
		Ref:    tx.ref,
		Time:   tx.now(),
	})
}

// Checkpoint persists the working state. Funds withdrawn so far may then be
// handed to a third party: if the unit of work fails later, the escrow keeps
// the withdrawal and takes back whatever remains in those buckets.
func (tx *Tx) Checkpoint() error {
	if tx.closed {
		return ErrTxClosed
	}
	if len(tx.movements) > 0 {
		if err := tx.persist(tx.amount, tx.movements); err != nil {
			return fmt.Errorf("escrow: checkpoint: %w", err)
		}
	}
	tx.commit()
	tx.handedOut = append(tx.handedOut, tx.withdrawn...)
	tx.withdrawn = nil
	tx.deposits = nil
	tx.movements = nil
	tx.base = tx.amount
	tx.checkpointed = true
	return nil
}

func (tx *Tx) commit() {
	for _, d := range tx.deposits {
		_, _, _ = d.held.Burn()
		_, _, _ = d.src.Burn()
	}
}

// rollback undoes everything since the last checkpoint and returns the
// escrow-owned funds it recovered.
func (tx *Tx) rollback() []pendingReturn {
	var recovered []pendingReturn
	for i := len(tx.deposits) - 1; i >= 0; i-- {
		d := tx.deposits[i]
		if tx.checkpointed && d.kind != MovementDeposit {
			// A remainder after a checkpoint belongs to the escrow, not to its source.
			_, _, _ = d.src.Burn()
			if d.held.Amount().IsZero() {
				_, _, _ = d.held.Burn()
				continue
			}
			recovered = append(recovered, pendingReturn{held: d.held, kind: d.kind, ref: tx.ref})
			continue
		}
		if !d.src.Spent() {
			_ = d.src.Put(d.held)
		}
	}
	for _, w := range tx.withdrawn {
		if !w.Spent() {
			_, _, _ = w.Burn()
		}
	}
	for _, w := range tx.handedOut {
		if w.Spent() || w.Amount().IsZero() {
			continue
		}
		held, err := w.Take(w.Amount())
		if err != nil {
			continue
		}
		_, _, _ = w.Burn()
		recovered = append(recovered, pendingReturn{held: held, kind: MovementRefund, ref: tx.ref})
	}
	tx.amount = tx.base
	tx.movements = nil
	return recovered
}

func (tx *Tx) hasOwnerDeposits() bool {
	for _, d := range tx.deposits {
		if d.kind == MovementDeposit {
			return true
		}
	}
	return false
}

func (tx *Tx) close() {
	tx.closed = true
}
