// Package claims implements a claim-based distribution facility: funds sent
// to a batch of recipients are parked as claims until each recipient
// withdraws them.
package claims

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rewards-go/asset"
	"github.com/bitfsorg/rewards-go/auth"
	"github.com/bitfsorg/rewards-go/batch"
	"github.com/bitfsorg/rewards-go/funds"
)

// Facility accepts a bucket and an allocation map and records a claim for
// each recipient. It returns whatever part of the bucket was not allocated,
// or nil when nothing remains. The depositor's credential travels in ctx
// (see auth.WithCredential).
type Facility interface {
	BatchDeposit(ctx context.Context, req *batch.Request, bucket *funds.Bucket, allowMissingAccount bool) (*funds.Bucket, error)
}

// Locker is a Facility that keeps claims in a Store.
type Locker struct {
	mu         sync.Mutex
	store      Store
	directory  Directory
	depositors map[auth.Identity]struct{}
	logger     *slog.Logger
	now        func() time.Time
}

// Compile-time interface check.
var _ Facility = (*Locker)(nil)

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithDirectory sets the account directory used when missing accounts are not allowed.
func WithDirectory(d Directory) LockerOption {
	return func(l *Locker) { l.directory = d }
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) LockerOption {
	return func(l *Locker) { l.logger = logger }
}

// WithClock sets the time source for claim timestamps.
func WithClock(now func() time.Time) LockerOption {
	return func(l *Locker) { l.now = now }
}

// NewLocker creates a locker over store. A nil store means a MemStore.
func NewLocker(store Store, opts ...LockerOption) *Locker {
	if store == nil {
		store = NewMemStore()
	}
	l := &Locker{
		store:      store,
		depositors: make(map[auth.Identity]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// AuthorizeDepositor allows id to call BatchDeposit.
func (l *Locker) AuthorizeDepositor(id auth.Identity) error {
	if id.IsZero() {
		return auth.ErrZeroIdentity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.depositors[id] = struct{}{}
	return nil
}

// RevokeDepositor removes id from the depositors.
func (l *Locker) RevokeDepositor(id auth.Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.depositors, id)
}

// plan is a validated batch ready to be applied.
type plan struct {
	claims []Claim
	total  decimal.Decimal // fungible sum
	ids    []string        // non-fungible IDs
}

// BatchDeposit records claims for every entry of req, paid out of bucket.
// Nothing is stored and nothing is taken unless the whole batch is valid.
func (l *Locker) BatchDeposit(ctx context.Context, req *batch.Request, bucket *funds.Bucket, allowMissingAccount bool) (*funds.Bucket, error) {
	depositor, err := l.depositor(ctx)
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return nil, funds.ErrNilBucket
	}
	if bucket.Spent() {
		return nil, funds.ErrBucketSpent
	}
	if req == nil {
		req = &batch.Request{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !allowMissingAccount {
		if err := l.checkAccounts(ctx, req); err != nil {
			return nil, err
		}
	}

	batchID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("claims: batch id: %w", err)
	}
	p, err := l.plan(req, bucket, batchID)
	if err != nil {
		return nil, err
	}

	if err := l.store.AddClaims(p.claims); err != nil {
		return nil, fmt.Errorf("claims: store batch: %w", err)
	}

	var taken *funds.Bucket
	if bucket.Asset().IsFungible() {
		taken, err = bucket.Take(p.total)
	} else {
		taken, err = bucket.TakeIDs(p.ids...)
	}
	if err != nil {
		l.undo(p.claims)
		return nil, fmt.Errorf("claims: take batch funds: %w", err)
	}
	_, _, _ = taken.Burn()

	l.logger.Info("claims batch deposited",
		"batch", batchID,
		"depositor", depositor,
		"asset", bucket.Asset().ID,
		"claims", len(p.claims),
		"total", p.total.String(),
	)

	if bucket.IsEmpty() {
		_, _, _ = bucket.Burn()
		return nil, nil
	}
	return bucket, nil
}

func (l *Locker) depositor(ctx context.Context) (auth.Identity, error) {
	cred, ok := auth.CredentialFrom(ctx)
	if !ok {
		return auth.Identity{}, auth.ErrMissingCredential
	}
	if err := cred.Verify(auth.OpLockerDeposit); err != nil {
		return auth.Identity{}, err
	}
	id := cred.Identity()
	l.mu.Lock()
	_, ok = l.depositors[id]
	l.mu.Unlock()
	if !ok {
		return auth.Identity{}, fmt.Errorf("%w: %s", ErrUnauthorizedDepositor, id)
	}
	return id, nil
}

func (l *Locker) checkAccounts(ctx context.Context, req *batch.Request) error {
	if req.Len() == 0 {
		return nil
	}
	if l.directory == nil {
		return ErrNoDirectory
	}
	for _, e := range req.Entries() {
		ok, err := l.directory.AccountExists(ctx, e.Recipient)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrRecipientUnknown, e.Recipient)
		}
	}
	return nil
}

func (l *Locker) plan(req *batch.Request, bucket *funds.Bucket, batchID uuid.UUID) (*plan, error) {
	a := bucket.Asset()
	now := l.now()
	p := &plan{total: decimal.Zero}

	available := make(map[string]bool)
	for _, id := range bucket.IDs() {
		available[id] = true
	}

	for _, e := range req.Entries() {
		c := Claim{
			BatchID:   batchID,
			Recipient: e.Recipient,
			Asset:     a,
			CreatedAt: now,
		}
		if e.Allocation.IsFungible() {
			if !a.IsFungible() {
				return nil, fmt.Errorf("%w: amount for %s from non-fungible %s", ErrAllocationMismatch, e.Recipient, a.ID)
			}
			amount, err := a.Round(e.Allocation.Amount, asset.RoundTowardZero)
			if err != nil {
				return nil, fmt.Errorf("claims: round allocation: %w", err)
			}
			if amount.IsZero() {
				continue
			}
			c.Amount = amount
			p.total = p.total.Add(amount)
		} else {
			if a.IsFungible() {
				return nil, fmt.Errorf("%w: IDs for %s from fungible %s", ErrAllocationMismatch, e.Recipient, a.ID)
			}
			for _, id := range e.Allocation.IDs {
				if !available[id] {
					return nil, fmt.Errorf("claims: %w: %s", funds.ErrUnknownID, id)
				}
				available[id] = false
			}
			c.IDs = append([]string(nil), e.Allocation.IDs...)
			c.Amount = decimal.NewFromInt(int64(len(c.IDs)))
			p.ids = append(p.ids, c.IDs...)
		}
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("claims: claim id: %w", err)
		}
		c.ID = id
		p.claims = append(p.claims, c)
	}

	if a.IsFungible() && p.total.GreaterThan(bucket.Amount()) {
		return nil, fmt.Errorf("claims: %w: batch needs %s, bucket holds %s",
			funds.ErrInsufficientFunds, a.Format(p.total), a.Format(bucket.Amount()))
	}
	return p, nil
}

// undo removes claims stored for a batch that could not be funded.
func (l *Locker) undo(claims []Claim) {
	byRecipient := make(map[auth.Identity][]uuid.UUID)
	for _, c := range claims {
		byRecipient[c.Recipient] = append(byRecipient[c.Recipient], c.ID)
	}
	for r, ids := range byRecipient {
		if err := l.store.RemoveClaims(r, ids); err != nil {
			l.logger.Error("claims: undo batch", "recipient", r, "error", err)
		}
	}
}

// Claims lists the outstanding claims of recipient.
func (l *Locker) Claims(recipient auth.Identity) ([]Claim, error) {
	return l.store.ClaimsFor(recipient)
}

// Claim withdraws everything owed to recipient in assetID. The credential in
// ctx must be the recipient's, signed for auth.OpClaim.
func (l *Locker) Claim(ctx context.Context, recipient auth.Identity, assetID string) (*funds.Bucket, error) {
	cred, ok := auth.CredentialFrom(ctx)
	if !ok {
		return nil, auth.ErrMissingCredential
	}
	if err := cred.Verify(auth.OpClaim); err != nil {
		return nil, err
	}
	if cred.Identity() != recipient {
		return nil, fmt.Errorf("%w: %s", ErrNotRecipient, recipient)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.store.ClaimsFor(recipient)
	if err != nil {
		return nil, fmt.Errorf("claims: load claims: %w", err)
	}
	var (
		matched []uuid.UUID
		a       asset.Asset
		total   = decimal.Zero
		ids     []string
	)
	for _, c := range all {
		if c.Asset.ID != assetID {
			continue
		}
		a = c.Asset
		matched = append(matched, c.ID)
		if a.IsFungible() {
			total = total.Add(c.Amount)
		} else {
			ids = append(ids, c.IDs...)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s for %s", ErrNoClaims, assetID, recipient)
	}

	var out *funds.Bucket
	if a.IsFungible() {
		out, err = funds.Mint(a, total)
	} else {
		out, err = funds.MintNonFungible(a, ids...)
	}
	if err != nil {
		return nil, fmt.Errorf("claims: mint claim: %w", err)
	}
	if err := l.store.RemoveClaims(recipient, matched); err != nil {
		_, _, _ = out.Burn()
		return nil, fmt.Errorf("claims: remove claims: %w", err)
	}
	l.logger.Info("claims withdrawn", "recipient", recipient, "asset", assetID, "claims", len(matched))
	return out, nil
}

// Outstanding totals unclaimed amounts of assetID; for non-fungible assets it
// is the number of unclaimed IDs.
func (l *Locker) Outstanding(assetID string) (decimal.Decimal, error) {
	all, err := l.store.ListClaims()
	if err != nil {
		return decimal.Zero, fmt.Errorf("claims: list claims: %w", err)
	}
	total := decimal.Zero
	for _, c := range all {
		if c.Asset.ID == assetID {
			total = total.Add(c.Amount)
		}
	}
	return total, nil
}
