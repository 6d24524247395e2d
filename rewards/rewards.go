// Package rewards is the reward escrow and distribution component.
//
// The owner deposits one fungible asset into escrow. The distributor then
// hands batches of recipient allocations to a claim facility, paid either
// from escrow (DistributeFromEscrow) or from funds supplied with the call
// (DistributeSupplied).
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitfsorg/rewards-go/asset"
	"github.com/bitfsorg/rewards-go/auth"
	"github.com/bitfsorg/rewards-go/batch"
	"github.com/bitfsorg/rewards-go/claims"
	"github.com/bitfsorg/rewards-go/escrow"
	"github.com/bitfsorg/rewards-go/funds"
)

// Config holds the construction-time identities and the escrowed asset.
type Config struct {
	Owner       auth.Identity
	Distributor auth.Identity
	Asset       asset.Asset
}

// Component is one deployed rewards instance.
type Component struct {
	escrow   *escrow.Balance
	policy   *auth.Policy
	facility claims.Facility
	selfKey  *ec.PrivateKey
	self     auth.Identity
	logger   *slog.Logger
}

// Option configures a Component.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	selfKey *ec.PrivateKey
	now     func() time.Time
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSelfKey sets the key the component signs facility calls with.
// Without it a fresh key is generated.
func WithSelfKey(priv *ec.PrivateKey) Option {
	return func(o *options) { o.selfKey = priv }
}

// WithClock sets the time source for escrow journal entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a component over store (nil means in-memory) that forwards
// batches to facility. The component's own identity must be authorized as a
// depositor on the facility; see Identity.
func New(cfg Config, store escrow.Store, facility claims.Facility, opts ...Option) (*Component, error) {
	if facility == nil {
		return nil, ErrNilFacility
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.selfKey == nil {
		key, err := ec.NewPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("rewards: generate self key: %w", err)
		}
		o.selfKey = key
	}
	self := auth.IdentityFromPubKey(o.selfKey.PubKey())

	policy, err := auth.NewPolicy(cfg.Owner, cfg.Distributor, self)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	balance, err := escrow.Open(cfg.Asset, store, escrow.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Component{
		escrow:   balance,
		policy:   policy,
		facility: facility,
		selfKey:  o.selfKey,
		self:     self,
		logger:   o.logger.With("component", self.String(), "asset", cfg.Asset.ID),
	}, nil
}

// Identity returns the component's own identity.
func (c *Component) Identity() auth.Identity {
	return c.self
}

// Asset returns the escrowed asset.
func (c *Component) Asset() asset.Asset {
	return c.escrow.Asset()
}

// Balance returns the escrowed amount.
func (c *Component) Balance() decimal.Decimal {
	return c.escrow.Amount()
}

// Pending returns escrow funds held in memory because the store refused them.
func (c *Component) Pending() decimal.Decimal {
	return c.escrow.Pending()
}

// Settle commits pending escrow funds.
func (c *Component) Settle() error {
	return c.escrow.Settle()
}

// Movements returns the escrow journal.
func (c *Component) Movements() ([]escrow.Movement, error) {
	return c.escrow.Movements()
}

// Distributor returns the current distributor identity.
func (c *Component) Distributor() auth.Identity {
	return c.policy.Holder(auth.RoleDistributor)
}

// Deposit adds bucket to escrow. Owner only.
func (c *Component) Deposit(_ context.Context, cred *auth.Credential, bucket *funds.Bucket) error {
	if err := c.policy.Check(auth.OpDeposit, cred); err != nil {
		return err
	}
	if bucket == nil {
		return funds.ErrNilBucket
	}
	amount := bucket.Amount()
	if err := c.escrow.Deposit(bucket); err != nil {
		return err
	}
	c.logger.Info("escrow deposit", "amount", amount.String(), "balance", c.escrow.Amount().String())
	return nil
}

// SetDistributor hands the distributor role to id. Owner only.
func (c *Component) SetDistributor(_ context.Context, cred *auth.Credential, id auth.Identity) error {
	if err := c.policy.SetDistributor(cred, id); err != nil {
		return err
	}
	c.logger.Info("distributor changed", "distributor", id.String())
	return nil
}

// DistributeFromEscrow pays req out of escrow. Distributor only.
//
// The total is withdrawn rounded away from zero and passed to the facility
// with missing recipient accounts allowed; whatever the facility hands back
// returns to escrow. The withdrawal is committed before the facility is
// called, so a failed commit never leaves claims behind. A failed facility
// call refunds the withdrawal and leaves the escrowed amount as it was.
func (c *Component) DistributeFromEscrow(ctx context.Context, cred *auth.Credential, req *batch.Request) error {
	if err := c.policy.Check(auth.OpDistributeFromEscrow, cred); err != nil {
		return err
	}
	if req == nil {
		return ErrNilRequest
	}
	total, err := req.FungibleTotal()
	if err != nil {
		return err
	}
	if req.Len() == 0 {
		c.logger.Debug("empty distribution")
		return nil
	}

	batchID := uuid.New()
	digest := req.Digest()
	log := c.logger.With("batch", batchID.String(), "digest", fmt.Sprintf("%x", digest[:8]))

	var (
		withdrawn, returned decimal.Decimal
		delivered           bool
	)
	err = c.escrow.Update(batchID.String(), func(tx *escrow.Tx) error {
		bucket, err := tx.Withdraw(total, asset.RoundAwayFromZero)
		if err != nil {
			return err
		}
		withdrawn = bucket.Amount()

		// The withdrawal must be durable before the facility creates claims.
		if err := tx.Checkpoint(); err != nil {
			return err
		}
		leftover, err := c.forward(ctx, req, bucket)
		if err != nil {
			return err
		}
		delivered = true
		if leftover != nil && !leftover.Spent() {
			returned = leftover.Amount()
			return tx.ReturnRemainder(leftover)
		}
		return nil
	})
	switch {
	case err == nil:
	case delivered && errors.Is(err, escrow.ErrSettlementPending):
		// Claims exist, so the distribution stands. The remainder is held
		// and committed by the next escrow update or Settle.
		log.Warn("remainder pending settlement", "error", err, "pending", c.escrow.Pending().String())
	default:
		log.Debug("distribution aborted", "error", err)
		return err
	}

	log.Info("distributed from escrow",
		"recipients", req.Len(),
		"requested", total.String(),
		"withdrawn", withdrawn.String(),
		"returned", returned.String(),
		"balance", c.escrow.Amount().String(),
	)
	return nil
}

// DistributeSupplied pays req out of bucket and returns what the facility
// did not use. Escrow is not touched. Distributor or the component itself.
// Non-fungible allocations are accepted.
func (c *Component) DistributeSupplied(ctx context.Context, cred *auth.Credential, req *batch.Request, bucket *funds.Bucket) (*funds.Bucket, error) {
	if err := c.policy.Check(auth.OpDistributeSupplied, cred); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNilRequest
	}
	if bucket == nil {
		return nil, funds.ErrNilBucket
	}

	supplied := bucket.String()
	leftover, err := c.forward(ctx, req, bucket)
	if err != nil {
		return nil, err
	}
	c.logger.Info("distributed supplied funds",
		"recipients", req.Len(),
		"supplied", supplied,
		"leftover", leftover != nil,
	)
	return leftover, nil
}

// forward calls the facility as the component itself.
func (c *Component) forward(ctx context.Context, req *batch.Request, bucket *funds.Bucket) (*funds.Bucket, error) {
	cred, err := auth.Sign(c.selfKey, auth.OpLockerDeposit)
	if err != nil {
		return nil, err
	}
	leftover, err := c.facility.BatchDeposit(auth.WithCredential(ctx, cred), req, bucket, true)
	if err != nil {
		return nil, fmt.Errorf("rewards: batch deposit: %w", err)
	}
	return leftover, nil
}
