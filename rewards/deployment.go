package rewards

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bitfsorg/rewards-go/auth"
	"github.com/bitfsorg/rewards-go/claims"
	"github.com/bitfsorg/rewards-go/config"
	"github.com/bitfsorg/rewards-go/escrow"
)

// Deployment is a component wired to bolt-backed escrow and claim stores
// under one data directory.
type Deployment struct {
	Component *Component
	Locker    *claims.Locker
	Logger    *slog.Logger

	escrowDB  *escrow.BoltStore
	claimsDB  *claims.BoltStore
	logCloser io.Closer
}

// Open validates cfg and builds a Deployment from it. The component signs
// with the key in cfg.SelfKeyPath(), created on first use and encrypted with
// config.KeyPassword(), and is authorized as a depositor on its locker. When cfg.DNSZone is set the
// locker gets a DNS account directory for callers that require accounts.
func Open(cfg config.Config, opts ...Option) (_ *Deployment, err error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	owner, distributor, err := cfg.Identities()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	d := &Deployment{Logger: logger, logCloser: logCloser}
	defer func() {
		if err != nil {
			_ = d.Close()
		}
	}()

	d.escrowDB, err = escrow.OpenBoltStore(cfg.EscrowDBPath())
	if err != nil {
		return nil, err
	}
	d.claimsDB, err = claims.OpenBoltStore(cfg.ClaimsDBPath())
	if err != nil {
		return nil, err
	}

	lockerOpts := []claims.LockerOption{claims.WithLogger(logger.With("module", "claims"))}
	if cfg.DNSZone != "" {
		lockerOpts = append(lockerOpts, claims.WithDirectory(claims.NewDNSDirectory(cfg.DNSZone, cfg.DNSUpstream)))
	}
	d.Locker = claims.NewLocker(d.claimsDB, lockerOpts...)

	selfKey, err := auth.LoadOrCreateKey(cfg.SelfKeyPath(), config.KeyPassword())
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithLogger(logger.With("module", "rewards")), WithSelfKey(selfKey)}, opts...)
	d.Component, err = New(Config{
		Owner:       owner,
		Distributor: distributor,
		Asset:       cfg.Asset(),
	}, d.escrowDB, d.Locker, opts...)
	if err != nil {
		return nil, err
	}
	if err = d.Locker.AuthorizeDepositor(d.Component.Identity()); err != nil {
		return nil, err
	}

	logger.Info("rewards deployment opened",
		"datadir", cfg.DataDir,
		"asset", cfg.AssetID,
		"component", d.Component.Identity().String(),
	)
	return d, nil
}

// Close settles pending escrow funds and releases the databases and the log file.
func (d *Deployment) Close() error {
	var errs []error
	if d.Component != nil && d.escrowDB != nil {
		errs = append(errs, d.Component.Settle())
	}
	if d.claimsDB != nil {
		errs = append(errs, d.claimsDB.Close())
		d.claimsDB = nil
	}
	if d.escrowDB != nil {
		errs = append(errs, d.escrowDB.Close())
		d.escrowDB = nil
	}
	if d.logCloser != nil {
		errs = append(errs, d.logCloser.Close())
		d.logCloser = nil
	}
	return errors.Join(errs...)
}
