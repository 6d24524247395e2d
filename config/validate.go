// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/bitfsorg/rewards-go/asset"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if _, _, err := cfg.Identities(); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.AssetID) == "" {
		return fmt.Errorf("%w: empty asset id", ErrInvalidAsset)
	}

	if cfg.Decimals < 0 || cfg.Decimals > int(asset.MaxDecimals) {
		return fmt.Errorf("%w: %d", ErrInvalidDecimals, cfg.Decimals)
	}

	if err := cfg.Asset().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.DNSUpstream != "" {
		if err := validateAddr(cfg.DNSUpstream); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDNSUpstream, err)
		}
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
