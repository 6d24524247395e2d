// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidIdentity indicates the owner or distributor is not a 40-char hex identity.
	ErrInvalidIdentity = errors.New("config: invalid identity")

	// ErrInvalidAsset indicates the asset identifier is missing or malformed.
	ErrInvalidAsset = errors.New("config: invalid asset")

	// ErrInvalidDecimals indicates the asset precision is out of range.
	ErrInvalidDecimals = errors.New("config: invalid decimals (must be 0-18)")

	// ErrInvalidDNSUpstream indicates the DNS upstream is not a host:port address.
	ErrInvalidDNSUpstream = errors.New("config: invalid DNS upstream address")
)
