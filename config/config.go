// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads the deployment configuration of a rewards component
// from a simple "key = value" file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitfsorg/rewards-go/asset"
	"github.com/bitfsorg/rewards-go/auth"
)

const (
	// configFileName is the file name inside the data directory.
	configFileName = "config"

	// escrowDBName and claimsDBName are the bolt databases inside the data directory.
	escrowDBName = "escrow.db"
	claimsDBName = "claims.db"

	// selfKeyName is the default encrypted key file of the component.
	selfKeyName = "self.key"

	// KeyPasswordEnv names the environment variable holding the key file password.
	KeyPasswordEnv = "REWARDS_KEY_PASSWORD"
)

// Config is the construction-time configuration of one component.
type Config struct {
	DataDir     string
	Owner       string // hex identity
	Distributor string // hex identity
	AssetID     string
	Symbol      string
	Decimals    int
	LogLevel    string
	LogFile     string // empty means stderr
	DNSZone     string // empty disables the DNS account directory
	DNSUpstream string
	KeyFile     string // empty means <datadir>/self.key
}

// DefaultDataDir returns ~/.rewards, or .rewards when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rewards"
	}
	return filepath.Join(home, ".rewards")
}

// DefaultConfig returns defaults. Owner, distributor, and asset have no
// sensible default and must be set before the config validates.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Decimals: int(asset.MaxDecimals),
		LogLevel: "info",
	}
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// EscrowDBPath returns the escrow database path.
func (c Config) EscrowDBPath() string {
	return filepath.Join(c.DataDir, escrowDBName)
}

// ClaimsDBPath returns the claim database path.
func (c Config) ClaimsDBPath() string {
	return filepath.Join(c.DataDir, claimsDBName)
}

// SelfKeyPath returns the encrypted key file of the component.
func (c Config) SelfKeyPath() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(c.DataDir, selfKeyName)
}

// KeyPassword returns the key file password from the environment.
func KeyPassword() string {
	return os.Getenv(KeyPasswordEnv)
}

// LoadConfig reads path on top of DefaultConfig. Unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		switch key {
		case "datadir":
			cfg.DataDir = value
		case "owner":
			cfg.Owner = value
		case "distributor":
			cfg.Distributor = value
		case "asset":
			cfg.AssetID = value
		case "symbol":
			cfg.Symbol = value
		case "decimals":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidDecimals, lineNo, value)
			}
			cfg.Decimals = n
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		case "dnszone":
			cfg.DNSZone = value
		case "dnsupstream":
			cfg.DNSUpstream = value
		case "keyfile":
			cfg.KeyFile = value
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read: %w", err)
	}
	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Rewards Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "owner = %s\n", cfg.Owner)
	fmt.Fprintf(&b, "distributor = %s\n", cfg.Distributor)
	fmt.Fprintf(&b, "asset = %s\n", cfg.AssetID)
	fmt.Fprintf(&b, "symbol = %s\n", cfg.Symbol)
	fmt.Fprintf(&b, "decimals = %d\n", cfg.Decimals)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(&b, "dnszone = %s\n", cfg.DNSZone)
	fmt.Fprintf(&b, "dnsupstream = %s\n", cfg.DNSUpstream)
	fmt.Fprintf(&b, "keyfile = %s\n", cfg.KeyFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// Asset returns the configured fungible asset.
func (c Config) Asset() asset.Asset {
	return asset.NewFungible(c.AssetID, c.Symbol, uint8(c.Decimals))
}

// Identities parses the owner and distributor identities.
func (c Config) Identities() (owner, distributor auth.Identity, err error) {
	owner, err = auth.ParseIdentity(c.Owner)
	if err != nil {
		return owner, distributor, fmt.Errorf("%w: owner: %w", ErrInvalidIdentity, err)
	}
	distributor, err = auth.ParseIdentity(c.Distributor)
	if err != nil {
		return owner, distributor, fmt.Errorf("%w: distributor: %w", ErrInvalidIdentity, err)
	}
	return owner, distributor, nil
}
