// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	testOwner       = "00112233445566778899aabbccddeeff00112233"
	testDistributor = "ffeeddccbbaa99887766554433221100ffeeddcc"
)

// validConfig returns defaults plus the fields that have none.
func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Owner = testOwner
	cfg.Distributor = testDistributor
	cfg.AssetID = "resource_doge"
	cfg.Symbol = "DOGE"
	return cfg
}

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Decimals", cfg.Decimals, 18},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"DNSZone", cfg.DNSZone, ""},
		{"Owner", cfg.Owner, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if !strings.HasSuffix(cfg.DataDir, ".rewards") {
		t.Errorf("DataDir = %q, want suffix %q", cfg.DataDir, ".rewards")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:     "/tmp/test-rewards",
		Owner:       testOwner,
		Distributor: testDistributor,
		AssetID:     "resource_xrd",
		Symbol:      "XRD",
		Decimals:    6,
		LogLevel:    "debug",
		LogFile:     "/tmp/rewards.log",
		DNSZone:     "accounts.example.com",
		DNSUpstream: "127.0.0.1:5353",
		KeyFile:     "/tmp/rewards/self.key",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded != original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

func TestSaveConfig_OutputContainsAllKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := SaveConfig(path, validConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "# Rewards Configuration") {
		t.Error("saved config should contain header")
	}
	keys := []string{"datadir", "owner", "distributor", "asset", "symbol", "decimals",
		"loglevel", "logfile", "dnszone", "dnsupstream", "keyfile"}
	for _, key := range keys {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error and parser tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLine(t *testing.T) {
	for _, content := range []string{"this-is-not-key-value\n", " = value\n"} {
		path := filepath.Join(t.TempDir(), "config")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfigLine) {
			t.Errorf("LoadConfig %q: got %v, want ErrInvalidConfigLine", content, err)
		}
	}
}

func TestLoadConfigBadDecimals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("decimals = many\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidDecimals) {
		t.Errorf("LoadConfig: got %v, want ErrInvalidDecimals", err)
	}
}

func TestLoadConfigCommentsBlanksAndUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := `# This is a comment
asset = resource_cents

# Another comment
  Decimals = 2
futurekey = futurevalue
logfile=/tmp/a=b.log
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AssetID != "resource_cents" {
		t.Errorf("AssetID = %q, want %q", cfg.AssetID, "resource_cents")
	}
	if cfg.Decimals != 2 {
		t.Errorf("Decimals = %d, want 2", cfg.Decimals)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/a=b.log")
	}
	// Unset fields keep defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigValid(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Errorf("ValidateConfig(validConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigDefaultsNeedIdentities(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want ErrInvalidIdentity", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"empty_datadir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad_owner", func(c *Config) { c.Owner = "xyz" }, ErrInvalidIdentity},
		{"bad_distributor", func(c *Config) { c.Distributor = strings.Repeat("g", 40) }, ErrInvalidIdentity},
		{"empty_asset", func(c *Config) { c.AssetID = "  " }, ErrInvalidAsset},
		{"negative_decimals", func(c *Config) { c.Decimals = -1 }, ErrInvalidDecimals},
		{"too_many_decimals", func(c *Config) { c.Decimals = 19 }, ErrInvalidDecimals},
		{"bad_loglevel", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"bad_dns_upstream", func(c *Config) { c.DNSUpstream = "no-port" }, ErrInvalidDNSUpstream},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"INFO", "Debug", "WARN", "Error"} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with loglevel %q: %v", level, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Derived values
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.rewards")
	want := filepath.Join("/home/user/.rewards", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestDBPaths(t *testing.T) {
	cfg := Config{DataDir: "/data"}
	if got := cfg.EscrowDBPath(); got != filepath.Join("/data", "escrow.db") {
		t.Errorf("EscrowDBPath = %q", got)
	}
	if got := cfg.ClaimsDBPath(); got != filepath.Join("/data", "claims.db") {
		t.Errorf("ClaimsDBPath = %q", got)
	}
}

func TestSelfKeyPath(t *testing.T) {
	cfg := Config{DataDir: "/data"}
	if got := cfg.SelfKeyPath(); got != filepath.Join("/data", "self.key") {
		t.Errorf("SelfKeyPath default = %q", got)
	}
	cfg.KeyFile = "/keys/rewards.key"
	if got := cfg.SelfKeyPath(); got != "/keys/rewards.key" {
		t.Errorf("SelfKeyPath override = %q", got)
	}
}

func TestKeyPassword(t *testing.T) {
	t.Setenv(KeyPasswordEnv, "s3cret")
	if got := KeyPassword(); got != "s3cret" {
		t.Errorf("KeyPassword = %q, want %q", got, "s3cret")
	}
}

func TestAssetAndIdentities(t *testing.T) {
	cfg := validConfig()
	cfg.Decimals = 2

	a := cfg.Asset()
	if a.ID != "resource_doge" || a.Symbol != "DOGE" || a.Decimals != 2 || !a.IsFungible() {
		t.Errorf("Asset() = %+v", a)
	}

	owner, distributor, err := cfg.Identities()
	if err != nil {
		t.Fatalf("Identities: %v", err)
	}
	if owner.String() != testOwner || distributor.String() != testDistributor {
		t.Errorf("Identities() = %s, %s", owner, distributor)
	}
}

// ---------------------------------------------------------------------------
// Logger tests
// ---------------------------------------------------------------------------

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLogLevel(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseLogLevel("loud"); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("ParseLogLevel(loud) = %v, want ErrInvalidLogLevel", err)
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "warn"
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "rewards.log")

	logger, closer, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "batch", "b-1")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(content, "msg=shown") || !strings.Contains(content, "batch=b-1") {
		t.Errorf("log file = %q, want the warn record", content)
	}
}

func TestNewLoggerStderr(t *testing.T) {
	logger, closer, err := NewLogger(validConfig())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("logger is nil")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
