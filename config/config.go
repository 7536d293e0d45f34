package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level daemon configuration loaded from TOML.
type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	Environment    string `toml:"Environment"`

	Pools PoolsConfig `toml:"Pools"`
}

// PoolsConfig mirrors the pools engine parameters. Big amounts are decimal
// strings so TOML integers never truncate them.
type PoolsConfig struct {
	BondingDuration    uint64 `toml:"BondingDuration"`
	HistoryDepth       uint64 `toml:"HistoryDepth"`
	MaxPoolMembers     uint32 `toml:"MaxPoolMembers"`
	MaxTargets         uint32 `toml:"MaxTargets"`
	MaxUnbondingEras   uint32 `toml:"MaxUnbondingEras"`
	MaxPendingSlashes  uint32 `toml:"MaxPendingSlashes"`
	MaxBoostMembers    uint32 `toml:"MaxBoostMembers"`
	ExistentialDeposit string `toml:"ExistentialDeposit"`
	MaxTVL             string `toml:"MaxTVL"`
	RemainderSink      string `toml:"RemainderSink"`
}

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes before the engine
// parameters are derived from it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if c.Pools.BondingDuration == 0 {
		return fmt.Errorf("config: Pools.BondingDuration must be positive")
	}
	if c.Pools.HistoryDepth <= c.Pools.BondingDuration {
		return fmt.Errorf("config: Pools.HistoryDepth must exceed Pools.BondingDuration")
	}
	if _, err := parseAmount(c.Pools.ExistentialDeposit); err != nil {
		return fmt.Errorf("config: Pools.ExistentialDeposit: %w", err)
	}
	if _, err := parseAmount(c.Pools.MaxTVL); err != nil {
		return fmt.Errorf("config: Pools.MaxTVL: %w", err)
	}
	if _, err := ParseAddress(c.Pools.RemainderSink); err != nil {
		return fmt.Errorf("config: Pools.RemainderSink: %w", err)
	}
	return nil
}

// ExistentialDepositAmount returns the parsed minimum viable balance.
func (p PoolsConfig) ExistentialDepositAmount() (*big.Int, error) {
	return parseAmount(p.ExistentialDeposit)
}

// MaxTVLAmount returns the parsed total-value-locked cap.
func (p PoolsConfig) MaxTVLAmount() (*big.Int, error) {
	return parseAmount(p.MaxTVL)
}

// RemainderSinkAddress returns the parsed sink for pruned reward remainders.
func (p PoolsConfig) RemainderSinkAddress() ([20]byte, error) {
	return ParseAddress(p.RemainderSink)
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(trimmed) != 40 {
		return out, fmt.Errorf("address must be 20 hex bytes")
	}
	for i := 0; i < 20; i++ {
		hi, ok1 := hexNibble(trimmed[2*i])
		lo, ok2 := hexNibble(trimmed[2*i+1])
		if !ok1 || !ok2 {
			return out, fmt.Errorf("address contains non-hex characters")
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount must not be empty")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be a non-negative decimal string")
	}
	return amount, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./lst-data"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	defaults := defaultPools()
	if cfg.Pools.BondingDuration == 0 {
		cfg.Pools.BondingDuration = defaults.BondingDuration
	}
	if cfg.Pools.HistoryDepth == 0 {
		cfg.Pools.HistoryDepth = defaults.HistoryDepth
	}
	if cfg.Pools.MaxPoolMembers == 0 {
		cfg.Pools.MaxPoolMembers = defaults.MaxPoolMembers
	}
	if cfg.Pools.MaxTargets == 0 {
		cfg.Pools.MaxTargets = defaults.MaxTargets
	}
	if cfg.Pools.MaxUnbondingEras == 0 {
		cfg.Pools.MaxUnbondingEras = defaults.MaxUnbondingEras
	}
	if cfg.Pools.MaxPendingSlashes == 0 {
		cfg.Pools.MaxPendingSlashes = defaults.MaxPendingSlashes
	}
	if cfg.Pools.MaxBoostMembers == 0 {
		cfg.Pools.MaxBoostMembers = defaults.MaxBoostMembers
	}
	if strings.TrimSpace(cfg.Pools.ExistentialDeposit) == "" {
		cfg.Pools.ExistentialDeposit = defaults.ExistentialDeposit
	}
	if strings.TrimSpace(cfg.Pools.MaxTVL) == "" {
		cfg.Pools.MaxTVL = defaults.MaxTVL
	}
	if strings.TrimSpace(cfg.Pools.RemainderSink) == "" {
		cfg.Pools.RemainderSink = defaults.RemainderSink
	}
}

func defaultPools() PoolsConfig {
	return PoolsConfig{
		BondingDuration:    28,
		HistoryDepth:       84,
		MaxPoolMembers:     1024,
		MaxTargets:         16,
		MaxUnbondingEras:   32,
		MaxPendingSlashes:  32,
		MaxBoostMembers:    512,
		ExistentialDeposit: "1",
		MaxTVL:             new(big.Int).Lsh(big.NewInt(1), 127).String(),
		RemainderSink:      "0x0000000000000000000000000000000000000001",
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:        "./lst-data",
		MetricsAddress: ":9464",
		Environment:    "local",
		Pools:          defaultPools(),
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
