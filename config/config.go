package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"stakevault/crypto"
)

// Config is the daemon configuration loaded from TOML.
type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	Env         string `toml:"Env"`

	// Owner is the bech32 address of the vault administrator.
	Owner string `toml:"Owner"`
	// Vault optionally overrides the custody address on the token ledger.
	Vault string `toml:"Vault"`

	Genesis Genesis `toml:"genesis"`
}

// Genesis describes the token allocations applied on first start.
type Genesis struct {
	Alloc []Allocation `toml:"alloc"`
}

// Allocation mints Amount tokens to Address when the database is empty.
type Allocation struct {
	Address string `toml:"address"`
	Amount  string `toml:"amount"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg, path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config, path string) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = filepath.Join(filepath.Dir(path), "data")
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "svt-local"
	}
}

func createDefault(path string) (*Config, error) {
	ownerKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	cfg := &Config{Owner: ownerKey.PubKey().Address().String()}
	applyDefaults(cfg, path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks addresses and allocation amounts.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return fmt.Errorf("config: Owner is required")
	}
	if _, err := crypto.DecodeAddress(c.Owner); err != nil {
		return fmt.Errorf("config: invalid Owner address: %w", err)
	}
	if strings.TrimSpace(c.Vault) != "" {
		if _, err := crypto.DecodeAddress(c.Vault); err != nil {
			return fmt.Errorf("config: invalid Vault address: %w", err)
		}
	}
	seen := make(map[string]struct{}, len(c.Genesis.Alloc))
	for i, alloc := range c.Genesis.Alloc {
		addr := strings.TrimSpace(alloc.Address)
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("config: genesis alloc %d: invalid address: %w", i, err)
		}
		if _, ok := seen[addr]; ok {
			return fmt.Errorf("config: genesis alloc %d: duplicate address %s", i, addr)
		}
		seen[addr] = struct{}{}
		if _, err := parsePositiveAmount(alloc.Amount); err != nil {
			return fmt.Errorf("config: genesis alloc %d: %w", i, err)
		}
	}
	return nil
}

// OwnerAddress returns the decoded owner address.
func (c *Config) OwnerAddress() ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(c.Owner))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// VaultAddress returns the custody address: the configured override when set,
// otherwise an address derived from the network name so distinct networks get
// distinct custody accounts.
func (c *Config) VaultAddress() ([20]byte, error) {
	if strings.TrimSpace(c.Vault) != "" {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(c.Vault))
		if err != nil {
			return [20]byte{}, err
		}
		return addr.Raw(), nil
	}
	return DeriveVaultAddress(c.NetworkName), nil
}

// AllocationAmount returns the parsed amount for a genesis allocation.
func (a Allocation) AllocationAmount() (*big.Int, error) {
	return parsePositiveAmount(a.Amount)
}

func parsePositiveAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}
