package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultNetwork   = "holesky"
	defaultAlgorithm = "fastest"
	defaultTimeout   = 180

	configFile    = "config.json"
	walletsFile   = "wallets.json"
	contractsFile = "contracts.json"
	rotationFile  = "rpc-rotation.json"
)

// ErrUnknownKey is returned by Set for keys that cannot be set from the CLI.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists the settable keys in display order.
var Keys = []string{"default_network", "default_wallet", "rpc_algorithm", "gas_limit", "confirm_timeout"}

var algorithms = []string{"fastest", "round-robin", "failover"}

// Load reads config from dir (or creates defaults). dir defaults to ~/.tokendesk.
// Values from the file are overridden by TOKENDESK_* environment variables,
// e.g. TOKENDESK_DEFAULT_NETWORK=sepolia.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".tokendesk")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	path := filepath.Join(dir, configFile)
	exists := false
	if _, err := os.Stat(path); err == nil {
		exists = true
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v, err := newViper(path, exists, true)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if err := cfg.recordOverrides(path, exists); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(path string, exists, withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("json")
	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
	}
	v.SetDefault("default_network", defaultNetwork)
	v.SetDefault("default_wallet", "")
	v.SetDefault("rpc_algorithm", defaultAlgorithm)
	v.SetDefault("gas_limit", SafeGasLimit)
	v.SetDefault("confirm_timeout", defaultTimeout)

	if exists {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	return v, nil
}

// recordOverrides remembers, for each key an environment variable changed,
// the file value and the environment value, so Save writes back the former.
func (c *Config) recordOverrides(path string, exists bool) error {
	var fileCfg *Config
	for _, key := range Keys {
		if _, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key)); !ok {
			continue
		}
		if fileCfg == nil {
			fv, err := newViper(path, exists, false)
			if err != nil {
				return err
			}
			fileCfg = &Config{}
			if err := fv.Unmarshal(fileCfg); err != nil {
				return fmt.Errorf("decoding config: %w", err)
			}
		}
		fileVal, _ := fileCfg.Get(key)
		envVal, _ := c.Get(key)
		if fileVal == envVal {
			continue
		}
		if c.overrides == nil {
			c.overrides = make(map[string]override)
		}
		c.overrides[key] = override{file: fileVal, env: envVal}
	}
	return nil
}

// Save writes the config to disk. Values that still come from a TOKENDESK_*
// environment variable are written as they were in the file.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	out := *c
	for key, o := range c.overrides {
		if cur, _ := c.Get(key); cur == o.env {
			_ = out.set(key, o.file)
		}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Set updates a single key from its string form. A value set here is saved
// even when an environment variable overrides the same key.
func (c *Config) Set(key, value string) error {
	if err := c.set(key, value); err != nil {
		return err
	}
	delete(c.overrides, key)
	return nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "default_network":
		c.DefaultNetwork = strings.ToLower(value)
	case "default_wallet":
		c.DefaultWallet = value
	case "rpc_algorithm":
		if !slices.Contains(algorithms, value) {
			return fmt.Errorf("rpc_algorithm must be one of %s", strings.Join(algorithms, ", "))
		}
		c.RPCAlgorithm = value
	case "gas_limit":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("gas_limit: %w", err)
		}
		c.GasLimit = n
	case "confirm_timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("confirm_timeout must be a positive number of seconds")
		}
		c.ConfirmTimeout = n
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// Get returns the string form of a settable key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "default_network":
		return c.DefaultNetwork, nil
	case "default_wallet":
		return c.DefaultWallet, nil
	case "rpc_algorithm":
		return c.RPCAlgorithm, nil
	case "gas_limit":
		return strconv.FormatUint(c.GasLimit, 10), nil
	case "confirm_timeout":
		return strconv.Itoa(c.ConfirmTimeout), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Timeout returns the confirmation wait as a duration.
func (c *Config) Timeout() time.Duration {
	if c.ConfirmTimeout <= 0 {
		return DefaultConfirmTimeout
	}
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallets.json location.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// ContractsPath is the contracts.json location.
func (c *Config) ContractsPath() string {
	return filepath.Join(c.configDir, contractsFile)
}

// RotationPath is where round-robin RPC turns are kept.
func (c *Config) RotationPath() string {
	return filepath.Join(c.configDir, rotationFile)
}
