// Package config loads the ledgers CLI configuration from file, environment
// and flags through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/yolodolo42/ledgers/internal/network"
)

// EnvPrefix prefixes environment overrides, e.g. LEDGERS_TOKEN.
const EnvPrefix = "LEDGERS"

type SurfaceKind string

const (
	SurfaceTerminal SurfaceKind = "terminal"
	SurfaceBrowser  SurfaceKind = "browser"
)

type Config struct {
	// Token is the bearer token passed to Enable. A token saved with
	// `ledgers enable` is used when empty.
	Token    string `mapstructure:"token"`
	DataDir  string `mapstructure:"data_dir" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// DefaultMode and DefaultCurrency select the network of imparters that
	// have none saved.
	DefaultMode     string `mapstructure:"default_mode" validate:"oneof=prod test"`
	DefaultCurrency string `mapstructure:"default_currency" validate:"required"`

	Endpoints network.Endpoints `mapstructure:"endpoints"`
	Wallet    WalletConfig      `mapstructure:"wallet"`
	Popup     PopupConfig       `mapstructure:"popup"`
	Transact  TransactConfig    `mapstructure:"transact"`

	// MetricsAddr serves /metrics during `ledgers watch` when set.
	MetricsAddr string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
}

type WalletConfig struct {
	// RPCURL points at the wallet's JSON-RPC endpoint. Wallet-backed
	// imparters are unavailable without it.
	RPCURL       string        `mapstructure:"rpc_url" validate:"omitempty,url"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
}

type PopupConfig struct {
	Surface SurfaceKind `mapstructure:"surface" validate:"oneof=terminal browser"`
	// CallbackAddr is where the browser surface listens for page results.
	CallbackAddr string `mapstructure:"callback_addr" validate:"omitempty,hostname_port"`
}

// TransactConfig holds local spend rules checked before every transfer.
type TransactConfig struct {
	// MaxAmount caps one transfer per imparter tag, in the ledger's smallest unit.
	MaxAmount map[string]string `mapstructure:"max_amount" validate:"dive,keys,oneof=btc-manual eth-web3 ohledger ohledger-web3,endkeys,number"`
	AllowTo   []string          `mapstructure:"allow_to"`
	DenyTo    []string          `mapstructure:"deny_to"`
}

// DefaultDataDir is ~/.ledgers, or .ledgers when there is no home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ledgers"
	}
	return filepath.Join(home, ".ledgers")
}

// SetDefaults registers every key with its default, which also makes the
// keys visible to environment overrides.
func SetDefaults(v *viper.Viper) {
	e := network.DefaultEndpoints()

	v.SetDefault("token", "")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("log_level", "warn")
	v.SetDefault("default_mode", string(network.ModeTest))
	v.SetDefault("default_currency", network.CurrencyUSD)
	v.SetDefault("metrics_addr", "")

	v.SetDefault("endpoints.bitcoin.prod", e.Bitcoin[network.ModeProd])
	v.SetDefault("endpoints.bitcoin.test", e.Bitcoin[network.ModeTest])
	v.SetDefault("endpoints.ledger.prod", e.Ledger[network.ModeProd])
	v.SetDefault("endpoints.ledger.test", e.Ledger[network.ModeTest])
	for name, uri := range e.Ethereum {
		v.SetDefault("endpoints.ethereum."+name, uri)
	}
	v.SetDefault("endpoints.rates_host", e.RatesHost)
	v.SetDefault("endpoints.frames", e.Frames)

	v.SetDefault("wallet.rpc_url", "")
	v.SetDefault("wallet.poll_interval", 500*time.Millisecond)

	v.SetDefault("popup.surface", string(SurfaceTerminal))
	v.SetDefault("popup.callback_addr", "127.0.0.1:8787")
}

// Load reads the configuration out of v, which the caller has pointed at a
// file and environment.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.DefaultMode = strings.ToLower(cfg.DefaultMode)
	cfg.Popup.Surface = SurfaceKind(strings.ToLower(string(cfg.Popup.Surface)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultNetwork is the network applied to imparters with none saved.
func (c *Config) DefaultNetwork() network.Details {
	return network.Details{Currency: c.DefaultCurrency, Mode: c.DefaultMode}
}
