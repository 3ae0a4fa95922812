package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/ledgers/internal/network"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "test", cfg.DefaultMode)
	assert.Equal(t, network.Details{Currency: "USD", Mode: "test"}, cfg.DefaultNetwork())
	assert.Equal(t, 500*time.Millisecond, cfg.Wallet.PollInterval)
	assert.Equal(t, SurfaceTerminal, cfg.Popup.Surface)
	assert.Equal(t, network.DefaultEndpoints(), cfg.Endpoints)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token: abc
log_level: debug
default_mode: PROD
endpoints:
  ledger:
    test: http://localhost:8080/v1
wallet:
  rpc_url: http://127.0.0.1:8545
  poll_interval: 2s
popup:
  surface: browser
`), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, "prod", cfg.DefaultMode)
	assert.Equal(t, "http://localhost:8080/v1", cfg.Endpoints.Ledger[network.ModeTest])
	assert.Equal(t, "https://ledger.overhide.io/v1", cfg.Endpoints.Ledger[network.ModeProd])
	assert.Equal(t, "http://127.0.0.1:8545", cfg.Wallet.RPCURL)
	assert.Equal(t, 2*time.Second, cfg.Wallet.PollInterval)
	assert.Equal(t, SurfaceBrowser, cfg.Popup.Surface)
}

func TestLoad_TransactRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transact:
  max_amount:
    ohledger: 500
    eth-web3: "1000000000000000000"
  deny_to:
    - "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
`), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "500", cfg.Transact.MaxAmount["ohledger"])
	assert.Equal(t, "1000000000000000000", cfg.Transact.MaxAmount["eth-web3"])
	assert.Len(t, cfg.Transact.DenyTo, 1)

	v = viper.New()
	v.Set("transact.max_amount", map[string]any{"dogecoin": "1"})
	_, err = Load(v)
	assert.ErrorContains(t, err, "invalid config")

	v = viper.New()
	v.Set("transact.max_amount", map[string]any{"ohledger": "lots"})
	_, err = Load(v)
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("LEDGERS_TOKEN", "from-env")
	t.Setenv("LEDGERS_POPUP_SURFACE", "browser")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, SurfaceBrowser, cfg.Popup.Surface)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"log_level", "loud"},
		{"default_mode", "staging"},
		{"popup.surface", "carrier-pigeon"},
		{"wallet.rpc_url", "not a url"},
		{"wallet.poll_interval", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}
