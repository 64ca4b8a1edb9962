package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUI_NETWORK", "")
	t.Setenv("SUI_RPC_URL", "")
	t.Setenv("SUI_PACKAGE_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, NetworkTestnet, cfg.Chain.Network)
	assert.Equal(t, "https://fullnode.testnet.sui.io:443", cfg.Chain.RPCURL)
	assert.Equal(t, 100, cfg.Chain.ScanWindow)
	assert.Equal(t, 15*time.Second, cfg.Chain.RequestTimeout)
	assert.Equal(t, testnetObjects.PackageID, cfg.Objects.PackageID)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_NetworkSelectsFullnode(t *testing.T) {
	t.Setenv("SUI_NETWORK", "Mainnet")
	t.Setenv("SUI_RPC_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, NetworkMainnet, cfg.Chain.Network)
	assert.Equal(t, "https://fullnode.mainnet.sui.io:443", cfg.Chain.RPCURL)
}

func TestLoad_UnknownNetwork(t *testing.T) {
	t.Setenv("SUI_NETWORK", "localnet")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUI_NETWORK")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SUI_NETWORK", "devnet")
	t.Setenv("SUI_PACKAGE_ID", "0xabc")
	t.Setenv("SUI_SCAN_WINDOW", "250")
	t.Setenv("SUI_RPC_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0xabc", cfg.Objects.PackageID)
	assert.Equal(t, 250, cfg.Chain.ScanWindow)
	assert.Equal(t, 3*time.Second, cfg.Chain.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_BadNumberFallsBackToDefault(t *testing.T) {
	t.Setenv("SUI_NETWORK", "")
	t.Setenv("SUI_SCAN_WINDOW", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Chain.ScanWindow)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "PORT"},
		{"zero scan window", func(c *Config) { c.Chain.ScanWindow = 0 }, "SUI_SCAN_WINDOW"},
		{"poll longer than finality", func(c *Config) { c.Chain.PollInterval = time.Minute }, "SUI_POLL_INTERVAL"},
		{"missing package", func(c *Config) { c.Objects.PackageID = "" }, "SUI_PACKAGE_ID"},
		{"zero timeout", func(c *Config) { c.Chain.RequestTimeout = 0 }, "SUI_RPC_TIMEOUT"},
		{"limiter without burst", func(c *Config) { c.Server.RateLimitRPS = 5 }, "HTTP_RATE_LIMIT_BURST"},
		{"limiter disabled", func(c *Config) { c.Server.RateLimitRPS = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Chain: ChainConfig{
			Network:         NetworkTestnet,
			RPCURL:          "http://localhost:9000",
			RequestTimeout:  time.Second,
			RPSLimit:        10,
			Burst:           10,
			ScanWindow:      50,
			FinalityTimeout: 10 * time.Second,
			PollInterval:    time.Second,
		},
		Objects: testnetObjects,
		Walrus:  WalrusConfig{Epochs: 1},
	}
}
