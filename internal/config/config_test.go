package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvWalletAddress, "")
			t.Setenv(EnvRPCURL, "")

			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, "render-client", cfg.App.Name)
				assert.Equal(t, RegistryModeRPC, cfg.Registry.Mode)
				assert.Equal(t, 12*time.Second, cfg.Registry.CallTimeout)
				assert.Equal(t, 25.5, cfg.Jobs.DefaultReward)
				assert.Equal(t, 48, cfg.Jobs.DefaultDeadlineHours)
				assert.Equal(t, 100, cfg.Jobs.MaxHistory)
				assert.Equal(t, 45*time.Second, cfg.Jobs.RefreshInterval)
				assert.Equal(t, 8, cfg.Jobs.RefreshConcurrency)
				assert.Equal(t, "render_jobs_events", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "render_jobs", cfg.Database.Database)

				// defaults fill what the file leaves out
				assert.Equal(t, 10*time.Second, cfg.ContentStore.StatTimeout)
				assert.Equal(t, 500, cfg.ContentStore.MaxUploadMB)
				assert.Equal(t, 4096, cfg.Validation.MaxResolution)

				require.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvWalletAddress, "0xabc")
	t.Setenv(EnvRPCURL, "https://override.example.net")
	t.Setenv(EnvDBPassword, "s3cret")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "0xabc", cfg.Wallet.Address)
	assert.Equal(t, "https://override.example.net", cfg.Registry.RPCURL)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoad_Minimal(t *testing.T) {
	cfg, err := Load("testdata/minimal.yaml")
	require.NoError(t, err)

	assert.Equal(t, RegistryModeMemory, cfg.Registry.Mode)
	assert.Equal(t, 10.0, cfg.Jobs.DefaultReward)
	assert.Equal(t, 24, cfg.Jobs.DefaultDeadlineHours)
	assert.Equal(t, 50, cfg.Jobs.MaxHistory)
	assert.Equal(t, 30*time.Second, cfg.Jobs.RefreshInterval)
	assert.Equal(t, "render_downloads", cfg.Jobs.DownloadDir)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidInterval(t *testing.T) {
	cfg, err := Load("testdata/invalid_interval.yaml")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh_interval")
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Jobs.AutoRefresh)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
}

func validConfig() *Config {
	cfg := &Config{
		Registry: RegistryConfig{
			Mode:            RegistryModeRPC,
			RPCURL:          "https://rpc.example.net",
			ContractAddress: "0x01",
		},
	}
	cfg.SetDefaults()
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "memory registry needs no endpoint",
			modify:  func(c *Config) { c.Registry = RegistryConfig{Mode: RegistryModeMemory} },
			wantErr: false,
		},
		{
			name:      "unknown registry mode",
			modify:    func(c *Config) { c.Registry.Mode = "grpc" },
			wantErr:   true,
			errString: "invalid registry mode",
		},
		{
			name:      "missing rpc url",
			modify:    func(c *Config) { c.Registry.RPCURL = "" },
			wantErr:   true,
			errString: "rpc_url is required",
		},
		{
			name:      "relative rpc url",
			modify:    func(c *Config) { c.Registry.RPCURL = "rpc.example.net" },
			wantErr:   true,
			errString: "invalid registry rpc_url",
		},
		{
			name:      "missing contract address",
			modify:    func(c *Config) { c.Registry.ContractAddress = "" },
			wantErr:   true,
			errString: "contract_address is required",
		},
		{
			name:      "bad gateway url",
			modify:    func(c *Config) { c.ContentStore.GatewayURL = "::" },
			wantErr:   true,
			errString: "gateway_url",
		},
		{
			name:      "reward below minimum",
			modify:    func(c *Config) { c.Jobs.DefaultReward = 0.01 },
			wantErr:   true,
			errString: "default_reward",
		},
		{
			name:      "deadline above maximum",
			modify:    func(c *Config) { c.Jobs.DefaultDeadlineHours = 169 },
			wantErr:   true,
			errString: "default_deadline_hours",
		},
		{
			name:      "history too small",
			modify:    func(c *Config) { c.Jobs.MaxHistory = 5 },
			wantErr:   true,
			errString: "max_history",
		},
		{
			name:      "history too large",
			modify:    func(c *Config) { c.Jobs.MaxHistory = 501 },
			wantErr:   true,
			errString: "max_history",
		},
		{
			name:      "refresh interval too long",
			modify:    func(c *Config) { c.Jobs.RefreshInterval = 10 * time.Minute },
			wantErr:   true,
			errString: "refresh_interval",
		},
		{
			name:      "negative refresh concurrency",
			modify:    func(c *Config) { c.Jobs.RefreshConcurrency = -1 },
			wantErr:   true,
			errString: "refresh_concurrency",
		},
		{
			name:      "invalid server port",
			modify:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "enabled database without host",
			modify: func(c *Config) {
				c.Database = DatabaseConfig{Enabled: true, Port: 5432, Database: "render_jobs"}
			},
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name: "disabled database is not checked",
			modify: func(c *Config) {
				c.Database = DatabaseConfig{Enabled: false}
			},
			wantErr: false,
		},
		{
			name: "enabled rabbitmq without exchange",
			modify: func(c *Config) {
				c.RabbitMQ = RabbitMQConfig{Enabled: true, Host: "localhost", Port: 5672}
			},
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("../../configs/render-client/config.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.ContentStore.UploadTimeout)
	assert.Equal(t, 60*time.Second, cfg.ContentStore.DownloadTimeout)
	assert.Equal(t, 10*time.Second, cfg.ContentStore.StatTimeout)
	assert.Equal(t, RegistryModeMemory, cfg.Registry.Mode)
	assert.False(t, cfg.Database.Enabled)
}
