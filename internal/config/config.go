package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// MinRefreshInterval and MaxRefreshInterval bound the auto refresh period
	MinRefreshInterval = 10 * time.Second
	MaxRefreshInterval = 300 * time.Second

	// MinHistorySize and MaxHistorySize bound the number of tracked jobs
	MinHistorySize = 10
	MaxHistorySize = 500
)

// Registry modes
const (
	RegistryModeRPC    = "rpc"
	RegistryModeMemory = "memory"
)

// Environment variables that override secrets and per-user settings
const (
	EnvWalletAddress  = "RENDER_WALLET_ADDRESS"
	EnvRPCURL         = "RENDER_RPC_URL"
	EnvDBPassword     = "RENDER_DB_PASSWORD"
	EnvRabbitPassword = "RENDER_AMQP_PASSWORD"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig          `yaml:"app"`
	Logging      LoggingConfig      `yaml:"logging"`
	Wallet       WalletConfig       `yaml:"wallet"`
	Registry     RegistryConfig     `yaml:"registry"`
	ContentStore ContentStoreConfig `yaml:"content_store"`
	Jobs         JobsConfig         `yaml:"jobs"`
	Validation   ValidationConfig   `yaml:"validation"`
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
	NoColor      bool   `yaml:"no_color"`
}

// WalletConfig holds the user's wallet settings
type WalletConfig struct {
	Address string `yaml:"address"`
}

// RegistryConfig holds the job registry endpoint
type RegistryConfig struct {
	Mode            string        `yaml:"mode"`
	RPCURL          string        `yaml:"rpc_url"`
	ContractAddress string        `yaml:"contract_address"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
}

// ContentStoreConfig holds the content store endpoints
type ContentStoreConfig struct {
	APIURL          string        `yaml:"api_url"`
	GatewayURL      string        `yaml:"gateway_url"`
	UploadTimeout   time.Duration `yaml:"upload_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	StatTimeout     time.Duration `yaml:"stat_timeout"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
}

// JobsConfig holds submission defaults and history/refresh settings
type JobsConfig struct {
	DefaultReward        float64       `yaml:"default_reward"`
	DefaultDeadlineHours int           `yaml:"default_deadline_hours"`
	MaxHistory           int           `yaml:"max_history"`
	AutoRefresh          bool          `yaml:"auto_refresh"`
	RefreshInterval      time.Duration `yaml:"refresh_interval"`
	RefreshConcurrency   int           `yaml:"refresh_concurrency"`
	DownloadDir          string        `yaml:"download_dir"`
}

// ValidationConfig holds scene validation thresholds
type ValidationConfig struct {
	MaxResolution int `yaml:"max_resolution"`
	MaxSamples    int `yaml:"max_samples"`
	MaxObjects    int `yaml:"max_objects"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Load reads and parses the configuration file, then applies defaults and env overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.SetDefaults()
	config.applyEnv()

	return &config, nil
}

// Default returns a configuration with every default applied, suitable for local use
func Default() *Config {
	cfg := &Config{}
	cfg.Jobs.AutoRefresh = true
	cfg.SetDefaults()
	cfg.applyEnv()
	return cfg
}

// SetDefaults fills zero values with defaults
func (c *Config) SetDefaults() {
	if c.App.Name == "" {
		c.App.Name = "render-client"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Registry.Mode == "" {
		c.Registry.Mode = RegistryModeRPC
	}
	if c.Registry.CallTimeout == 0 {
		c.Registry.CallTimeout = 15 * time.Second
	}
	if c.ContentStore.APIURL == "" {
		c.ContentStore.APIURL = "http://127.0.0.1:5001"
	}
	if c.ContentStore.GatewayURL == "" {
		c.ContentStore.GatewayURL = "http://127.0.0.1:8080"
	}
	if c.ContentStore.UploadTimeout == 0 {
		c.ContentStore.UploadTimeout = 30 * time.Second
	}
	if c.ContentStore.DownloadTimeout == 0 {
		c.ContentStore.DownloadTimeout = 60 * time.Second
	}
	if c.ContentStore.StatTimeout == 0 {
		c.ContentStore.StatTimeout = 10 * time.Second
	}
	if c.ContentStore.MaxUploadMB == 0 {
		c.ContentStore.MaxUploadMB = 500
	}
	if c.Jobs.DefaultReward == 0 {
		c.Jobs.DefaultReward = 10.0
	}
	if c.Jobs.DefaultDeadlineHours == 0 {
		c.Jobs.DefaultDeadlineHours = 24
	}
	if c.Jobs.MaxHistory == 0 {
		c.Jobs.MaxHistory = 50
	}
	if c.Jobs.RefreshInterval == 0 {
		c.Jobs.RefreshInterval = 30 * time.Second
	}
	if c.Jobs.RefreshConcurrency == 0 {
		c.Jobs.RefreshConcurrency = 4
	}
	if c.Jobs.DownloadDir == "" {
		c.Jobs.DownloadDir = "render_downloads"
	}
	if c.Validation.MaxResolution == 0 {
		c.Validation.MaxResolution = 4096
	}
	if c.Validation.MaxSamples == 0 {
		c.Validation.MaxSamples = 1000
	}
	if c.Validation.MaxObjects == 0 {
		c.Validation.MaxObjects = 1000
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// downloads run inside a request
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvWalletAddress); v != "" {
		c.Wallet.Address = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		c.Registry.RPCURL = v
	}
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvRabbitPassword); v != "" {
		c.RabbitMQ.Password = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Registry.Mode {
	case RegistryModeRPC:
		if c.Registry.RPCURL == "" {
			return fmt.Errorf("registry rpc_url is required")
		}
		if err := validateURL("registry rpc_url", c.Registry.RPCURL); err != nil {
			return err
		}
		if c.Registry.ContractAddress == "" {
			return fmt.Errorf("registry contract_address is required")
		}
	case RegistryModeMemory:
	default:
		return fmt.Errorf("invalid registry mode: %q (must be %q or %q)", c.Registry.Mode, RegistryModeRPC, RegistryModeMemory)
	}

	if err := validateURL("content_store api_url", c.ContentStore.APIURL); err != nil {
		return err
	}
	if err := validateURL("content_store gateway_url", c.ContentStore.GatewayURL); err != nil {
		return err
	}
	if c.ContentStore.MaxUploadMB < 0 {
		return fmt.Errorf("content_store max_upload_mb must not be negative")
	}

	if c.Jobs.DefaultReward < 0.1 || c.Jobs.DefaultReward > 10000 {
		return fmt.Errorf("invalid jobs default_reward: %v (must be between 0.1 and 10000)", c.Jobs.DefaultReward)
	}
	if c.Jobs.DefaultDeadlineHours < 1 || c.Jobs.DefaultDeadlineHours > 168 {
		return fmt.Errorf("invalid jobs default_deadline_hours: %d (must be between 1 and 168)", c.Jobs.DefaultDeadlineHours)
	}
	if c.Jobs.MaxHistory < MinHistorySize || c.Jobs.MaxHistory > MaxHistorySize {
		return fmt.Errorf("invalid jobs max_history: %d (must be between %d and %d)", c.Jobs.MaxHistory, MinHistorySize, MaxHistorySize)
	}
	if c.Jobs.RefreshInterval < MinRefreshInterval || c.Jobs.RefreshInterval > MaxRefreshInterval {
		return fmt.Errorf("invalid jobs refresh_interval: %s (must be between %s and %s)", c.Jobs.RefreshInterval, MinRefreshInterval, MaxRefreshInterval)
	}
	if c.Jobs.RefreshConcurrency <= 0 {
		return fmt.Errorf("jobs refresh_concurrency must be greater than 0")
	}

	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}
		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required")
		}
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", field, raw)
	}
	return nil
}
