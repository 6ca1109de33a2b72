package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/render-jobs/internal/api/handler"
	"github.com/cuongbtq/render-jobs/internal/config"
	"github.com/cuongbtq/render-jobs/internal/contentstore"
	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/events"
	"github.com/cuongbtq/render-jobs/internal/history"
	"github.com/cuongbtq/render-jobs/internal/lifecycle"
	"github.com/cuongbtq/render-jobs/internal/registry"
	"github.com/cuongbtq/render-jobs/internal/storage"
	"github.com/cuongbtq/render-jobs/internal/validator"
	"github.com/cuongbtq/render-jobs/shared/logger"
	"github.com/cuongbtq/render-jobs/shared/postgresql"
	"github.com/cuongbtq/render-jobs/shared/rabbitmq"
)

// app bundles the wired collaborators of one process
type app struct {
	cfg          *config.Config
	logger       *logger.Logger
	orchestrator *lifecycle.Orchestrator
	session      *handler.Session
	dbClient     *postgresql.Client
	rabbitClient *rabbitmq.Client
}

// loadConfig reads the file named by --config and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newApp loads the configuration and wires every component
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: appLogger}

	lcfg := lifecycle.Config{
		Store:              initContentStore(&cfg.ContentStore, appLogger.WithComponent("contentstore").Logger),
		Registry:           initRegistry(&cfg.Registry, appLogger.WithComponent("registry").Logger),
		Validator:          initValidator(&cfg.Validation),
		History:            history.New(cfg.Jobs.MaxHistory),
		Logger:             appLogger.WithComponent("lifecycle").Logger,
		DownloadDir:        cfg.Jobs.DownloadDir,
		RefreshConcurrency: cfg.Jobs.RefreshConcurrency,
	}

	if cfg.Database.Enabled {
		a.dbClient, err = initPostgreSQL(ctx, &cfg.Database, appLogger.Logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		store := storage.NewStorage(a.dbClient, appLogger.WithComponent("storage").Logger)
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		lcfg.Persister = store
	}

	if cfg.RabbitMQ.Enabled {
		a.rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		lcfg.Publisher = events.NewPublisher(a.rabbitClient, appLogger.WithComponent("events").Logger)
	}

	a.orchestrator, err = lifecycle.New(lcfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	if err := a.orchestrator.Restore(ctx); err != nil {
		appLogger.Warn("Starting with empty history", slog.String("error", err.Error()))
	}

	a.session = handler.NewSession(domain.Credentials{
		WalletAddress:     cfg.Wallet.Address,
		RPCURL:            cfg.Registry.RPCURL,
		ContractAddress:   cfg.Registry.ContractAddress,
		ContentAPIURL:     cfg.ContentStore.APIURL,
		ContentGatewayURL: cfg.ContentStore.GatewayURL,
	})

	return a, nil
}

// Close releases every connection the app opened
func (a *app) Close() {
	if a.rabbitClient != nil {
		a.rabbitClient.Close()
	}
	if a.dbClient != nil {
		a.dbClient.Close()
	}
	a.logger.Close()
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		NoColor:      cfg.NoColor,
	})
}

func initContentStore(cfg *config.ContentStoreConfig, logger *slog.Logger) *contentstore.IPFSClient {
	return contentstore.NewIPFSClient(&contentstore.Config{
		APIURL:          cfg.APIURL,
		GatewayURL:      cfg.GatewayURL,
		UploadTimeout:   cfg.UploadTimeout,
		DownloadTimeout: cfg.DownloadTimeout,
		StatTimeout:     cfg.StatTimeout,
		MaxUploadBytes:  int64(cfg.MaxUploadMB) * 1024 * 1024,
	}, logger)
}

func initRegistry(cfg *config.RegistryConfig, logger *slog.Logger) registry.Registry {
	if cfg.Mode == config.RegistryModeMemory {
		logger.Warn("Using in-memory job registry, jobs are not registered on chain")
		return registry.NewMemory()
	}
	return registry.NewRPCClient(&registry.RPCConfig{
		RPCURL:          cfg.RPCURL,
		ContractAddress: cfg.ContractAddress,
		CallTimeout:     cfg.CallTimeout,
	}, logger)
}

func initValidator(cfg *config.ValidationConfig) *validator.Validator {
	return validator.New(validator.Config{
		MaxResolution: cfg.MaxResolution,
		MaxSamples:    cfg.MaxSamples,
		MaxObjects:    cfg.MaxObjects,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(ctx, &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}
