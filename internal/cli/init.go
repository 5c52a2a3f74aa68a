// Package cli provides common CLI initialization utilities shared by
// cmd/finsight and cmd/insights-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/backend"
	"finsight/internal/cache"
	"finsight/internal/config"
	"finsight/internal/log"
	"finsight/internal/services"
)

// InsightsCacheNamespace prefixes insights keys in a shared Redis.
const InsightsCacheNamespace = "finsight:insights:"

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, builds the root logger for
// component and validates. It exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := cfg.Logger(component)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitBackend opens the ledger backend selected by DATA_BACKEND.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// InitInsightsCache builds the cache selected by CACHE_BACKEND. The returned
// function releases it.
func InitInsightsCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[*services.Insights], func() error) {
	c, closeFn, err := cache.New[*services.Insights](ctx, cache.Options{
		Backend:   cfg.CacheBackend,
		Size:      cfg.CacheSize,
		TTL:       cfg.CacheTTL,
		Namespace: InsightsCacheNamespace,
		Redis: cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize cache", log.FieldError, err, log.FieldBackend, cfg.CacheBackend)
		os.Exit(1)
	}
	return c, closeFn
}

// InitAMQP connects to the broker when AMQP_URL is set. A nil client means
// messaging is disabled.
func InitAMQP(cfg *config.Config, logger *log.Logger, consumerName string) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(amqp.Options{
		URL:          cfg.AMQPURL,
		Exchange:     cfg.AMQPExchange,
		Queue:        cfg.AMQPQueue,
		NotifyQueue:  cfg.AMQPNotifyQueue,
		ConsumerName: consumerName,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, log.FieldQueue, cfg.AMQPQueue)
	return client
}

// NotifyContext returns a context cancelled on SIGINT or SIGTERM, logging
// which signal arrived.
func NotifyContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
