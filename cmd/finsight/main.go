package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finsight/internal/cache"
	"finsight/internal/cli"
	apphttp "finsight/internal/http"
	"finsight/internal/log"
	"finsight/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, cancel := cli.NotifyContext(context.Background(), logger)
	defer cancel()

	ledgerBackend := cli.InitBackend(ctx, cfg, logger)
	defer ledgerBackend.Close()

	insightsCache, closeCache := cli.InitInsightsCache(ctx, cfg, logger)
	defer closeCache()

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(insightsCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	var (
		notifier  services.Notifier
		publisher services.SnapshotPublisher
		ready     []apphttp.ReadyCheck
	)
	// Interface fields stay nil when messaging is disabled.
	if amqpClient := cli.InitAMQP(cfg, logger, ""); amqpClient != nil {
		defer amqpClient.Close()
		notifier = services.NewAMQPNotifier(amqpClient)
		publisher = amqpClient
		ready = append(ready, func(context.Context) error { return amqpClient.Ping() })
	}
	if pinger, ok := ledgerBackend.Backend.(interface{ Ping(context.Context) error }); ok {
		ready = append(ready, pinger.Ping)
	}

	insightsService := services.NewInsightsService(ledgerBackend.Backend, insightsCache, notifier, logger)
	ledgerService := services.NewLedgerService(ledgerBackend.Backend, insightsService, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Insights: insightsService,
		Ledger:   ledgerService,
		Ready:    ready,
		Logger:   logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting finsight server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"read_only", ledgerBackend.ReadOnly,
		"cache", cfg.CacheBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
