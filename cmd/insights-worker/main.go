package main

import (
	"context"
	"errors"
	"time"

	"finsight/internal/cli"
	"finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting insights-worker", log.FieldOperation, log.OpStartup)

	ctx, cancel := cli.NotifyContext(context.Background(), logger)
	defer cancel()

	ledgerBackend := cli.InitBackend(ctx, cfg, logger)
	defer ledgerBackend.Close()

	// With CACHE_BACKEND=redis the worker warms the cache the API server reads.
	insightsCache, closeCache := cli.InitInsightsCache(ctx, cfg, logger)
	defer closeCache()

	amqpClient := cli.InitAMQP(cfg, logger, "insights-worker")
	var notifier services.Notifier
	if amqpClient != nil {
		defer amqpClient.Close()
		notifier = services.NewAMQPNotifier(amqpClient)
	}

	insightsService := services.NewInsightsService(ledgerBackend.Backend, insightsCache, notifier, logger)
	insightsWorker := worker.NewInsightsWorker(insightsService, ledgerBackend.Backend, logger)

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeSnapshotChanged(ctx, insightsWorker.HandleSnapshotChanged); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", log.FieldError, err, log.FieldOperation, log.OpConsume)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("Running periodic refresh only")
	}

	processor := worker.NewRefreshProcessor(insightsWorker, worker.RefreshProcessorConfig{
		Interval:   cfg.RefreshInterval,
		RunOnStart: true,
	}, logger)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start refresh processor", log.FieldError, err)
		return
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down worker...")
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Refresh processor did not stop cleanly", log.FieldError, err)
	}
	logger.Info("Worker shutdown complete")
}
