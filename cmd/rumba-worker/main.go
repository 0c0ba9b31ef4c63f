package main

import (
	"context"
	"errors"
	"os"
	"time"

	"rumba/internal/amqp"
	"rumba/internal/cli"
	"rumba/internal/config"
	"rumba/internal/log"
	"rumba/internal/services"
	gsheet "rumba/internal/sheets/google"
	"rumba/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting rumba-worker", log.FieldOperation, log.OpStartup)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	// SQLite holds the submissions recorded by the web server.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:    cfg.GoogleSpreadsheetID,
		SubmissionsSheet: cfg.GoogleSubmissionsSheet,
		CredentialsJSON:  cfg.GoogleServiceAccountJSON,
		CredentialsFile:  cfg.GoogleServiceAccountFile,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewSyncProcessor(repo, sheetsClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	}, logger)
	syncWorker := worker.NewSyncWorker(processor, cfg.SyncBatchSize, logger)

	// Catch up on submissions whose messages were lost while we were down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	// Polling picks up anything the queue misses.
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err)
		os.Exit(1)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeSubmissionRecorded(ctx, syncWorker.HandleSubmissionRecorded)
	}()

	select {
	case <-ctx.Done():
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}

	logger.Info("Shutting down worker...")
	cli.RunCleanup(30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Sync processor did not stop cleanly", log.FieldError, err)
		}
	})
	logger.Info("Worker shutdown complete")
}
