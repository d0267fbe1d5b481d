package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"carteira/internal/amqp"
	"carteira/internal/cli"
	"carteira/internal/log"
	"carteira/internal/sheets"
	"carteira/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)

	if !cfg.SheetsEnabled() {
		logger.Error("Sheets export is not configured, set SHEETS_SPREADSHEET_ID and credentials")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSnapshots(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exporter, err := sheets.NewExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create sheets exporter", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(repo, exporter, cfg.ExportBatchSize)

	logger.Info("Export worker starting",
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.SheetsSpreadsheetID,
		log.FieldOperation, log.OpStartup)

	err = client.ConsumeMutations(ctx, func(msg *amqp.MutationMessage) error {
		return exportWorker.HandleMutation(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Export worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
