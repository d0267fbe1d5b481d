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
	"carteira/internal/services"
	"carteira/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSnapshots(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	stores := cli.RestoreStores(ctx, logger, repo)

	var publisher services.MutationPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing in SQLite-only mode", log.FieldError, err)
	} else {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	tracker := services.NewTracker(stores, repo, publisher)

	logger.Info("Reconcile worker starting",
		"interval", cfg.ReconcileInterval,
		log.FieldOperation, log.OpStartup)

	reconcileWorker := worker.NewReconcileWorker(tracker, repo, cfg.ReconcileInterval)
	if err := reconcileWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Reconcile worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Reconcile worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
