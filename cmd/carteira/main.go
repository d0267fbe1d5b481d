package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/amqp"
	"carteira/internal/cache"
	"carteira/internal/cli"
	api "carteira/internal/http"
	"carteira/internal/log"
	"carteira/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSnapshots(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	stores := cli.RestoreStores(ctx, logger, repo)

	var publisher services.MutationPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, mutation events will not be published", log.FieldError, err)
	} else {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	tracker := services.NewTracker(stores, repo, publisher)

	srv := api.NewServer(":"+cfg.Port, tracker)
	srv.Handler = log.Middleware(logger)(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	caches := cache.NewManager()
	srv.Caches(caches)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Port, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
