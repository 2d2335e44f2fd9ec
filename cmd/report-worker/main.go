package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgettracker/internal/amqp"
	"budgettracker/internal/app"
	"budgettracker/internal/config"
	"budgettracker/internal/log"
	"budgettracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentWorker, Output: os.Stdout})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "error", err)
	}

	logger.Info("Starting report-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpValidate, "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("report-worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("report-worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPResultQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewReportWorker(rt.Engine, client, logger, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming report requests",
			"queue", cfg.AMQPQueue,
			"result_queue", cfg.AMQPResultQueue,
			"prefetch", cfg.WorkerPrefetch)
		err := client.ConsumeReportRequests(gctx, cfg.WorkerPrefetch, w.HandleReportRequest)
		if errors.Is(err, context.Canceled) {
			logger.Info("Stopped consuming", log.FieldOperation, log.OpShutdown)
			return nil
		}
		return err
	})
	g.Go(func() error { return rt.Janitor.Run(gctx) })
	return g.Wait()
}
