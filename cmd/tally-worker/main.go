package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"tally/internal/cli"
	"tally/internal/events"
	"tally/internal/log"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := cli.OpenStore(ctx, logger, cfg)
	defer st.Close()

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	auditWorker := worker.NewAuditWorker(st, logger)

	logger.Info("Starting tally-worker", "queue", cfg.AMQPQueue, "backend", cfg.DataBackend)
	if err := auditWorker.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
