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

	"tally/internal/auth"
	"tally/internal/cli"
	"tally/internal/events"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/records"
	"tally/internal/token"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := cli.OpenStore(ctx, logger, cfg)
	defer st.Close()

	// Events are optional; without a broker the API runs fine and only
	// the audit trail goes dark.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Event publishing disabled", log.FieldError, err)
		} else {
			publisher = client
			defer client.Close()
		}
	}

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(st, issuer, logger.WithComponent(log.ComponentAuth))
	recordSvc := records.NewService(st, publisher, logger.WithComponent(log.ComponentRecords))

	srv := apphttp.NewServer(":"+cfg.Port, authSvc, recordSvc, cfg.WeekStartDay(), logger.WithComponent(log.ComponentHTTP))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tally server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
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
