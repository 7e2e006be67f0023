// Command cheltuieli runs the finance tracker API server.
package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cheltuieli/internal/amqp"
	"cheltuieli/internal/config"
	"cheltuieli/internal/http"
	"cheltuieli/internal/log"
	"cheltuieli/internal/rates"
	"cheltuieli/internal/store"
	"cheltuieli/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New("cheltuieli", cfg.LogLevel)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.StateStore
	switch cfg.DataBackend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SQLiteDBPath, logger)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		st = s
		logger.Info("using sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		st = store.NewMemoryStore()
		logger.Info("using in-memory backend")
	}
	defer st.Close()

	provider := rates.NewProvider(cfg.RatesFeedURL)
	if err := provider.Refresh(ctx); err != nil {
		logger.Warn("initial rates refresh failed, using defaults", "error", err)
	}

	var events tracker.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect AMQP: %w", err)
		}
		defer client.Close()
		events = client
		logger.Info("amqp publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	tr, err := tracker.New(ctx, st, provider, events, logger)
	if err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}

	server := http.NewServer(cfg.Addr(), tr, provider, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.RatesRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := provider.Refresh(ctx); err != nil {
					logger.Warn("rates refresh failed, keeping last known", "error", err)
					continue
				}
				tr.Refresh(ctx)
			}
		}
	})

	return g.Wait()
}
