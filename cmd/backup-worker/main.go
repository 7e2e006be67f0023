// Command backup-worker consumes snapshot-saved events and appends
// summary backup rows to a Google Sheets spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cheltuieli/internal/amqp"
	"cheltuieli/internal/backup"
	"cheltuieli/internal/config"
	"cheltuieli/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New("backup-worker", cfg.LogLevel)
	log.SetDefault(logger)

	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the backup worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer client.Close()

	writer, err := backup.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("init sheets writer: %w", err)
	}

	logger.Info("backup worker started", "queue", cfg.AMQPQueue)

	err = client.ConsumeSnapshotSaved(ctx, func(msg *amqp.SnapshotSavedMessage) error {
		if err := writer.AppendSummary(ctx, msg.SavedAt,
			msg.MonthlyRON, msg.AnnualRON, msg.ObligationRON); err != nil {
			return fmt.Errorf("append backup row: %w", err)
		}
		logger.Info("backup row appended",
			"saved_at", msg.SavedAt,
			"obligation_ron", msg.ObligationRON)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("backup worker stopped")
		return nil
	}
	return err
}
