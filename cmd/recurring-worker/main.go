package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/llnuddill/account-book/internal/adapters"
	"github.com/llnuddill/account-book/internal/amqp"
	"github.com/llnuddill/account-book/internal/cli"
	"github.com/llnuddill/account-book/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Materialized entries go through the regular ledger path so the sync
	// pipeline picks them up like any hand-entered transaction.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync requests", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	ledger := services.NewLedgerService(adapters.NewSQLiteAdapter(sqliteRepo), sqliteRepo, amqpClient)
	processor := services.NewRecurringProcessor(sqliteRepo, ledger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func() {
		created, err := processor.ProcessDueTemplates(ctx, time.Now())
		if err != nil {
			logger.Error("Processing due templates failed", "error", err)
			return
		}
		if created > 0 {
			logger.Info("Materialized recurring entries", "count", created)
		}
	}

	// One pass at startup, then on the interval.
	run()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring worker shutdown complete")
			return
		case <-ticker.C:
			run()
		}
	}
}
