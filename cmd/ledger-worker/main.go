package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llnuddill/account-book/internal/amqp"
	"github.com/llnuddill/account-book/internal/cli"
	"github.com/llnuddill/account-book/internal/services"
	gsheet "github.com/llnuddill/account-book/internal/sheets/google"
	"github.com/llnuddill/account-book/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required, the worker has nowhere to push")
		os.Exit(1)
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		LedgerSheet:   cfg.GoogleLedgerSheet,
		SettingsSheet: cfg.GoogleSettingsSheet,
		UsersSheet:    cfg.GoogleUsersSheet,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(sqliteRepo, sheetsClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Push anything that went dirty while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
		// Keep going, the poll loop retries.
	}

	processor := services.NewSyncProcessor(sqliteRepo, sheetsClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncPollInterval,
	})

	g, gctx := errgroup.WithContext(ctx)

	// AMQP consumption is optional; the poll loop alone keeps the sheet
	// converging, just slower.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeSyncRequests(gctx, func(msg *amqp.SyncRequestMessage) error {
				return syncWorker.HandleSyncRequest(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, relying on periodic sync only")
	}

	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker terminated with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
