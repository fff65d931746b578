package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finplan/internal/amqp"
	"finplan/internal/cli"
	applog "finplan/internal/log"
	"finplan/internal/services"
	"finplan/internal/sheet"
	"finplan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting finplan-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Google Sheets sink is optional.
	var sink sheet.ForecastSink
	if cfg.GoogleSpreadsheetID != "" {
		client, err := sheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	reportWorker := worker.NewReportWorker(
		services.NewForecastService(repo),
		repo,
		sink,
		cfg.ReportsDir,
		cfg.ReportMaxAge,
	)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, ctx := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		return amqpClient.ConsumeReportRequests(ctx, func(msg *amqp.ReportRequestMessage) error {
			return reportWorker.HandleReportRequest(ctx, msg)
		})
	})

	g.Go(func() error {
		return reportWorker.RunSweeper(ctx, cfg.SweepInterval)
	})

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"reports_dir", cfg.ReportsDir,
		"sweep_interval", cfg.SweepInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped")
}
