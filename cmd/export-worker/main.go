package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/sheets/memory"
	"expensetracker/internal/worker"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "keep exported rows in memory instead of writing to Google Sheets")
	flag.Parse()

	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.MustValidate(logger, cfg)

	validate := cfg.ValidateWorker
	if *dryRun {
		validate = cfg.ValidateWorkerDryRun
	}
	if err := validate(); err != nil {
		logger.Error("Worker configuration validation failed", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	var writer sheets.ExpenseWriter
	if *dryRun {
		writer = memory.New()
		logger.Warn("Dry run, exported expenses are kept in memory only")
	} else {
		sheetsClient, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeConfiguration)
			os.Exit(1)
		}
		writer = sheetsClient
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.NewExportWorker(writer, logger).Run(gctx, client)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Export worker stopped with error", log.FieldError, err.Error(), log.FieldOperation, log.OpShutdown)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
