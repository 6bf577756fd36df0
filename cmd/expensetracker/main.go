package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/auth"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/reports"
	"expensetracker/internal/scheduler"
	"expensetracker/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg)

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	m := metrics.New()

	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, expense events disabled",
				log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, expense events will not be published")
	}

	if cfg.ExpenseOwnerOverride != "" {
		logger.Warn("Expense owner override active, every new expense is assigned to one user",
			log.FieldUsername, cfg.ExpenseOwnerOverride)
	}

	authService := auth.NewService(repo, cfg.SessionDuration, logger)
	expenseService := services.NewExpenseService(repo, publisher, logger).
		WithOwnerOverride(cfg.ExpenseOwnerOverride).
		WithMetrics(m)

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		SecureCookies:      cfg.SecureCookies,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Auth:       authService,
		Expenses:   expenseService,
		Categories: services.NewCategoryService(repo, logger),
		Reports:    reports.NewService(repo),
		DB:         repo,
		Metrics:    m,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeInternal)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting expense tracker", "port", cfg.Port, "db", cfg.SQLiteDBPath, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.NewSweeper(authService, m, logger).Run(gctx, scheduler.DefaultSweepSchedule)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), log.FieldOperation, log.OpShutdown)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
