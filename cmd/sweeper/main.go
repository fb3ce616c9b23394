package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/config"
	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	loandomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	requestdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
	walletdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/jobs"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
	postgresrepo "github.com/hemanthsairamjagatha/spark-lend/internal/repository/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	transactor := db.NewTransactor(pool)
	profileRepo := postgresrepo.NewProfileRepository(pool)
	walletRepo := postgresrepo.NewWalletRepository(pool)
	requestRepo := postgresrepo.NewRequestRepository(pool)
	loanRepo := postgresrepo.NewLoanRepository(pool)

	walletService := walletdomain.NewService(walletRepo, transactor, logger, metrics)
	loanService := loandomain.NewService(
		loanRepo, walletRepo, profileRepo, requestRepo,
		transactor, logger, metrics, cfg.FineRateBPS, cfg.GraceDays,
	)
	requestService := requestdomain.NewService(
		requestRepo, profileRepo, walletRepo, loanRepo,
		transactor, logger, metrics, cfg.PlatformFeeBPS, cfg.RequestExpiry,
	)

	sweeper := jobs.NewSweeper(requestService, loanService, walletService, logger, metrics, cfg.SweepBatchSize)

	runWith := func(job func(context.Context)) func() {
		return func() {
			runCtx, runCancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer runCancel()
			job(runCtx)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc("* * * * *", runWith(sweeper.RunExpiry)); err != nil {
		logger.Error("failed to schedule expiry sweep", "err", err)
		os.Exit(1)
	}
	if _, err := c.AddFunc("15 0 * * *", runWith(sweeper.RunOverdue)); err != nil {
		logger.Error("failed to schedule overdue sweep", "err", err)
		os.Exit(1)
	}
	if _, err := c.AddFunc("@hourly", runWith(sweeper.RunReconcile)); err != nil {
		logger.Error("failed to schedule reconcile sweep", "err", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("sweeper started", "batch_size", cfg.SweepBatchSize)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	logger.Info("sweeper stopped")
}
