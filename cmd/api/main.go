package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/auth"
	"github.com/hemanthsairamjagatha/spark-lend/internal/config"
	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	loandomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	requestdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
	profiledomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
	ratingdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/rating"
	walletdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/http/handlers"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
	postgresrepo "github.com/hemanthsairamjagatha/spark-lend/internal/repository/postgres"
	"github.com/hemanthsairamjagatha/spark-lend/internal/server"
	"github.com/hemanthsairamjagatha/spark-lend/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	transactor := db.NewTransactor(pool)
	profileRepo := postgresrepo.NewProfileRepository(pool)
	walletRepo := postgresrepo.NewWalletRepository(pool)
	requestRepo := postgresrepo.NewRequestRepository(pool)
	loanRepo := postgresrepo.NewLoanRepository(pool)
	ratingRepo := postgresrepo.NewRatingRepository(pool)

	profileService := profiledomain.NewService(profileRepo, cfg, logger)
	walletService := walletdomain.NewService(walletRepo, transactor, logger, metrics)
	loanService := loandomain.NewService(
		loanRepo, walletRepo, profileRepo, requestRepo,
		transactor, logger, metrics, cfg.FineRateBPS, cfg.GraceDays,
	)
	requestService := requestdomain.NewService(
		requestRepo, profileRepo, walletRepo, loanRepo,
		transactor, logger, metrics, cfg.PlatformFeeBPS, cfg.RequestExpiry,
	)
	ratingService := ratingdomain.NewService(ratingRepo, loanRepo)

	authRepo := db.NewAuthRepository(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	authService := auth.NewService(
		authRepo, profileRepo, walletRepo, transactor, jwtManager,
		cfg.Currency, cfg.JWTAccessTTL, cfg.JWTRefreshTTL,
	)
	cookieCfg := auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}

	hub := ws.NewHub()
	notifier := ws.NewNotifier(postgresrepo.NewRealtimeRepository(pool), hub, cfg.NotifierPoll)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:         pool,
		AuthHandler:    handlers.NewAuthHandler(authService, cookieCfg, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		ProfileHandler: handlers.NewProfileHandler(profileService),
		RequestHandler: handlers.NewRequestHandler(requestService),
		LoanHandler:    handlers.NewLoanHandler(loanService),
		WalletHandler:  handlers.NewWalletHandler(walletService),
		RatingHandler:  handlers.NewRatingHandler(ratingService),
		WSHandler:      ws.NewHandler(hub),
		JWTManager:     jwtManager,
		Registry:       registry,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := notifier.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ledger notifier stopped", "err", err)
		}
	}()

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
