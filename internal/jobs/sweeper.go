package jobs

import (
	"context"
	"log/slog"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
)

type RequestSweeper interface {
	SweepExpired(ctx context.Context, limit int32) (int, error)
}

type LoanSweeper interface {
	SweepOverdue(ctx context.Context, limit int32) (int, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context) ([]wallet.Divergence, error)
}

// Sweeper runs the periodic maintenance jobs: expiring stale requests,
// accruing fines on overdue loans, and auditing wallet balances against the
// ledger. Each job is independently scheduled by the caller.
type Sweeper struct {
	requests  RequestSweeper
	loans     LoanSweeper
	wallets   Reconciler
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int32
}

func NewSweeper(
	requests RequestSweeper,
	loans LoanSweeper,
	wallets Reconciler,
	logger *slog.Logger,
	metrics *observability.Metrics,
	batchSize int32,
) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		requests:  requests,
		loans:     loans,
		wallets:   wallets,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

func (s *Sweeper) RunExpiry(ctx context.Context) {
	n, err := s.requests.SweepExpired(ctx, s.batchSize)
	if err != nil {
		s.metrics.SweepRuns.WithLabelValues("expiry", "error").Inc()
		s.logger.Error("expiry sweep failed", "err", err)
		return
	}
	s.metrics.SweepRuns.WithLabelValues("expiry", "ok").Inc()
	if n > 0 {
		s.logger.Info("expiry sweep done", "cancelled", n)
	}
}

func (s *Sweeper) RunOverdue(ctx context.Context) {
	n, err := s.loans.SweepOverdue(ctx, s.batchSize)
	if err != nil {
		s.metrics.SweepRuns.WithLabelValues("overdue", "error").Inc()
		s.logger.Error("overdue sweep failed", "err", err)
		return
	}
	s.metrics.SweepRuns.WithLabelValues("overdue", "ok").Inc()
	if n > 0 {
		s.logger.Info("overdue sweep done", "updated", n)
	}
}

func (s *Sweeper) RunReconcile(ctx context.Context) {
	divergences, err := s.wallets.Reconcile(ctx)
	if err != nil {
		s.metrics.SweepRuns.WithLabelValues("reconcile", "error").Inc()
		s.logger.Error("reconcile sweep failed", "err", err)
		return
	}
	outcome := "ok"
	if len(divergences) > 0 {
		outcome = "divergent"
	}
	s.metrics.SweepRuns.WithLabelValues("reconcile", outcome).Inc()
}
