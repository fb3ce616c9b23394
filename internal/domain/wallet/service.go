package wallet

import (
	"context"
	"log/slog"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo    Repository
	tx      Transactor
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewService(repo Repository, tx Transactor, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, tx: tx, logger: logger, metrics: metrics}
}

func (s *Service) Get(ctx context.Context, userID string) (*Entity, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) ListTransactions(ctx context.Context, userID string, limit, offset int32) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *Service) Deposit(ctx context.Context, userID string, amountMinor int64, reference string) (*Transaction, error) {
	if amountMinor <= 0 {
		return nil, fault.New(fault.InvalidAmount, "deposit amount must be positive")
	}

	var out *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByUserIDForUpdate(ctx, userID); err != nil {
			return err
		}
		posted, err := s.repo.Post(ctx, Entry{
			UserID:      userID,
			Type:        TypeDeposit,
			AmountMinor: amountMinor,
			ReferenceID: reference,
			Description: "wallet top-up",
		})
		if err != nil {
			return err
		}
		out = posted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LedgerEntries.WithLabelValues(TypeDeposit).Inc()
	return out, nil
}

func (s *Service) Withdraw(ctx context.Context, userID string, amountMinor int64, reference string) (*Transaction, error) {
	if amountMinor <= 0 {
		return nil, fault.New(fault.InvalidAmount, "withdrawal amount must be positive")
	}

	var out *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if w.AvailableMinor < amountMinor {
			return fault.New(fault.InvalidAmount, "insufficient available balance")
		}
		posted, err := s.repo.Post(ctx, Entry{
			UserID:      userID,
			Type:        TypeWithdrawal,
			AmountMinor: -amountMinor,
			ReferenceID: reference,
			Description: "wallet withdrawal",
		})
		if err != nil {
			return err
		}
		out = posted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LedgerEntries.WithLabelValues(TypeWithdrawal).Inc()
	return out, nil
}

// Reconcile replays every wallet's ledger and reports divergences. Faults
// are escalated through logs and metrics but never corrected here.
func (s *Service) Reconcile(ctx context.Context) ([]Divergence, error) {
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	divergences := make([]Divergence, 0)
	for _, userID := range userIDs {
		var div *Divergence
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			w, err := s.repo.GetByUserID(ctx, userID)
			if err != nil {
				return err
			}
			entries, err := s.repo.ListAllTransactions(ctx, userID)
			if err != nil {
				return err
			}
			div, err = CheckWallet(w, entries)
			return err
		})
		if err != nil {
			return divergences, err
		}
		if div != nil {
			s.logger.Error("wallet integrity fault",
				"user_id", div.UserID,
				"stored_available", div.StoredAvailableMinor,
				"stored_escrow", div.StoredEscrowMinor,
				"replayed_available", div.ReplayedAvailableMinor,
				"replayed_escrow", div.ReplayedEscrowMinor,
			)
			s.metrics.IntegrityFaults.Inc()
			divergences = append(divergences, *div)
		}
	}
	return divergences, nil
}
