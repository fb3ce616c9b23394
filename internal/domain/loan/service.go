package loan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type LedgerRepository interface {
	Post(ctx context.Context, e wallet.Entry) (*wallet.Transaction, error)
	GetByUserIDForUpdate(ctx context.Context, userID string) (*wallet.Entity, error)
}

type ProfileRepository interface {
	IncrementSuccessfulRepayments(ctx context.Context, userID string) error
}

// RequestStatusSetter flips the originating loan request when its derived
// loan reaches a terminal state.
type RequestStatusSetter interface {
	SetStatus(ctx context.Context, requestID, from, to string) error
	SetSplitStatusByRequest(ctx context.Context, requestID, status string) error
}

type Service struct {
	repo        Repository
	ledger      LedgerRepository
	profiles    ProfileRepository
	requests    RequestStatusSetter
	tx          Transactor
	logger      *slog.Logger
	metrics     *observability.Metrics
	fineRateBPS int32
	graceDays   int32
	now         func() time.Time
}

func NewService(
	repo Repository,
	ledger LedgerRepository,
	profiles ProfileRepository,
	requests RequestStatusSetter,
	tx Transactor,
	logger *slog.Logger,
	metrics *observability.Metrics,
	fineRateBPS, graceDays int32,
) *Service {
	return &Service{
		repo:        repo,
		ledger:      ledger,
		profiles:    profiles,
		requests:    requests,
		tx:          tx,
		logger:      logger,
		metrics:     metrics,
		fineRateBPS: fineRateBPS,
		graceDays:   graceDays,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, loanID string) (*Entity, error) {
	return s.repo.GetByID(ctx, loanID)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entity, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) ListRepayments(ctx context.Context, loanID string) ([]Repayment, error) {
	return s.repo.ListRepayments(ctx, loanID)
}

func (s *Service) Dashboard(ctx context.Context, userID string) (*DashboardSummary, error) {
	borrower, err := s.repo.GetBorrowerSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	lender, err := s.repo.GetLenderSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{Borrower: *borrower, Lender: *lender}, nil
}

// PostRepayment applies one payment to a loan: allocation across
// fine/interest/principal, the append-only repayment row, the repaid
// accumulator bump, the borrower debit and the pro-rata lender credits, all
// in one transaction.
func (s *Service) PostRepayment(ctx context.Context, borrowerID string, in RepaymentInput) (*Repayment, error) {
	if strings.TrimSpace(in.LoanID) == "" {
		return nil, fault.New(fault.NotFound, "missing loan id")
	}
	if in.AmountMinor <= 0 {
		return nil, fault.New(fault.InvalidAmount, "payment amount must be positive")
	}

	var out *Repayment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ln, err := s.repo.GetByIDForUpdate(ctx, in.LoanID)
		if err != nil {
			return err
		}
		if borrowerID != "" && ln.BorrowerID != borrowerID {
			return fault.New(fault.Forbidden, "not the borrower of this loan")
		}
		if ln.Status != StatusActive && ln.Status != StatusDefaulted {
			return fault.New(fault.StateConflict, "loan is "+ln.Status)
		}

		outstanding := ln.OutstandingMinor()
		if outstanding <= 0 {
			return fault.New(fault.InvalidAmount, "loan already settled")
		}
		if in.AmountMinor > outstanding {
			return fault.New(fault.InvalidAmount, "payment exceeds outstanding amount")
		}

		paid, err := s.repo.GetPortionTotals(ctx, ln.ID)
		if err != nil {
			return err
		}
		alloc, err := Allocate(in.AmountMinor, ln.FineMinor-paid.FineMinor, ln.InterestMinor-paid.InterestMinor)
		if err != nil {
			return err
		}

		reference := uuid.NewString()
		rep, err := s.repo.AddRepayment(ctx, Repayment{
			LoanID:                ln.ID,
			AmountMinor:           in.AmountMinor,
			PrincipalPortionMinor: alloc.PrincipalMinor,
			InterestPortionMinor:  alloc.InterestMinor,
			FinePortionMinor:      alloc.FineMinor,
			PaymentMethod:         strings.TrimSpace(in.Method),
			TransactionReference:  reference,
		})
		if err != nil {
			return err
		}

		// A defaulted loan still accepts payments down to zero but stays
		// defaulted; only an active loan completes and cascades to the
		// request.
		settled := in.AmountMinor == outstanding
		completes := settled && ln.Status == StatusActive
		status := ln.Status
		if completes {
			status = StatusCompleted
		}
		if err := s.repo.ApplyRepayment(ctx, ln.ID, in.AmountMinor, status); err != nil {
			return err
		}

		if err := s.postRepaymentLedger(ctx, ln, rep, alloc); err != nil {
			return err
		}

		if completes {
			if err := s.requests.SetStatus(ctx, ln.LoanRequestID, "active", StatusCompleted); err != nil {
				return err
			}
			if err := s.requests.SetSplitStatusByRequest(ctx, ln.LoanRequestID, StatusCompleted); err != nil {
				return err
			}
			if err := s.profiles.IncrementSuccessfulRepayments(ctx, ln.BorrowerID); err != nil {
				return err
			}
		}

		out = rep
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RepaymentsPosted.Inc()
	s.logger.Info("repayment posted",
		"loan_id", in.LoanID,
		"amount_minor", in.AmountMinor,
		"fine_minor", out.FinePortionMinor,
		"interest_minor", out.InterestPortionMinor,
		"principal_minor", out.PrincipalPortionMinor,
	)
	return out, nil
}

func (s *Service) postRepaymentLedger(ctx context.Context, ln *Entity, rep *Repayment, alloc Allocation) error {
	if _, err := s.ledger.GetByUserIDForUpdate(ctx, ln.BorrowerID); err != nil {
		return err
	}

	meta := wallet.EntryMeta{LoanID: ln.ID}
	debit := alloc.PrincipalMinor + alloc.InterestMinor
	if debit > 0 {
		if _, err := s.ledger.Post(ctx, wallet.Entry{
			UserID:      ln.BorrowerID,
			Type:        wallet.TypeRepayment,
			AmountMinor: -debit,
			ReferenceID: rep.ID,
			Description: "loan repayment",
			Metadata:    meta,
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeRepayment).Inc()
	}
	if alloc.FineMinor > 0 {
		if _, err := s.ledger.Post(ctx, wallet.Entry{
			UserID:      ln.BorrowerID,
			Type:        wallet.TypeFine,
			AmountMinor: -alloc.FineMinor,
			ReferenceID: rep.ID,
			Description: "late payment fine",
			Metadata:    meta,
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeFine).Inc()
	}

	shares, err := s.repo.ListFundingShares(ctx, ln.ID)
	if err != nil {
		return err
	}
	for _, share := range ProRataShares(rep.AmountMinor, shares) {
		if share.AmountMinor == 0 {
			continue
		}
		if _, err := s.ledger.GetByUserIDForUpdate(ctx, share.LenderID); err != nil {
			return err
		}
		if _, err := s.ledger.Post(ctx, wallet.Entry{
			UserID:      share.LenderID,
			Type:        wallet.TypeRepayment,
			AmountMinor: share.AmountMinor,
			ReferenceID: rep.ID,
			Description: "repayment received",
			Metadata:    wallet.EntryMeta{LoanID: ln.ID, SplitID: share.SplitID},
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeRepayment).Inc()
	}
	return nil
}

// SweepOverdue accrues fines on loans past due and marks them defaulted once
// the grace period lapses. Fines are recomputed from days overdue, so the
// sweep can run any number of times a day without double-charging.
func (s *Service) SweepOverdue(ctx context.Context, limit int32) (int, error) {
	now := s.now()
	ids, err := s.repo.ListOverdue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	touched := 0
	for _, id := range ids {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			ln, err := s.repo.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// Settled means principal, interest and any accrued fine are all
			// covered; a paid-down total with a fine outstanding still sweeps.
			if ln.Status != StatusActive || !now.After(ln.DueDate) || ln.RepaidMinor >= ln.TotalMinor+ln.FineMinor {
				return nil
			}

			overdueDays := int32(now.Sub(ln.DueDate).Hours() / 24)
			unpaid := ln.TotalMinor - ln.RepaidMinor
			fine := FineMinor(unpaid, s.fineRateBPS, overdueDays)
			if fine > ln.FineMinor {
				if err := s.repo.SetFine(ctx, ln.ID, fine); err != nil {
					return err
				}
			}

			if overdueDays > s.graceDays {
				if err := s.repo.SetStatus(ctx, ln.ID, StatusActive, StatusDefaulted); err != nil {
					return err
				}
				if err := s.requests.SetStatus(ctx, ln.LoanRequestID, "active", StatusDefaulted); err != nil {
					return err
				}
				if err := s.requests.SetSplitStatusByRequest(ctx, ln.LoanRequestID, StatusDefaulted); err != nil {
					return err
				}
				s.logger.Warn("loan defaulted", "loan_id", ln.ID, "overdue_days", overdueDays)
			}
			touched++
			return nil
		})
		if err != nil {
			return touched, err
		}
	}
	return touched, nil
}
