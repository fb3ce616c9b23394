package loanrequest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*profile.Entity, error)
	AddBorrowed(ctx context.Context, userID string, deltaMinor int64) error
	AddLent(ctx context.Context, userID string, deltaMinor int64) error
}

type WalletRepository interface {
	GetByUserIDForUpdate(ctx context.Context, userID string) (*wallet.Entity, error)
	Post(ctx context.Context, e wallet.Entry) (*wallet.Transaction, error)
}

type LoanCreator interface {
	Create(ctx context.Context, in loan.CreateInput) (*loan.Entity, error)
}

type Service struct {
	repo     Repository
	profiles ProfileRepository
	wallets  WalletRepository
	loans    LoanCreator
	tx       Transactor
	logger   *slog.Logger
	metrics  *observability.Metrics

	feeBPS        int32
	requestExpiry time.Duration
	now           func() time.Time
}

func NewService(
	repo Repository,
	profiles ProfileRepository,
	wallets WalletRepository,
	loans LoanCreator,
	tx Transactor,
	logger *slog.Logger,
	metrics *observability.Metrics,
	feeBPS int32,
	requestExpiry time.Duration,
) *Service {
	return &Service{
		repo:          repo,
		profiles:      profiles,
		wallets:       wallets,
		loans:         loans,
		tx:            tx,
		logger:        logger,
		metrics:       metrics,
		feeBPS:        feeBPS,
		requestExpiry: requestExpiry,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type CreateRequestInput struct {
	AmountMinor        int64
	InterestRateBPS    int32
	TermDays           int32
	Purpose            string
	VisibilityRadiusKM int32
}

// Create opens a new loan request for a borrower. The eligibility check and
// the insert run under one transaction so the borrowing limit cannot be
// raced.
func (s *Service) Create(ctx context.Context, borrowerID string, in CreateRequestInput) (*Entity, error) {
	if in.AmountMinor <= 0 {
		return nil, fault.New(fault.InvalidAmount, "requested amount must be positive")
	}
	if in.InterestRateBPS < 0 {
		return nil, fault.New(fault.InvalidAmount, "interest rate must be non-negative")
	}
	if in.TermDays <= 0 {
		return nil, fault.New(fault.InvalidAmount, "term must be at least one day")
	}

	var out *Entity
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.profiles.GetByUserID(ctx, borrowerID)
		if err != nil {
			return err
		}
		if err := profile.CheckEligibility(p, profile.ActionCreateRequest, in.AmountMinor, 0); err != nil {
			return err
		}

		out, err = s.repo.Create(ctx, CreateInput{
			BorrowerID:         borrowerID,
			AmountMinor:        in.AmountMinor,
			InterestRateBPS:    in.InterestRateBPS,
			TermDays:           in.TermDays,
			Purpose:            in.Purpose,
			ExpiresAt:          s.now().Add(s.requestExpiry),
			VisibilityRadiusKM: in.VisibilityRadiusKM,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan request created",
		"request_id", out.ID, "borrower_id", borrowerID, "amount_minor", in.AmountMinor)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Entity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entity, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) ListSplits(ctx context.Context, requestID string) ([]Split, error) {
	return s.repo.ListSplitsByRequest(ctx, requestID)
}

// errExpiredUnfunded aborts the acceptance transaction when the request's
// expiry is observed under the lock. The transaction must roll back (the
// split is rejected), so the cancellation itself runs separately.
var errExpiredUnfunded = errors.New("loan request expired before funding completed")

// AcceptSplit records a lender's contribution. The request row is locked for
// the duration, so concurrent splits racing for the last capacity serialize:
// the first commit wins and later ones re-validate against the updated
// accumulator. Overshooting contributions are rejected, not clamped. If the
// split completes the funding, the same transaction activates the loan and
// disburses the escrowed funds.
func (s *Service) AcceptSplit(ctx context.Context, requestID, lenderID string, amountMinor int64) (*Split, error) {
	var out *Split
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.BorrowerID == lenderID {
			return fault.New(fault.StateConflict, "cannot fund your own request")
		}

		now := s.now()
		if !now.Before(req.ExpiresAt) && (req.Status == StatusPending || req.Status == StatusPartial) {
			return errExpiredUnfunded
		}
		if err := ValidateContribution(req, amountMinor, now); err != nil {
			return err
		}

		p, err := s.profiles.GetByUserID(ctx, lenderID)
		if err != nil {
			return err
		}
		w, err := s.wallets.GetByUserIDForUpdate(ctx, lenderID)
		if err != nil {
			return err
		}

		// The platform fee is reserved in escrow together with the
		// contribution. Activation settles the fee from that reserve, so a
		// lender who escrows their entire balance never trips the
		// non-negative balance constraint.
		fee := FeeMinor(amountMinor, s.feeBPS)
		if err := profile.CheckEligibility(p, profile.ActionCreateSplit, amountMinor+fee, w.AvailableMinor); err != nil {
			return err
		}

		newFunded := req.AmountFundedMinor + amountMinor
		status := NextFundingStatus(req.AmountMinor, newFunded)

		split, err := s.repo.CreateSplit(ctx, CreateSplitInput{
			LoanRequestID:          requestID,
			LenderID:               lenderID,
			AmountContributedMinor: amountMinor,
			InterestRateBPS:        req.InterestRateBPS,
			PlatformFeeMinor:       fee,
			Status:                 status,
		})
		if err != nil {
			return err
		}
		if err := s.repo.UpdateFunding(ctx, requestID, newFunded, status); err != nil {
			return err
		}

		if _, err := s.wallets.Post(ctx, wallet.Entry{
			UserID:      lenderID,
			Type:        wallet.TypeEscrowHold,
			AmountMinor: amountMinor + fee,
			ReferenceID: split.ID,
			Description: "escrow hold for loan request",
			Metadata:    wallet.EntryMeta{RequestID: requestID, SplitID: split.ID},
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeEscrowHold).Inc()

		if status == StatusFulfilled {
			req.AmountFundedMinor = newFunded
			req.Status = status
			if err := s.activate(ctx, req); err != nil {
				return err
			}
		}

		out = split
		return nil
	})
	if errors.Is(err, errExpiredUnfunded) {
		// Expiry observed lazily. The cancellation commits on its own so it
		// survives the rejection of this split.
		if cErr := s.cancelExpired(ctx, requestID); cErr != nil {
			s.logger.Error("failed to cancel expired request", "request_id", requestID, "err", cErr)
		}
		return nil, fault.New(fault.StateConflict, "request has expired")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.SplitsAccepted.Inc()
	s.logger.Info("split accepted",
		"request_id", requestID, "lender_id", lenderID, "amount_minor", amountMinor)
	return out, nil
}

// cancelExpired cancels an expired request in its own transaction, with the
// usual re-check under the lock in case a racing caller got there first.
func (s *Service) cancelExpired(ctx context.Context, requestID string) error {
	cancelled := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending && req.Status != StatusPartial {
			return nil
		}
		if err := s.cancelLocked(ctx, req); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return err
	}
	if cancelled {
		s.metrics.RequestsCancelled.Inc()
		s.logger.Info("expired loan request cancelled", "request_id", requestID)
	}
	return nil
}

// activate turns a fulfilled request into a live loan: the loan row, the
// escrow releases and platform fees on the lender side, and the disbursement
// credits on the borrower side, all inside the caller's transaction.
func (s *Service) activate(ctx context.Context, req *Entity) error {
	now := s.now()
	principal := req.AmountMinor
	interest := loan.InterestMinor(principal, req.InterestRateBPS)

	ln, err := s.loans.Create(ctx, loan.CreateInput{
		LoanRequestID:   req.ID,
		BorrowerID:      req.BorrowerID,
		PrincipalMinor:  principal,
		InterestMinor:   interest,
		InterestRateBPS: req.InterestRateBPS,
		TermDays:        req.TermDays,
		DueDate:         now.AddDate(0, 0, int(req.TermDays)),
	})
	if err != nil {
		return err
	}

	splits, err := s.repo.ListSplitsByRequest(ctx, req.ID)
	if err != nil {
		return err
	}

	if _, err := s.wallets.GetByUserIDForUpdate(ctx, req.BorrowerID); err != nil {
		return err
	}
	for _, split := range splits {
		if _, err := s.wallets.GetByUserIDForUpdate(ctx, split.LenderID); err != nil {
			return err
		}
		if _, err := s.wallets.Post(ctx, wallet.Entry{
			UserID:      split.LenderID,
			Type:        wallet.TypeEscrowRelease,
			AmountMinor: split.AmountContributedMinor,
			ReferenceID: ln.ID,
			Description: "escrow released to fund loan",
			Metadata:    wallet.EntryMeta{Destination: wallet.DestinationBorrower, RequestID: req.ID, SplitID: split.ID, LoanID: ln.ID},
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeEscrowRelease).Inc()

		if split.PlatformFeeMinor > 0 {
			// The fee reserve comes back to the lender's available balance
			// first, then the fee debit takes it. Available never dips below
			// zero between the two rows.
			if _, err := s.wallets.Post(ctx, wallet.Entry{
				UserID:      split.LenderID,
				Type:        wallet.TypeEscrowRelease,
				AmountMinor: split.PlatformFeeMinor,
				ReferenceID: ln.ID,
				Description: "platform fee reserve released",
				Metadata:    wallet.EntryMeta{Destination: wallet.DestinationWallet, RequestID: req.ID, SplitID: split.ID, LoanID: ln.ID},
			}); err != nil {
				return err
			}
			s.metrics.LedgerEntries.WithLabelValues(wallet.TypeEscrowRelease).Inc()

			if _, err := s.wallets.Post(ctx, wallet.Entry{
				UserID:      split.LenderID,
				Type:        wallet.TypeFee,
				AmountMinor: -split.PlatformFeeMinor,
				ReferenceID: ln.ID,
				Description: "platform fee",
				Metadata:    wallet.EntryMeta{SplitID: split.ID, LoanID: ln.ID},
			}); err != nil {
				return err
			}
			s.metrics.LedgerEntries.WithLabelValues(wallet.TypeFee).Inc()
		}

		if _, err := s.wallets.Post(ctx, wallet.Entry{
			UserID:      req.BorrowerID,
			Type:        wallet.TypeDisbursement,
			AmountMinor: split.AmountContributedMinor,
			ReferenceID: ln.ID,
			Description: "loan disbursement",
			Metadata:    wallet.EntryMeta{RequestID: req.ID, SplitID: split.ID, LoanID: ln.ID},
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeDisbursement).Inc()

		if err := s.profiles.AddLent(ctx, split.LenderID, split.AmountContributedMinor); err != nil {
			return err
		}
	}

	if err := s.profiles.AddBorrowed(ctx, req.BorrowerID, principal); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, req.ID, StatusFulfilled, StatusActive); err != nil {
		return err
	}
	if err := s.repo.SetSplitStatusByRequest(ctx, req.ID, StatusActive); err != nil {
		return err
	}

	s.metrics.LoansActivated.Inc()
	s.logger.Info("loan activated",
		"request_id", req.ID, "loan_id", ln.ID,
		"principal_minor", principal, "interest_minor", interest)
	return nil
}

// Cancel aborts a request at the borrower's instruction, releasing every
// escrowed split back to its lender.
func (s *Service) Cancel(ctx context.Context, requestID, callerID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.BorrowerID != callerID {
			return fault.New(fault.Forbidden, "not the owner of this request")
		}
		return s.cancelLocked(ctx, req)
	})
	if err != nil {
		return err
	}

	s.metrics.RequestsCancelled.Inc()
	s.logger.Info("loan request cancelled", "request_id", requestID)
	return nil
}

func (s *Service) cancelLocked(ctx context.Context, req *Entity) error {
	if err := CanCancel(req); err != nil {
		return err
	}

	splits, err := s.repo.ListSplitsByRequest(ctx, req.ID)
	if err != nil {
		return err
	}
	for _, split := range splits {
		if split.Status == StatusCancelled {
			continue
		}
		if _, err := s.wallets.GetByUserIDForUpdate(ctx, split.LenderID); err != nil {
			return err
		}
		// The hold covered the contribution plus the fee reserve; both come
		// back on cancellation.
		if _, err := s.wallets.Post(ctx, wallet.Entry{
			UserID:      split.LenderID,
			Type:        wallet.TypeEscrowRelease,
			AmountMinor: split.AmountContributedMinor + split.PlatformFeeMinor,
			ReferenceID: split.ID,
			Description: "escrow released on request cancellation",
			Metadata:    wallet.EntryMeta{Destination: wallet.DestinationWallet, RequestID: req.ID, SplitID: split.ID},
		}); err != nil {
			return err
		}
		s.metrics.LedgerEntries.WithLabelValues(wallet.TypeEscrowRelease).Inc()
	}

	if err := s.repo.SetStatus(ctx, req.ID, req.Status, StatusCancelled); err != nil {
		return err
	}
	return s.repo.SetSplitStatusByRequest(ctx, req.ID, StatusCancelled)
}

// SweepExpired cancels requests whose expiry passed before they were fully
// funded. Each request is handled in its own transaction with the row
// locked, so the sweep cannot race a concurrent split acceptance.
func (s *Service) SweepExpired(ctx context.Context, limit int32) (int, error) {
	ids, err := s.repo.ListExpired(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			req, err := s.repo.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// Re-check under the lock: a racing split may have filled or
			// already cancelled the request.
			if req.Status != StatusPending && req.Status != StatusPartial {
				return nil
			}
			if s.now().Before(req.ExpiresAt) {
				return nil
			}
			if err := s.cancelLocked(ctx, req); err != nil {
				return err
			}
			cancelled++
			return nil
		})
		if err != nil {
			return cancelled, err
		}
	}
	if cancelled > 0 {
		s.metrics.RequestsCancelled.Add(float64(cancelled))
		s.logger.Info("expired loan requests cancelled", "count", cancelled)
	}
	return cancelled, nil
}
