package rating

import (
	"context"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
)

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (*loan.Entity, error)
	ListFundingShares(ctx context.Context, loanID string) ([]loan.FundingShare, error)
}

type Service struct {
	repo  Repository
	loans LoanRepository
}

func NewService(repo Repository, loans LoanRepository) *Service {
	return &Service{repo: repo, loans: loans}
}

// Create records feedback between two participants of a completed loan.
// Ratings are append-only; a second rating from the same user on the same
// loan is a state_conflict (unique index on loan_id, from_user_id).
func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fault.New(fault.InvalidAmount, "rating must be between 1 and 5")
	}
	if in.FromUserID == in.ToUserID {
		return nil, fault.New(fault.StateConflict, "cannot rate yourself")
	}

	ln, err := s.loans.GetByID(ctx, in.LoanID)
	if err != nil {
		return nil, err
	}
	if ln.Status != loan.StatusCompleted {
		return nil, fault.New(fault.StateConflict, "loan is not completed")
	}

	shares, err := s.loans.ListFundingShares(ctx, in.LoanID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(ln, shares, in.FromUserID) || !isParticipant(ln, shares, in.ToUserID) {
		return nil, fault.New(fault.Forbidden, "both users must be participants of the loan")
	}

	return s.repo.Create(ctx, in)
}

func (s *Service) ListForUser(ctx context.Context, toUserID string, limit, offset int32) ([]Entity, error) {
	return s.repo.ListForUser(ctx, toUserID, limit, offset)
}

func (s *Service) UserSummary(ctx context.Context, toUserID string) (*UserSummary, error) {
	return s.repo.GetUserSummary(ctx, toUserID)
}

func isParticipant(ln *loan.Entity, shares []loan.FundingShare, userID string) bool {
	if ln.BorrowerID == userID {
		return true
	}
	for _, s := range shares {
		if s.LenderID == userID {
			return true
		}
	}
	return false
}
