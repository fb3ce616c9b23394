package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
)

type TierLimits interface {
	TierLimitMinor(tier string) int64
}

type Service struct {
	repo   Repository
	limits TierLimits
	logger *slog.Logger
}

func NewService(repo Repository, limits TierLimits, logger *slog.Logger) *Service {
	return &Service{repo: repo, limits: limits, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID string) (*Entity, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) UpdateContact(ctx context.Context, userID string, in ContactUpdate) (*Entity, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PANNumber = strings.ToUpper(strings.TrimSpace(in.PANNumber))
	in.AadharNumber = strings.TrimSpace(in.AadharNumber)
	return s.repo.UpdateContact(ctx, userID, in)
}

// SubmitKYC moves a profile into review. Allowed from pending or rejected,
// so users can re-submit after a rejection.
func (s *Service) SubmitKYC(ctx context.Context, userID string) error {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if p.KYCStatus != KYCPending && p.KYCStatus != KYCRejected {
		return fault.New(fault.StateConflict, "kyc already "+p.KYCStatus)
	}
	if strings.TrimSpace(p.PANNumber) == "" || strings.TrimSpace(p.AadharNumber) == "" {
		return fault.New(fault.StateConflict, "pan and aadhar required before kyc submission")
	}
	return s.repo.SetKYCStatus(ctx, userID, KYCSubmitted, p.CreditTier, 0)
}

// VerifyKYC is a backoffice action. Verification assigns a credit tier and
// unlocks the tier's borrowing limit.
func (s *Service) VerifyKYC(ctx context.Context, userID, tier string) error {
	if !ValidTier(tier) {
		return fault.New(fault.StateConflict, "unknown credit tier "+tier)
	}
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if p.KYCStatus != KYCSubmitted {
		return fault.New(fault.StateConflict, "kyc not submitted")
	}
	limit := s.limits.TierLimitMinor(tier)
	s.logger.Info("kyc verified", "user_id", userID, "tier", tier, "limit_minor", limit)
	return s.repo.SetKYCStatus(ctx, userID, KYCVerified, tier, limit)
}

func (s *Service) RejectKYC(ctx context.Context, userID string) error {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if p.KYCStatus != KYCSubmitted {
		return fault.New(fault.StateConflict, "kyc not submitted")
	}
	return s.repo.SetKYCStatus(ctx, userID, KYCRejected, p.CreditTier, 0)
}

func (s *Service) Blacklist(ctx context.Context, userID string) error {
	s.logger.Warn("user blacklisted", "user_id", userID)
	return s.repo.SetBlacklisted(ctx, userID, true)
}
