package unit

import (
	"errors"
	"strings"
	"testing"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	profiledomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
)

func verifiedProfile() *profiledomain.Entity {
	return &profiledomain.Entity{
		UserID:              "u1",
		KYCStatus:           profiledomain.KYCVerified,
		CreditTier:          profiledomain.TierStarter,
		BorrowingLimitMinor: 1000000,
	}
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected fault error, got %v", err)
	}
	return fe.Reason
}

func TestEligibilityBlacklisted(t *testing.T) {
	p := verifiedProfile()
	p.IsBlacklisted = true
	err := profiledomain.CheckEligibility(p, profiledomain.ActionCreateRequest, 100, 0)
	if !fault.Is(err, fault.EligibilityDenied) {
		t.Fatalf("expected eligibility_denied, got %v", err)
	}
	if reasonOf(t, err) != profiledomain.ReasonBlacklisted {
		t.Fatalf("unexpected reason: %v", err)
	}
}

func TestEligibilityKYCNotVerified(t *testing.T) {
	for _, status := range []string{profiledomain.KYCPending, profiledomain.KYCSubmitted, profiledomain.KYCRejected} {
		p := verifiedProfile()
		p.KYCStatus = status
		err := profiledomain.CheckEligibility(p, profiledomain.ActionCreateSplit, 100, 1000)
		if !fault.Is(err, fault.EligibilityDenied) || reasonOf(t, err) != profiledomain.ReasonKYCNotVerified {
			t.Fatalf("kyc %s: unexpected result %v", status, err)
		}
	}
}

func TestEligibilityBorrowingLimit(t *testing.T) {
	p := verifiedProfile()
	if err := profiledomain.CheckEligibility(p, profiledomain.ActionCreateRequest, 1000000, 0); err != nil {
		t.Fatalf("amount at the limit must pass: %v", err)
	}
	err := profiledomain.CheckEligibility(p, profiledomain.ActionCreateRequest, 1000001, 0)
	if !fault.Is(err, fault.EligibilityDenied) || reasonOf(t, err) != profiledomain.ReasonLimitExceeded {
		t.Fatalf("unexpected result %v", err)
	}
}

func TestEligibilityInsufficientBalance(t *testing.T) {
	p := verifiedProfile()
	if err := profiledomain.CheckEligibility(p, profiledomain.ActionCreateSplit, 500, 500); err != nil {
		t.Fatalf("exact balance must pass: %v", err)
	}
	err := profiledomain.CheckEligibility(p, profiledomain.ActionCreateSplit, 501, 500)
	if !fault.Is(err, fault.EligibilityDenied) {
		t.Fatalf("expected eligibility_denied, got %v", err)
	}
	if !strings.Contains(err.Error(), profiledomain.ReasonInsufficientBalance) {
		t.Fatalf("unexpected reason: %v", err)
	}
}
