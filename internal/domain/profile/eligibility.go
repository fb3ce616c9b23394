package profile

import "github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"

type Action string

const (
	ActionCreateRequest Action = "create_request"
	ActionCreateSplit   Action = "create_split"
)

// Eligibility reason codes, surfaced verbatim to callers.
const (
	ReasonBlacklisted         = "blacklisted"
	ReasonKYCNotVerified      = "kyc_not_verified"
	ReasonLimitExceeded       = "limit_exceeded"
	ReasonInsufficientBalance = "insufficient_balance"
)

// CheckEligibility decides whether a profile may create a loan request or a
// split. It is a pure check; callers run it and the resulting mutation under
// one transaction so the two cannot race. availableMinor is the actor's
// available wallet balance and only matters for create_split.
func CheckEligibility(p *Entity, action Action, amountMinor, availableMinor int64) error {
	if p.IsBlacklisted {
		return fault.New(fault.EligibilityDenied, ReasonBlacklisted)
	}
	if p.KYCStatus != KYCVerified {
		return fault.New(fault.EligibilityDenied, ReasonKYCNotVerified)
	}
	switch action {
	case ActionCreateRequest:
		if amountMinor > p.BorrowingLimitMinor {
			return fault.New(fault.EligibilityDenied, ReasonLimitExceeded)
		}
	case ActionCreateSplit:
		if availableMinor < amountMinor {
			return fault.New(fault.EligibilityDenied, ReasonInsufficientBalance)
		}
	}
	return nil
}
