package loan

import (
	"sort"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
)

// Allocation splits one payment into the portions it settles, in order:
// fines first, then interest, then principal. The three portions always sum
// to the payment amount.
type Allocation struct {
	FineMinor      int64
	InterestMinor  int64
	PrincipalMinor int64
}

// Allocate distributes amountMinor across what is still owed. fineOwed and
// interestOwed are the unpaid remainders of each bucket; whatever is left
// after both (including any rounding residue upstream) lands on principal.
func Allocate(amountMinor, fineOwedMinor, interestOwedMinor int64) (Allocation, error) {
	if amountMinor <= 0 {
		return Allocation{}, fault.New(fault.InvalidAmount, "payment amount must be positive")
	}
	if fineOwedMinor < 0 {
		fineOwedMinor = 0
	}
	if interestOwedMinor < 0 {
		interestOwedMinor = 0
	}

	remaining := amountMinor
	fine := min64(remaining, fineOwedMinor)
	remaining -= fine
	interest := min64(remaining, interestOwedMinor)
	remaining -= interest

	return Allocation{
		FineMinor:      fine,
		InterestMinor:  interest,
		PrincipalMinor: remaining,
	}, nil
}

// LenderShare is one lender's cut of a repayment.
type LenderShare struct {
	SplitID     string
	LenderID    string
	AmountMinor int64
}

// ProRataShares divides a payment across the funding splits by contribution
// fraction. Each share is floored; the leftover minor units go one at a time
// to the largest contributors so the shares always sum exactly to the
// payment amount.
func ProRataShares(amountMinor int64, shares []FundingShare) []LenderShare {
	if amountMinor <= 0 || len(shares) == 0 {
		return nil
	}

	var totalContributed int64
	for _, s := range shares {
		totalContributed += s.ContributedMinor
	}
	if totalContributed <= 0 {
		return nil
	}

	ordered := make([]FundingShare, len(shares))
	copy(ordered, shares)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ContributedMinor != ordered[j].ContributedMinor {
			return ordered[i].ContributedMinor > ordered[j].ContributedMinor
		}
		return ordered[i].SplitID < ordered[j].SplitID
	})

	out := make([]LenderShare, len(ordered))
	var distributed int64
	for i, s := range ordered {
		// floor(amount * contributed / total); products stay within int64
		// for realistic amounts, but go through big-int-safe math anyway.
		cut := mulDiv(amountMinor, s.ContributedMinor, totalContributed)
		out[i] = LenderShare{SplitID: s.SplitID, LenderID: s.LenderID, AmountMinor: cut}
		distributed += cut
	}
	for i := 0; distributed < amountMinor; i = (i + 1) % len(out) {
		out[i].AmountMinor++
		distributed++
	}
	return out
}

func mulDiv(a, b, div int64) int64 {
	hi := a / div
	lo := a % div
	return hi*b + lo*b/div
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
