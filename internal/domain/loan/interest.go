package loan

import "github.com/shopspring/decimal"

var bpsDivisor = decimal.NewFromInt(10000)

// InterestMinor computes the simple, non-compounding interest owed over the
// full term: principal x rate. The rate applies to the term as a whole, not
// per annum, matching how requests are quoted ("12% for 30 days"). Interest
// is fixed at origination.
func InterestMinor(principalMinor int64, rateBPS int32) int64 {
	return decimal.NewFromInt(principalMinor).
		Mul(decimal.NewFromInt(int64(rateBPS))).
		Div(bpsDivisor).
		Round(0).
		IntPart()
}

// FineMinor computes the late fine accrued on an overdue loan: a simple
// daily rate on the unpaid principal+interest, per full day past due.
// Computed from days overdue each time, so re-running a sweep is idempotent.
func FineMinor(unpaidMinor int64, fineRateBPS int32, overdueDays int32) int64 {
	if unpaidMinor <= 0 || overdueDays <= 0 {
		return 0
	}
	return decimal.NewFromInt(unpaidMinor).
		Mul(decimal.NewFromInt(int64(fineRateBPS))).
		Mul(decimal.NewFromInt(int64(overdueDays))).
		Div(bpsDivisor).
		Round(0).
		IntPart()
}
