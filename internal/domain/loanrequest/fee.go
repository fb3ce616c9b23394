package loanrequest

import "github.com/shopspring/decimal"

// FeeMinor is the platform fee charged to a lender on a split, a flat cut of
// the contributed amount.
func FeeMinor(amountMinor int64, feeBPS int32) int64 {
	if amountMinor <= 0 || feeBPS <= 0 {
		return 0
	}
	return decimal.NewFromInt(amountMinor).
		Mul(decimal.NewFromInt(int64(feeBPS))).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}
