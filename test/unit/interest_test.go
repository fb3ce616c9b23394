package unit

import (
	"testing"

	loandomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	requestdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
)

func TestInterestMinor(t *testing.T) {
	cases := []struct {
		principal int64
		rateBPS   int32
		want      int64
	}{
		{1000000, 1200, 120000},
		{1000000, 0, 0},
		{333, 1000, 33},
		{1, 50, 0},
	}
	for _, tc := range cases {
		got := loandomain.InterestMinor(tc.principal, tc.rateBPS)
		if got != tc.want {
			t.Fatalf("InterestMinor(%d, %d) = %d, want %d", tc.principal, tc.rateBPS, got, tc.want)
		}
	}
}

func TestFineMinorIdempotentPerDay(t *testing.T) {
	// Recomputing for the same overdue day count must give the same fine.
	first := loandomain.FineMinor(1120000, 50, 3)
	second := loandomain.FineMinor(1120000, 50, 3)
	if first != second {
		t.Fatalf("fine must be a pure function of days overdue: %d != %d", first, second)
	}
	if first != 16800 {
		t.Fatalf("unexpected fine: %d", first)
	}

	if loandomain.FineMinor(1120000, 50, 0) != 0 {
		t.Fatalf("no fine before a full day overdue")
	}
	if loandomain.FineMinor(0, 50, 10) != 0 {
		t.Fatalf("no fine on a settled loan")
	}
}

func TestFeeMinor(t *testing.T) {
	if got := requestdomain.FeeMinor(600000, 100); got != 6000 {
		t.Fatalf("FeeMinor(600000, 100) = %d, want 6000", got)
	}
	if got := requestdomain.FeeMinor(600000, 0); got != 0 {
		t.Fatalf("zero rate must produce zero fee, got %d", got)
	}
	if got := requestdomain.FeeMinor(0, 100); got != 0 {
		t.Fatalf("zero amount must produce zero fee, got %d", got)
	}
}
