package unit

import (
	"testing"

	walletdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
)

func TestDeltasTable(t *testing.T) {
	cases := []struct {
		name       string
		typ        string
		amount     int64
		meta       walletdomain.EntryMeta
		wantAvail  int64
		wantEscrow int64
	}{
		{"deposit", walletdomain.TypeDeposit, 1000, walletdomain.EntryMeta{}, 1000, 0},
		{"withdrawal", walletdomain.TypeWithdrawal, -400, walletdomain.EntryMeta{}, -400, 0},
		{"hold", walletdomain.TypeEscrowHold, 600, walletdomain.EntryMeta{}, -600, 600},
		{"release to wallet", walletdomain.TypeEscrowRelease, 600, walletdomain.EntryMeta{Destination: walletdomain.DestinationWallet}, 600, -600},
		{"release to borrower", walletdomain.TypeEscrowRelease, 600, walletdomain.EntryMeta{Destination: walletdomain.DestinationBorrower}, 0, -600},
		{"disbursement", walletdomain.TypeDisbursement, 600, walletdomain.EntryMeta{}, 600, 0},
		{"repayment debit", walletdomain.TypeRepayment, -500, walletdomain.EntryMeta{}, -500, 0},
		{"repayment credit", walletdomain.TypeRepayment, 300, walletdomain.EntryMeta{}, 300, 0},
		{"fee", walletdomain.TypeFee, -6, walletdomain.EntryMeta{}, -6, 0},
		{"fine", walletdomain.TypeFine, -10, walletdomain.EntryMeta{}, -10, 0},
	}
	for _, tc := range cases {
		avail, escrow, err := walletdomain.Deltas(tc.typ, tc.amount, tc.meta)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if avail != tc.wantAvail || escrow != tc.wantEscrow {
			t.Fatalf("%s: got (%d, %d), want (%d, %d)", tc.name, avail, escrow, tc.wantAvail, tc.wantEscrow)
		}
	}
}

func TestDeltasRejectsBadSigns(t *testing.T) {
	if _, _, err := walletdomain.Deltas(walletdomain.TypeDeposit, -1, walletdomain.EntryMeta{}); err == nil {
		t.Fatalf("negative deposit must fail")
	}
	if _, _, err := walletdomain.Deltas(walletdomain.TypeFee, 5, walletdomain.EntryMeta{}); err == nil {
		t.Fatalf("positive fee must fail")
	}
	if _, _, err := walletdomain.Deltas(walletdomain.TypeEscrowRelease, 5, walletdomain.EntryMeta{}); err == nil {
		t.Fatalf("release without destination must fail")
	}
	if _, _, err := walletdomain.Deltas("bogus", 5, walletdomain.EntryMeta{}); err == nil {
		t.Fatalf("unknown type must fail")
	}
}

func TestReplayFullLifecycle(t *testing.T) {
	// Lender deposits, escrows a split plus the fee reserve, the loan
	// activates (contribution released to the borrower, reserve back to the
	// wallet and taken as the fee) and later a repayment credit lands.
	entries := []walletdomain.Transaction{
		{Type: walletdomain.TypeDeposit, AmountMinor: 1000000},
		{Type: walletdomain.TypeEscrowHold, AmountMinor: 606000},
		{Type: walletdomain.TypeEscrowRelease, AmountMinor: 600000, Metadata: walletdomain.EntryMeta{Destination: walletdomain.DestinationBorrower}},
		{Type: walletdomain.TypeEscrowRelease, AmountMinor: 6000, Metadata: walletdomain.EntryMeta{Destination: walletdomain.DestinationWallet}},
		{Type: walletdomain.TypeFee, AmountMinor: -6000},
		{Type: walletdomain.TypeRepayment, AmountMinor: 672000},
	}
	avail, escrow, err := walletdomain.Replay(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail != 1066000 || escrow != 0 {
		t.Fatalf("unexpected balances: available=%d escrow=%d", avail, escrow)
	}
}

func TestCheckWalletDivergence(t *testing.T) {
	w := &walletdomain.Entity{UserID: "u1", AvailableMinor: 500, EscrowMinor: 0}
	entries := []walletdomain.Transaction{{Type: walletdomain.TypeDeposit, AmountMinor: 400}}

	div, err := walletdomain.CheckWallet(w, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if div == nil {
		t.Fatalf("expected a divergence")
	}
	if div.StoredAvailableMinor != 500 || div.ReplayedAvailableMinor != 400 {
		t.Fatalf("unexpected divergence: %+v", div)
	}

	w.AvailableMinor = 400
	div, err = walletdomain.CheckWallet(w, entries)
	if err != nil || div != nil {
		t.Fatalf("matching wallet must not diverge: %v %v", div, err)
	}
}
