package wallet

import (
	"fmt"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
)

// Deltas resolves a ledger entry into its effect on the wallet's available
// and escrow balances. Every balance mutation in the system goes through
// this single table, which is what makes replay-based reconciliation
// possible.
func Deltas(typ string, amountMinor int64, meta EntryMeta) (availableDelta, escrowDelta int64, err error) {
	switch typ {
	case TypeDeposit, TypeDisbursement:
		if amountMinor <= 0 {
			return 0, 0, fault.New(fault.InvalidAmount, typ+" requires a positive amount")
		}
		return amountMinor, 0, nil
	case TypeWithdrawal, TypeFee, TypeFine:
		if amountMinor >= 0 {
			return 0, 0, fault.New(fault.InvalidAmount, typ+" requires a negative amount")
		}
		return amountMinor, 0, nil
	case TypeRepayment:
		if amountMinor == 0 {
			return 0, 0, fault.New(fault.InvalidAmount, "repayment amount must be non-zero")
		}
		return amountMinor, 0, nil
	case TypeEscrowHold:
		if amountMinor <= 0 {
			return 0, 0, fault.New(fault.InvalidAmount, "escrow_hold requires a positive amount")
		}
		return -amountMinor, amountMinor, nil
	case TypeEscrowRelease:
		if amountMinor <= 0 {
			return 0, 0, fault.New(fault.InvalidAmount, "escrow_release requires a positive amount")
		}
		switch meta.Destination {
		case DestinationWallet:
			return amountMinor, -amountMinor, nil
		case DestinationBorrower:
			return 0, -amountMinor, nil
		default:
			return 0, 0, fault.New(fault.InvalidAmount, "escrow_release requires a destination")
		}
	default:
		return 0, 0, fault.New(fault.InvalidAmount, "unknown transaction type "+typ)
	}
}

// Replay recomputes balances from scratch by applying every ledger entry in
// sequence order.
func Replay(entries []Transaction) (availableMinor, escrowMinor int64, err error) {
	for _, e := range entries {
		availDelta, escrowDelta, err := Deltas(e.Type, e.AmountMinor, e.Metadata)
		if err != nil {
			return 0, 0, err
		}
		availableMinor += availDelta
		escrowMinor += escrowDelta
	}
	return availableMinor, escrowMinor, nil
}

// Divergence reports a wallet whose stored balances do not match the replay
// of its ledger. It is surfaced, never silently corrected.
type Divergence struct {
	UserID                 string
	StoredAvailableMinor   int64
	StoredEscrowMinor      int64
	ReplayedAvailableMinor int64
	ReplayedEscrowMinor    int64
}

func (d Divergence) Error() string {
	return fmt.Sprintf("%s: wallet %s stored (%d, %d) != replayed (%d, %d)",
		fault.IntegrityFault, d.UserID,
		d.StoredAvailableMinor, d.StoredEscrowMinor,
		d.ReplayedAvailableMinor, d.ReplayedEscrowMinor)
}

// CheckWallet replays the ledger against stored balances and returns a
// Divergence when they disagree.
func CheckWallet(w *Entity, entries []Transaction) (*Divergence, error) {
	available, escrow, err := Replay(entries)
	if err != nil {
		return nil, err
	}
	if available == w.AvailableMinor && escrow == w.EscrowMinor {
		return nil, nil
	}
	return &Divergence{
		UserID:                 w.UserID,
		StoredAvailableMinor:   w.AvailableMinor,
		StoredEscrowMinor:      w.EscrowMinor,
		ReplayedAvailableMinor: available,
		ReplayedEscrowMinor:    escrow,
	}, nil
}
