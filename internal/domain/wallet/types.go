package wallet

import (
	"context"
	"time"
)

const (
	TypeDeposit       = "deposit"
	TypeWithdrawal    = "withdrawal"
	TypeEscrowHold    = "escrow_hold"
	TypeEscrowRelease = "escrow_release"
	TypeDisbursement  = "disbursement"
	TypeRepayment     = "repayment"
	TypeFee           = "fee"
	TypeFine          = "fine"
)

// Destinations for escrow_release entries. A release either returns funds to
// the lender's available balance (request cancelled) or hands them off to
// fund the borrower's disbursement (loan activated).
const (
	DestinationWallet   = "wallet"
	DestinationBorrower = "borrower"
)

type Entity struct {
	ID             string
	UserID         string
	AvailableMinor int64
	EscrowMinor    int64
	Currency       string
	UpdatedAt      time.Time
}

// EntryMeta is structured metadata stored alongside a ledger entry.
type EntryMeta struct {
	Destination string `json:"destination,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	SplitID     string `json:"split_id,omitempty"`
	LoanID      string `json:"loan_id,omitempty"`
}

// Entry is the input for one ledger posting. AmountMinor is signed: positive
// amounts credit the wallet, negative amounts debit it. escrow_hold and
// escrow_release carry positive amounts; their balance effects follow from
// the type (see Deltas).
type Entry struct {
	UserID      string
	Type        string
	AmountMinor int64
	ReferenceID string
	Description string
	Metadata    EntryMeta
}

// Transaction is one immutable ledger row. Seq orders rows globally and
// feeds the realtime notifier.
type Transaction struct {
	ID          string
	Seq         int64
	UserID      string
	Type        string
	AmountMinor int64
	ReferenceID string
	Description string
	Metadata    EntryMeta
	CreatedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, userID, currency string) (*Entity, error)
	GetByUserID(ctx context.Context, userID string) (*Entity, error)
	GetByUserIDForUpdate(ctx context.Context, userID string) (*Entity, error)
	// Post appends one ledger entry and applies its balance deltas to the
	// wallet in the same statement set. Callers must hold a transaction.
	Post(ctx context.Context, e Entry) (*Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int32) ([]Transaction, error)
	ListAllTransactions(ctx context.Context, userID string) ([]Transaction, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}
