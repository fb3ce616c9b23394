package loan

import (
	"context"
	"time"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDefaulted = "defaulted"
)

type Entity struct {
	ID              string
	LoanRequestID   string
	BorrowerID      string
	PrincipalMinor  int64
	InterestMinor   int64
	TotalMinor      int64
	RepaidMinor     int64
	FineMinor       int64
	InterestRateBPS int32
	TermDays        int32
	DueDate         time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OutstandingMinor is everything still owed: principal + interest + accrued
// fines, less what has been repaid.
func (e *Entity) OutstandingMinor() int64 {
	return e.TotalMinor + e.FineMinor - e.RepaidMinor
}

type CreateInput struct {
	LoanRequestID   string
	BorrowerID      string
	PrincipalMinor  int64
	InterestMinor   int64
	InterestRateBPS int32
	TermDays        int32
	DueDate         time.Time
}

type Repayment struct {
	ID                    string
	LoanID                string
	AmountMinor           int64
	PrincipalPortionMinor int64
	InterestPortionMinor  int64
	FinePortionMinor      int64
	PaymentMethod         string
	TransactionReference  string
	CreatedAt             time.Time
}

type RepaymentInput struct {
	LoanID      string
	AmountMinor int64
	Method      string
}

type ListFilter struct {
	BorrowerID string
	LenderID   string
	Status     string
	Limit      int32
	Offset     int32
}

// FundingShare is a lender's stake in a loan, read from the splits that
// funded the originating request. Repayment credits are distributed
// pro-rata over these.
type FundingShare struct {
	SplitID          string
	LenderID         string
	ContributedMinor int64
}

// PortionTotals aggregates the fine/interest/principal portions of all
// repayments posted so far against a loan.
type PortionTotals struct {
	FineMinor      int64
	InterestMinor  int64
	PrincipalMinor int64
}

type BorrowerSummary struct {
	ActiveLoans      int64 `json:"active_loans"`
	CompletedLoans   int64 `json:"completed_loans"`
	OutstandingMinor int64 `json:"outstanding_minor"`
	TotalRepaidMinor int64 `json:"total_repaid_minor"`
}

type LenderSummary struct {
	ActiveSplits       int64 `json:"active_splits"`
	TotalLentMinor     int64 `json:"total_lent_minor"`
	ExpectedReturn     int64 `json:"expected_return_minor"`
	RepaymentsReceived int64 `json:"repayments_received"`
}

type DashboardSummary struct {
	Borrower BorrowerSummary `json:"borrower"`
	Lender   LenderSummary   `json:"lender"`
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	AddRepayment(ctx context.Context, r Repayment) (*Repayment, error)
	ListRepayments(ctx context.Context, loanID string) ([]Repayment, error)
	GetPortionTotals(ctx context.Context, loanID string) (*PortionTotals, error)
	// ApplyRepayment bumps the repaid accumulator and sets the new status
	// in one statement.
	ApplyRepayment(ctx context.Context, loanID string, amountMinor int64, status string) error
	SetFine(ctx context.Context, loanID string, fineMinor int64) error
	SetStatus(ctx context.Context, loanID, from, to string) error
	ListFundingShares(ctx context.Context, loanID string) ([]FundingShare, error)
	ListOverdue(ctx context.Context, now time.Time, limit int32) ([]string, error)
	GetBorrowerSummary(ctx context.Context, userID string) (*BorrowerSummary, error)
	GetLenderSummary(ctx context.Context, userID string) (*LenderSummary, error)
}
