package loanrequest

import (
	"context"
	"time"
)

const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusFulfilled = "fulfilled"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDefaulted = "defaulted"
	StatusCancelled = "cancelled"
)

type Entity struct {
	ID                 string
	BorrowerID         string
	AmountMinor        int64
	InterestRateBPS    int32
	TermDays           int32
	AmountFundedMinor  int64
	Status             string
	Purpose            string
	ExpiresAt          time.Time
	VisibilityRadiusKM int32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (e *Entity) RemainingMinor() int64 {
	return e.AmountMinor - e.AmountFundedMinor
}

type Split struct {
	ID                     string
	LoanRequestID          string
	LenderID               string
	AmountContributedMinor int64
	InterestRateBPS        int32
	PlatformFeeMinor       int64
	Status                 string
	CreatedAt              time.Time
}

type CreateInput struct {
	BorrowerID         string
	AmountMinor        int64
	InterestRateBPS    int32
	TermDays           int32
	Purpose            string
	ExpiresAt          time.Time
	VisibilityRadiusKM int32
}

type CreateSplitInput struct {
	LoanRequestID          string
	LenderID               string
	AmountContributedMinor int64
	InterestRateBPS        int32
	PlatformFeeMinor       int64
	Status                 string
}

type ListFilter struct {
	BorrowerID string
	Status     string
	OpenOnly   bool
	Limit      int32
	Offset     int32
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	// UpdateFunding sets the funded accumulator and the status computed by
	// the state machine in one statement.
	UpdateFunding(ctx context.Context, id string, fundedMinor int64, status string) error
	SetStatus(ctx context.Context, id, from, to string) error
	ListExpired(ctx context.Context, now time.Time, limit int32) ([]string, error)
	CreateSplit(ctx context.Context, in CreateSplitInput) (*Split, error)
	ListSplitsByRequest(ctx context.Context, requestID string) ([]Split, error)
	SetSplitStatusByRequest(ctx context.Context, requestID, status string) error
}
