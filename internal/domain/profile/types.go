package profile

import (
	"context"
	"time"
)

const (
	KYCPending   = "pending"
	KYCSubmitted = "submitted"
	KYCVerified  = "verified"
	KYCRejected  = "rejected"
)

const (
	TierStarter  = "starter"
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

type Entity struct {
	ID                   string
	UserID               string
	Email                string
	FullName             string
	Phone                string
	PANNumber            string
	AadharNumber         string
	KYCStatus            string
	CreditTier           string
	BorrowingLimitMinor  int64
	TotalBorrowedMinor   int64
	TotalLentMinor       int64
	SuccessfulRepayments int32
	IsBlacklisted        bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ContactUpdate struct {
	FullName     string
	Phone        string
	PANNumber    string
	AadharNumber string
}

type Repository interface {
	Create(ctx context.Context, userID, email string) (*Entity, error)
	GetByUserID(ctx context.Context, userID string) (*Entity, error)
	UpdateContact(ctx context.Context, userID string, in ContactUpdate) (*Entity, error)
	SetKYCStatus(ctx context.Context, userID, status, tier string, limitMinor int64) error
	SetBlacklisted(ctx context.Context, userID string, blacklisted bool) error
	AddBorrowed(ctx context.Context, userID string, deltaMinor int64) error
	AddLent(ctx context.Context, userID string, deltaMinor int64) error
	IncrementSuccessfulRepayments(ctx context.Context, userID string) error
}

func ValidTier(tier string) bool {
	switch tier {
	case TierStarter, TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}
