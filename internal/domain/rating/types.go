package rating

import (
	"context"
	"time"
)

type Entity struct {
	ID         string
	LoanID     string
	FromUserID string
	ToUserID   string
	Rating     int32
	Comment    string
	CreatedAt  time.Time
}

type CreateInput struct {
	LoanID     string
	FromUserID string
	ToUserID   string
	Rating     int32
	Comment    string
}

type UserSummary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	ListForUser(ctx context.Context, toUserID string, limit, offset int32) ([]Entity, error)
	GetUserSummary(ctx context.Context, toUserID string) (*UserSummary, error)
}
