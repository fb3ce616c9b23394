package postgres

import (
	"context"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/rating"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingRepository struct {
	pool *pgxpool.Pool
}

func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

func (r *RatingRepository) Create(ctx context.Context, in rating.CreateInput) (*rating.Entity, error) {
	q := `
INSERT INTO ratings (loan_id, from_user_id, to_user_id, rating, comment)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, loan_id, from_user_id, to_user_id, rating, comment, created_at
`
	out := &rating.Entity{}
	var comment *string
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q,
		in.LoanID, in.FromUserID, in.ToUserID, in.Rating, nullable(in.Comment)).
		Scan(&out.ID, &out.LoanID, &out.FromUserID, &out.ToUserID, &out.Rating, &comment, &out.CreatedAt)
	if db.IsUniqueViolation(err) {
		return nil, fault.New(fault.StateConflict, "loan already rated by this user")
	}
	if err != nil {
		return nil, err
	}
	if comment != nil {
		out.Comment = *comment
	}
	return out, nil
}

func (r *RatingRepository) ListForUser(ctx context.Context, toUserID string, limit, offset int32) ([]rating.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `
SELECT id, loan_id, from_user_id, to_user_id, rating, comment, created_at
FROM ratings
WHERE to_user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, toUserID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rating.Entity, 0)
	for rows.Next() {
		var item rating.Entity
		var comment *string
		if err := rows.Scan(&item.ID, &item.LoanID, &item.FromUserID, &item.ToUserID,
			&item.Rating, &comment, &item.CreatedAt); err != nil {
			return nil, err
		}
		if comment != nil {
			item.Comment = *comment
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *RatingRepository) GetUserSummary(ctx context.Context, toUserID string) (*rating.UserSummary, error) {
	q := `
SELECT COUNT(*)::bigint, COALESCE(AVG(rating), 0)::float8
FROM ratings
WHERE to_user_id = $1
`
	out := &rating.UserSummary{}
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, toUserID).Scan(&out.Count, &out.Average)
	if err != nil {
		return nil, err
	}
	return out, nil
}
