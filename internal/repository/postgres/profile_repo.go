package postgres

import (
	"context"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `
id, user_id, email, full_name, phone, pan_number, aadhar_number,
kyc_status, credit_tier, borrowing_limit_minor, total_borrowed_minor,
total_lent_minor, successful_repayments, is_blacklisted, created_at, updated_at`

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) scanOne(row interface{ Scan(dest ...any) error }) (*profile.Entity, error) {
	out := &profile.Entity{}
	err := row.Scan(
		&out.ID, &out.UserID, &out.Email, &out.FullName, &out.Phone, &out.PANNumber, &out.AadharNumber,
		&out.KYCStatus, &out.CreditTier, &out.BorrowingLimitMinor, &out.TotalBorrowedMinor,
		&out.TotalLentMinor, &out.SuccessfulRepayments, &out.IsBlacklisted, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProfileRepository) Create(ctx context.Context, userID, email string) (*profile.Entity, error) {
	q := `INSERT INTO profiles (user_id, email) VALUES ($1, $2) RETURNING ` + profileColumns
	return r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, userID, email))
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*profile.Entity, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	out, err := r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, userID))
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "profile not found")
	}
	return out, err
}

func (r *ProfileRepository) UpdateContact(ctx context.Context, userID string, in profile.ContactUpdate) (*profile.Entity, error) {
	q := `
UPDATE profiles
SET full_name = $2, phone = $3, pan_number = $4, aadhar_number = $5, updated_at = NOW()
WHERE user_id = $1
RETURNING ` + profileColumns
	out, err := r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q,
		userID, in.FullName, in.Phone, in.PANNumber, in.AadharNumber))
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "profile not found")
	}
	return out, err
}

func (r *ProfileRepository) SetKYCStatus(ctx context.Context, userID, status, tier string, limitMinor int64) error {
	q := `
UPDATE profiles
SET kyc_status = $2, credit_tier = $3, borrowing_limit_minor = $4, updated_at = NOW()
WHERE user_id = $1
`
	tag, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, userID, status, tier, limitMinor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.NotFound, "profile not found")
	}
	return nil
}

func (r *ProfileRepository) SetBlacklisted(ctx context.Context, userID string, blacklisted bool) error {
	q := `UPDATE profiles SET is_blacklisted = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, userID, blacklisted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.NotFound, "profile not found")
	}
	return nil
}

func (r *ProfileRepository) AddBorrowed(ctx context.Context, userID string, deltaMinor int64) error {
	q := `UPDATE profiles SET total_borrowed_minor = total_borrowed_minor + $2, updated_at = NOW() WHERE user_id = $1`
	_, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, userID, deltaMinor)
	return err
}

func (r *ProfileRepository) AddLent(ctx context.Context, userID string, deltaMinor int64) error {
	q := `UPDATE profiles SET total_lent_minor = total_lent_minor + $2, updated_at = NOW() WHERE user_id = $1`
	_, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, userID, deltaMinor)
	return err
}

func (r *ProfileRepository) IncrementSuccessfulRepayments(ctx context.Context, userID string) error {
	q := `UPDATE profiles SET successful_repayments = successful_repayments + 1, updated_at = NOW() WHERE user_id = $1`
	_, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, userID)
	return err
}
