package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestColumns = `
id, borrower_id, amount_minor, interest_rate_bps, term_days,
amount_funded_minor, status, purpose, expires_at, visibility_radius_km,
created_at, updated_at`

const splitColumns = `
id, loan_request_id, lender_id, amount_contributed_minor, interest_rate_bps,
platform_fee_minor, status, created_at`

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) scanOne(row rowScanner) (*loanrequest.Entity, error) {
	out := &loanrequest.Entity{}
	var purpose *string
	err := row.Scan(
		&out.ID, &out.BorrowerID, &out.AmountMinor, &out.InterestRateBPS, &out.TermDays,
		&out.AmountFundedMinor, &out.Status, &purpose, &out.ExpiresAt, &out.VisibilityRadiusKM,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purpose != nil {
		out.Purpose = *purpose
	}
	return out, nil
}

func (r *RequestRepository) Create(ctx context.Context, in loanrequest.CreateInput) (*loanrequest.Entity, error) {
	q := `
INSERT INTO loan_requests (
  borrower_id, amount_minor, interest_rate_bps, term_days, purpose,
  expires_at, visibility_radius_km
) VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + requestColumns
	return r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q,
		in.BorrowerID, in.AmountMinor, in.InterestRateBPS, in.TermDays,
		nullable(in.Purpose), in.ExpiresAt, in.VisibilityRadiusKM))
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*loanrequest.Entity, error) {
	q := `SELECT ` + requestColumns + ` FROM loan_requests WHERE id = $1`
	out, err := r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, id))
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "loan request not found")
	}
	return out, err
}

func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id string) (*loanrequest.Entity, error) {
	q := `SELECT ` + requestColumns + ` FROM loan_requests WHERE id = $1 FOR UPDATE`
	out, err := r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, id))
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "loan request not found")
	}
	return out, err
}

func (r *RequestRepository) List(ctx context.Context, f loanrequest.ListFilter) ([]loanrequest.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + requestColumns + ` FROM loan_requests WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.BorrowerID) != "" {
		builder.WriteString(" AND borrower_id = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.BorrowerID)
		argPos++
	}
	if strings.TrimSpace(f.Status) != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
	}
	if f.OpenOnly {
		builder.WriteString(" AND status IN ('pending','partial') AND expires_at > NOW()")
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loanrequest.Entity, 0)
	for rows.Next() {
		item, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (r *RequestRepository) UpdateFunding(ctx context.Context, id string, fundedMinor int64, status string) error {
	q := `
UPDATE loan_requests
SET amount_funded_minor = $2, status = $3, updated_at = NOW()
WHERE id = $1 AND amount_funded_minor <= $2 AND $2 <= amount_minor
`
	tag, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, id, fundedMinor, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.StateConflict, "funding update rejected")
	}
	return nil
}

func (r *RequestRepository) SetStatus(ctx context.Context, id, from, to string) error {
	q := `UPDATE loan_requests SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	tag, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.StateConflict, "request is not "+from)
	}
	return nil
}

func (r *RequestRepository) ListExpired(ctx context.Context, now time.Time, limit int32) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
SELECT id FROM loan_requests
WHERE status IN ('pending','partial') AND expires_at <= $1
ORDER BY expires_at ASC
LIMIT $2
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *RequestRepository) CreateSplit(ctx context.Context, in loanrequest.CreateSplitInput) (*loanrequest.Split, error) {
	q := `
INSERT INTO loan_splits (
  loan_request_id, lender_id, amount_contributed_minor, interest_rate_bps,
  platform_fee_minor, status
) VALUES ($1,$2,$3,$4,$5,$6)
RETURNING ` + splitColumns
	return r.scanSplit(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q,
		in.LoanRequestID, in.LenderID, in.AmountContributedMinor, in.InterestRateBPS,
		in.PlatformFeeMinor, in.Status))
}

func (r *RequestRepository) scanSplit(row rowScanner) (*loanrequest.Split, error) {
	out := &loanrequest.Split{}
	err := row.Scan(
		&out.ID, &out.LoanRequestID, &out.LenderID, &out.AmountContributedMinor,
		&out.InterestRateBPS, &out.PlatformFeeMinor, &out.Status, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RequestRepository) ListSplitsByRequest(ctx context.Context, requestID string) ([]loanrequest.Split, error) {
	q := `SELECT ` + splitColumns + ` FROM loan_splits WHERE loan_request_id = $1 ORDER BY created_at ASC`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loanrequest.Split, 0)
	for rows.Next() {
		item, err := r.scanSplit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (r *RequestRepository) SetSplitStatusByRequest(ctx context.Context, requestID, status string) error {
	q := `UPDATE loan_splits SET status = $2 WHERE loan_request_id = $1`
	_, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, requestID, status)
	return err
}
