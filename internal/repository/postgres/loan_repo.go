package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanColumns = `
id, loan_request_id, borrower_id, principal_minor, interest_minor,
total_minor, repaid_minor, fine_minor, interest_rate_bps, term_days,
due_date, status, created_at, updated_at`

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func (r *LoanRepository) scanOne(row rowScanner) (*loan.Entity, error) {
	out := &loan.Entity{}
	err := row.Scan(
		&out.ID, &out.LoanRequestID, &out.BorrowerID, &out.PrincipalMinor, &out.InterestMinor,
		&out.TotalMinor, &out.RepaidMinor, &out.FineMinor, &out.InterestRateBPS, &out.TermDays,
		&out.DueDate, &out.Status, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) Create(ctx context.Context, in loan.CreateInput) (*loan.Entity, error) {
	q := `
INSERT INTO loans (
  loan_request_id, borrower_id, principal_minor, interest_minor, total_minor,
  interest_rate_bps, term_days, due_date
) VALUES ($1,$2,$3,$4,$3+$4,$5,$6,$7)
RETURNING ` + loanColumns
	return r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q,
		in.LoanRequestID, in.BorrowerID, in.PrincipalMinor, in.InterestMinor,
		in.InterestRateBPS, in.TermDays, in.DueDate))
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	out, err := r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, id))
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "loan not found")
	}
	return out, err
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id string) (*loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	out, err := r.scanOne(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, id))
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "loan not found")
	}
	return out, err
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + loanColumns + ` FROM loans WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.BorrowerID) != "" {
		builder.WriteString(" AND borrower_id = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.BorrowerID)
		argPos++
	}
	if strings.TrimSpace(f.LenderID) != "" {
		builder.WriteString(` AND loan_request_id IN (
  SELECT loan_request_id FROM loan_splits WHERE lender_id = $`)
		builder.WriteString(strconv.Itoa(argPos))
		builder.WriteString(")")
		args = append(args, f.LenderID)
		argPos++
	}
	if strings.TrimSpace(f.Status) != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
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

	out := make([]loan.Entity, 0)
	for rows.Next() {
		item, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (r *LoanRepository) AddRepayment(ctx context.Context, in loan.Repayment) (*loan.Repayment, error) {
	q := `
INSERT INTO repayments (
  loan_id, amount_minor, principal_portion_minor, interest_portion_minor,
  fine_portion_minor, payment_method, transaction_reference
) VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, loan_id, amount_minor, principal_portion_minor, interest_portion_minor,
          fine_portion_minor, payment_method, transaction_reference, created_at
`
	return r.scanRepayment(db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q,
		in.LoanID, in.AmountMinor, in.PrincipalPortionMinor, in.InterestPortionMinor,
		in.FinePortionMinor, nullable(in.PaymentMethod), nullable(in.TransactionReference)))
}

func (r *LoanRepository) scanRepayment(row rowScanner) (*loan.Repayment, error) {
	out := &loan.Repayment{}
	var method, reference *string
	err := row.Scan(&out.ID, &out.LoanID, &out.AmountMinor, &out.PrincipalPortionMinor,
		&out.InterestPortionMinor, &out.FinePortionMinor, &method, &reference, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	if method != nil {
		out.PaymentMethod = *method
	}
	if reference != nil {
		out.TransactionReference = *reference
	}
	return out, nil
}

func (r *LoanRepository) ListRepayments(ctx context.Context, loanID string) ([]loan.Repayment, error) {
	q := `
SELECT id, loan_id, amount_minor, principal_portion_minor, interest_portion_minor,
       fine_portion_minor, payment_method, transaction_reference, created_at
FROM repayments
WHERE loan_id = $1
ORDER BY created_at ASC
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Repayment, 0)
	for rows.Next() {
		item, err := r.scanRepayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (r *LoanRepository) GetPortionTotals(ctx context.Context, loanID string) (*loan.PortionTotals, error) {
	q := `
SELECT
  COALESCE(SUM(fine_portion_minor), 0)::bigint,
  COALESCE(SUM(interest_portion_minor), 0)::bigint,
  COALESCE(SUM(principal_portion_minor), 0)::bigint
FROM repayments
WHERE loan_id = $1
`
	out := &loan.PortionTotals{}
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, loanID).
		Scan(&out.FineMinor, &out.InterestMinor, &out.PrincipalMinor)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) ApplyRepayment(ctx context.Context, loanID string, amountMinor int64, status string) error {
	q := `
UPDATE loans
SET repaid_minor = repaid_minor + $2,
    status = $3,
    updated_at = NOW()
WHERE id = $1 AND repaid_minor + $2 <= total_minor + fine_minor
`
	tag, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, loanID, amountMinor, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.InvalidAmount, "payment exceeds outstanding amount")
	}
	return nil
}

func (r *LoanRepository) SetFine(ctx context.Context, loanID string, fineMinor int64) error {
	q := `UPDATE loans SET fine_minor = $2, updated_at = NOW() WHERE id = $1`
	_, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, loanID, fineMinor)
	return err
}

func (r *LoanRepository) SetStatus(ctx context.Context, loanID, from, to string) error {
	q := `UPDATE loans SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	tag, err := db.QuerierFrom(ctx, r.pool).Exec(ctx, q, loanID, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.StateConflict, "loan is not "+from)
	}
	return nil
}

func (r *LoanRepository) ListFundingShares(ctx context.Context, loanID string) ([]loan.FundingShare, error) {
	q := `
SELECT s.id, s.lender_id, s.amount_contributed_minor
FROM loan_splits s
JOIN loans l ON l.loan_request_id = s.loan_request_id
WHERE l.id = $1
ORDER BY s.created_at ASC
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.FundingShare, 0)
	for rows.Next() {
		var item loan.FundingShare
		if err := rows.Scan(&item.SplitID, &item.LenderID, &item.ContributedMinor); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *LoanRepository) ListOverdue(ctx context.Context, now time.Time, limit int32) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
SELECT id FROM loans
WHERE status = 'active' AND due_date < $1 AND repaid_minor < total_minor + fine_minor
ORDER BY due_date ASC
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

func (r *LoanRepository) GetBorrowerSummary(ctx context.Context, userID string) (*loan.BorrowerSummary, error) {
	q := `
SELECT
  COUNT(*) FILTER (WHERE status = 'active')::bigint,
  COUNT(*) FILTER (WHERE status = 'completed')::bigint,
  COALESCE(SUM(total_minor + fine_minor - repaid_minor) FILTER (WHERE status IN ('active','defaulted')), 0)::bigint,
  COALESCE(SUM(repaid_minor), 0)::bigint
FROM loans
WHERE borrower_id = $1
`
	out := &loan.BorrowerSummary{}
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, userID).
		Scan(&out.ActiveLoans, &out.CompletedLoans, &out.OutstandingMinor, &out.TotalRepaidMinor)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) GetLenderSummary(ctx context.Context, userID string) (*loan.LenderSummary, error) {
	q := `
SELECT
  COUNT(*) FILTER (WHERE s.status = 'active')::bigint,
  COALESCE(SUM(s.amount_contributed_minor) FILTER (WHERE s.status IN ('active','completed')), 0)::bigint,
  COALESCE(SUM(
    s.amount_contributed_minor
    + (s.amount_contributed_minor * s.interest_rate_bps / 10000)
  ) FILTER (WHERE s.status = 'active'), 0)::bigint
FROM loan_splits s
WHERE s.lender_id = $1
`
	out := &loan.LenderSummary{}
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, userID).
		Scan(&out.ActiveSplits, &out.TotalLentMinor, &out.ExpectedReturn)
	if err != nil {
		return nil, err
	}

	countQ := `
SELECT COUNT(*)::bigint
FROM transactions
WHERE user_id = $1 AND transaction_type = 'repayment' AND amount_minor > 0
`
	if err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, countQ, userID).Scan(&out.RepaymentsReceived); err != nil {
		return nil, err
	}
	return out, nil
}
