package postgres

import (
	"context"
	"encoding/json"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) Create(ctx context.Context, userID, currency string) (*wallet.Entity, error) {
	q := `
INSERT INTO wallets (user_id, currency)
VALUES ($1, $2)
RETURNING id, user_id, available_minor, escrow_minor, currency, updated_at
`
	out := &wallet.Entity{}
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, userID, currency).
		Scan(&out.ID, &out.UserID, &out.AvailableMinor, &out.EscrowMinor, &out.Currency, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*wallet.Entity, error) {
	q := `SELECT id, user_id, available_minor, escrow_minor, currency, updated_at FROM wallets WHERE user_id = $1`
	return r.getOne(ctx, q, userID)
}

func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*wallet.Entity, error) {
	q := `SELECT id, user_id, available_minor, escrow_minor, currency, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.getOne(ctx, q, userID)
}

func (r *WalletRepository) getOne(ctx context.Context, q, userID string) (*wallet.Entity, error) {
	out := &wallet.Entity{}
	err := db.QuerierFrom(ctx, r.pool).QueryRow(ctx, q, userID).
		Scan(&out.ID, &out.UserID, &out.AvailableMinor, &out.EscrowMinor, &out.Currency, &out.UpdatedAt)
	if db.IsNotFound(err) {
		return nil, fault.New(fault.NotFound, "wallet not found")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Post appends a ledger row and applies its balance deltas to the wallet.
// Both statements run on the caller's transaction; the wallet row's check
// constraints reject any posting that would drive a balance negative.
func (r *WalletRepository) Post(ctx context.Context, e wallet.Entry) (*wallet.Transaction, error) {
	availDelta, escrowDelta, err := wallet.Deltas(e.Type, e.AmountMinor, e.Metadata)
	if err != nil {
		return nil, err
	}

	q := db.QuerierFrom(ctx, r.pool)

	updateQ := `
UPDATE wallets
SET available_minor = available_minor + $2,
    escrow_minor = escrow_minor + $3,
    updated_at = NOW()
WHERE user_id = $1
`
	tag, err := q.Exec(ctx, updateQ, e.UserID, availDelta, escrowDelta)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fault.New(fault.NotFound, "wallet not found")
	}

	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, err
	}
	insertQ := `
INSERT INTO transactions (user_id, transaction_type, amount_minor, reference_id, description, metadata)
VALUES ($1, $2, $3, $4, $5, $6::jsonb)
RETURNING id, seq, user_id, transaction_type, amount_minor, reference_id, description, metadata, created_at
`
	return scanTransaction(q.QueryRow(ctx, insertQ,
		e.UserID, e.Type, e.AmountMinor, nullable(e.ReferenceID), nullable(e.Description), meta))
}

func (r *WalletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int32) ([]wallet.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `
SELECT id, seq, user_id, transaction_type, amount_minor, reference_id, description, metadata, created_at
FROM transactions
WHERE user_id = $1
ORDER BY seq DESC
LIMIT $2 OFFSET $3
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *WalletRepository) ListAllTransactions(ctx context.Context, userID string) ([]wallet.Transaction, error) {
	q := `
SELECT id, seq, user_id, transaction_type, amount_minor, reference_id, description, metadata, created_at
FROM transactions
WHERE user_id = $1
ORDER BY seq ASC
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *WalletRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, `SELECT user_id FROM wallets ORDER BY user_id`)
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

type rowScanner interface{ Scan(dest ...any) error }

func scanTransaction(row rowScanner) (*wallet.Transaction, error) {
	out := &wallet.Transaction{}
	var reference, description *string
	var meta []byte
	err := row.Scan(&out.ID, &out.Seq, &out.UserID, &out.Type, &out.AmountMinor,
		&reference, &description, &meta, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reference != nil {
		out.ReferenceID = *reference
	}
	if description != nil {
		out.Description = *description
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &out.Metadata); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type txRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectTransactions(rows txRows) ([]wallet.Transaction, error) {
	out := make([]wallet.Transaction, 0)
	for rows.Next() {
		item, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
