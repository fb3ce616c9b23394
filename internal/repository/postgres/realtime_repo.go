package postgres

import (
	"context"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RealtimeRepository struct {
	pool *pgxpool.Pool
}

func NewRealtimeRepository(pool *pgxpool.Pool) *RealtimeRepository {
	return &RealtimeRepository{pool: pool}
}

// LatestLedgerSeq returns the highest sequence number in the ledger, or zero
// on an empty table. The notifier seeds its cursor from it at startup.
func (r *RealtimeRepository) LatestLedgerSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := db.QuerierFrom(ctx, r.pool).
		QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM transactions`).
		Scan(&seq)
	return seq, err
}

// ListLedgerEventsSince feeds the websocket notifier from the append-only
// transactions ledger, which already records every balance change in order.
func (r *RealtimeRepository) ListLedgerEventsSince(ctx context.Context, lastSeq int64, limit int32) ([]ws.LedgerEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
SELECT seq, user_id, transaction_type, amount_minor,
       COALESCE(metadata->>'loan_id', ''), COALESCE(metadata->>'request_id', ''), created_at
FROM transactions
WHERE seq > $1
ORDER BY seq ASC
LIMIT $2
`
	rows, err := db.QuerierFrom(ctx, r.pool).Query(ctx, q, lastSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ws.LedgerEvent, 0)
	for rows.Next() {
		var ev ws.LedgerEvent
		if err := rows.Scan(&ev.Seq, &ev.UserID, &ev.Type, &ev.AmountMinor,
			&ev.LoanID, &ev.RequestID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
