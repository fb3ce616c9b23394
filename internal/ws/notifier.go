package ws

import (
	"context"
	"encoding/json"
	"time"
)

// LedgerEvent is one new row from the append-only transactions ledger.
type LedgerEvent struct {
	Seq         int64
	UserID      string
	Type        string
	AmountMinor int64
	LoanID      string
	RequestID   string
	CreatedAt   time.Time
}

type LedgerFeed interface {
	LatestLedgerSeq(ctx context.Context) (int64, error)
	ListLedgerEventsSince(ctx context.Context, lastSeq int64, limit int32) ([]LedgerEvent, error)
}

// Notifier tails the ledger and pushes wallet updates to connected
// dashboards. The ledger is already an ordered record of every balance
// change, so no separate event table is needed.
type Notifier struct {
	feed         LedgerFeed
	hub          *Hub
	pollInterval time.Duration
	lastSeq      int64
}

func NewNotifier(feed LedgerFeed, hub *Hub, pollInterval time.Duration) *Notifier {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Notifier{feed: feed, hub: hub, pollInterval: pollInterval}
}

func (n *Notifier) Run(ctx context.Context) error {
	// Start from the current ledger head. Clients connecting after a restart
	// only care about changes from now on; replaying history would blast
	// every open dashboard with stale updates.
	seq, err := n.feed.LatestLedgerSeq(ctx)
	if err != nil {
		return err
	}
	n.lastSeq = seq

	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (n *Notifier) tick(ctx context.Context) error {
	events, err := n.feed.ListLedgerEventsSince(ctx, n.lastSeq, 100)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.Seq > n.lastSeq {
			n.lastSeq = ev.Seq
		}
		payload, _ := json.Marshal(map[string]any{
			"event": "wallet_updated",
			"data": map[string]any{
				"type":         ev.Type,
				"amount_minor": ev.AmountMinor,
				"loan_id":      ev.LoanID,
				"request_id":   ev.RequestID,
				"recorded_at":  ev.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
		n.hub.Publish(WalletChannel(ev.UserID), payload)
	}
	return nil
}
