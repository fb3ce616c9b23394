package ws

import (
	"context"
	"strings"
	"testing"
	"time"
)

type stubFeed struct {
	head   int64
	events []LedgerEvent
}

func (f *stubFeed) LatestLedgerSeq(context.Context) (int64, error) { return f.head, nil }

func (f *stubFeed) ListLedgerEventsSince(_ context.Context, lastSeq int64, _ int32) ([]LedgerEvent, error) {
	out := []LedgerEvent{}
	for _, ev := range f.events {
		if ev.Seq > lastSeq {
			out = append(out, ev)
		}
	}
	return out, nil
}

func TestNotifierStartsFromLedgerHead(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil)
	hub.Subscribe(WalletChannel("u1"), client)

	// Rows 1 and 2 predate the notifier; only row 3 should go out.
	feed := &stubFeed{
		head: 2,
		events: []LedgerEvent{
			{Seq: 1, UserID: "u1", Type: "deposit", AmountMinor: 1000},
			{Seq: 2, UserID: "u1", Type: "deposit", AmountMinor: 2000},
			{Seq: 3, UserID: "u1", Type: "deposit", AmountMinor: 3000},
		},
	}
	n := NewNotifier(feed, hub, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = n.Run(ctx)

	var got []string
	for drained := false; !drained; {
		select {
		case msg := <-client.outbox:
			got = append(got, string(msg))
		default:
			drained = true
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected one delivery past the ledger head, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], `"amount_minor":3000`) {
		t.Fatalf("unexpected payload: %s", got[0])
	}
}
