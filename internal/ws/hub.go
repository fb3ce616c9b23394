package ws

import "sync"

// Hub fans ledger events out to the dashboard connections watching each
// wallet feed. Feeds are created on first join and dropped once the last
// watcher leaves, so the map only ever holds users with an open socket.
type Hub struct {
	mu    sync.RWMutex
	feeds map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Subscribe(feed string, client *Client) {
	h.mu.Lock()
	watchers := h.feeds[feed]
	if watchers == nil {
		watchers = make(map[*Client]struct{})
		h.feeds[feed] = watchers
	}
	watchers[client] = struct{}{}
	h.mu.Unlock()

	client.joinFeed(feed)
}

func (h *Hub) UnsubscribeAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, feed := range client.joinedFeeds() {
		watchers, ok := h.feeds[feed]
		if !ok {
			continue
		}
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.feeds, feed)
		}
	}
}

// Publish delivers a payload to every watcher of one feed. Delivery is best
// effort; a watcher whose outbox is full gets disconnected rather than
// blocking the ledger tail.
func (h *Hub) Publish(feed string, payload []byte) {
	h.mu.RLock()
	watchers := h.feeds[feed]
	h.mu.RUnlock()

	for c := range watchers {
		c.push(payload)
	}
}
