package ws

import (
	"sync"

	"golang.org/x/net/websocket"
)

// outboxSize bounds how far a slow dashboard connection may fall behind
// before the hub gives up on it.
const outboxSize = 64

type Client struct {
	conn   *websocket.Conn
	outbox chan []byte

	mu    sync.RWMutex
	feeds map[string]struct{}
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		feeds:  make(map[string]struct{}),
	}
}

// push never blocks the publishing goroutine. A full outbox means the reader
// side stalled; closing the socket lets the client reconnect with a fresh
// view instead of receiving a late burst of stale updates.
func (c *Client) push(payload []byte) {
	select {
	case c.outbox <- payload:
	default:
		_ = c.conn.Close()
	}
}

func (c *Client) joinFeed(feed string) {
	c.mu.Lock()
	c.feeds[feed] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) joinedFeeds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.feeds))
	for feed := range c.feeds {
		out = append(out, feed)
	}
	return out
}
