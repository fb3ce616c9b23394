package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// WalletChannel carries balance and loan events for one user. Clients are
// subscribed to their own channel only; the user identity comes from the
// auth middleware, never from the client.
func WalletChannel(userID string) string {
	return "user:wallet:" + userID
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	uid, ok := c.Get("user_id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, ok := uid.(string)
	if !ok || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		client := NewClient(conn)
		h.hub.Subscribe(WalletChannel(userID), client)
		go h.writer(client)
		h.reader(client)
	}).ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) reader(client *Client) {
	defer func() {
		h.hub.UnsubscribeAll(client)
		close(client.outbox)
		_ = client.conn.Close()
	}()

	// Inbound frames are drained and discarded; the stream is push-only.
	for {
		var raw string
		if err := websocket.Message.Receive(client.conn, &raw); err != nil {
			return
		}
	}
}

func (h *Handler) writer(client *Client) {
	for payload := range client.outbox {
		if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
			return
		}
	}
}
