package ws

import (
	"context"
	"net/http"
	"time"

	"truvamate/internal/auth"
	"truvamate/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedAuthorizer decides whether the identity in ctx may watch the feed.
type FeedAuthorizer interface {
	AuthorizeFeed(ctx context.Context) error
}

// ServeLedgerFeed upgrades an admin connection and streams ledger events.
// Browsers cannot set headers on WebSocket requests, so the token comes from
// the query string.
func ServeLedgerFeed(verifier auth.TokenVerifier, authorizer FeedAuthorizer, hub *Hub, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("ws.ledger")
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if err := authorizer.AuthorizeFeed(auth.WithIdentity(c.Request.Context(), id)); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug("upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		client := NewClient(id.UserID, id.Role)
		hub.Register(client)
		defer client.Close()
		log.Info("subscriber connected", zap.String("user_id", id.UserID), zap.Int("subscribers", hub.ClientCount()))

		hub.BroadcastToUser(id.UserID, map[string]interface{}{
			"type":  "hello",
			"event": models.LedgerEvent{Type: "feed.connected", UserID: id.UserID, At: time.Now().UTC()},
		})
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
