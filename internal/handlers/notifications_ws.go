package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/brift-backend/internal/logger"
)

const (
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
	wsWriteWait  = 10 * time.Second
)

var notificationUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// wsConn serializes writes to a websocket connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// NotificationsWS handles GET /ws/notifications. The client authenticates with a bearer token
// (header or token query parameter) and then receives every notification created for its user.
func (h *Handler) NotificationsWS(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil || h.Authenticator == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Message: "Notifications are not available"})
		return
	}
	claims, err := h.Authenticator.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "Unauthorized"})
		return
	}
	userID := claims.Subject

	conn, err := notificationUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsConn{conn: conn}
	h.Hub.Register(userID, c)
	defer func() {
		h.Hub.Unregister(userID, c)
		c.Close()
	}()
	log := h.Log.WithComponent(logger.ComponentRealtime)
	log.Info("notification stream opened", logger.FieldUserID, userID)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	// The stream is server-to-client; reads only service pongs and detect disconnects.
	conn.SetReadLimit(4 * 1024)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Info("notification stream closed", logger.FieldUserID, userID)
			return
		}
	}
}
