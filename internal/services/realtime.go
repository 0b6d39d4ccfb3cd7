package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/models"
)

const notificationChannelPrefix = "notifications:user:"

// NotificationEvent is the payload published over Redis and written to websockets.
type NotificationEvent struct {
	Type         string               `json:"type"`
	UserID       string               `json:"user_id"`
	ID           string               `json:"id"`
	Notification *models.Notification `json:"notification,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Conn is the minimal websocket surface the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// NotificationHub tracks open connections per user and fans events out to them. Events reach
// the hub through a Redis pattern subscription so every instance sees every publish. Without
// Redis, publishes are delivered to local connections directly.
type NotificationHub struct {
	client *redis.Client
	log    *logger.Logger

	mu    sync.RWMutex
	conns map[string]map[Conn]struct{}

	started sync.Once
}

func NewNotificationHub(client *redis.Client, log *logger.Logger) *NotificationHub {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationHub{
		client: client,
		log:    log.WithComponent(logger.ComponentRealtime),
		conns:  make(map[string]map[Conn]struct{}),
	}
}

// Register adds a connection for userID.
func (h *NotificationHub) Register(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[Conn]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a connection.
func (h *NotificationHub) Unregister(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}

// Connections returns the number of open connections for userID.
func (h *NotificationHub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// FanOut writes ev to every local connection of its user.
func (h *NotificationHub) FanOut(ev NotificationEvent) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns[ev.UserID]))
	for c := range h.conns[ev.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.WriteJSON(ev); err != nil {
			h.log.Warn("failed to write notification to websocket", logger.FieldUserID, ev.UserID, logger.FieldError, err)
			h.Unregister(ev.UserID, c)
			c.Close()
		}
	}
}

// PublishNotification announces a newly created notification.
func (h *NotificationHub) PublishNotification(ctx context.Context, userID, id string, n *models.Notification) {
	ev := NotificationEvent{
		Type:         "notification.created",
		UserID:       userID,
		ID:           id,
		Notification: n,
		Timestamp:    time.Now().UTC(),
	}
	if h.client == nil {
		h.FanOut(ev)
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to encode notification event", logger.FieldError, err)
		return
	}
	if err := h.client.Publish(ctx, notificationChannelPrefix+userID, data).Err(); err != nil {
		h.log.WarnContext(ctx, "failed to publish notification", logger.FieldUserID, userID, logger.FieldError, err)
	}
}

// Start launches the shared Redis subscriber once per hub.
func (h *NotificationHub) Start(ctx context.Context) {
	if h.client == nil {
		return
	}
	h.started.Do(func() {
		go h.subscribe(ctx)
	})
}

func (h *NotificationHub) subscribe(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		func() {
			pubsub := h.client.PSubscribe(ctx, notificationChannelPrefix+"*")
			defer pubsub.Close()
			h.log.Info("notification subscriber started", "pattern", notificationChannelPrefix+"*")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					h.log.Warn("notification subscriber error", logger.FieldError, err)
					time.Sleep(backoff)
					backoff = min(backoff*2, 30*time.Second)
					return
				}
				backoff = time.Second

				var ev NotificationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					h.log.Warn("failed to decode notification event", logger.FieldError, err)
					continue
				}
				if ev.UserID == "" {
					ev.UserID = strings.TrimPrefix(msg.Channel, notificationChannelPrefix)
				}
				h.FanOut(ev)
			}
		}()
	}
}
