package services

import (
	"context"

	"github.com/AnshRaj112/brift-backend/internal/models"
)

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
)

// AuditEvent is one row of the audit trail.
type AuditEvent struct {
	UserID    string
	Entity    string
	EntityID  string
	Action    string
	IPAddress string
}

// AuditSink records mutations. Implementations must not block the caller.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent)
}

// SpendingInvalidator drops cached spending totals for a user.
type SpendingInvalidator interface {
	InvalidateSpending(ctx context.Context, userID string)
}

// NotificationPublisher pushes a newly created notification to live subscribers.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, userID, id string, n *models.Notification)
}

// Hooks are the optional side effects of entity and user mutations. Nil fields are skipped.
type Hooks struct {
	Audit    AuditSink
	Spending SpendingInvalidator
	Notifier NotificationPublisher
}

func (h Hooks) audit(ctx context.Context, userID, entity, id, action string) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(ctx, AuditEvent{
		UserID:    userID,
		Entity:    entity,
		EntityID:  id,
		Action:    action,
		IPAddress: ClientIPFromContext(ctx),
	})
}

func (h Hooks) invalidate(ctx context.Context, userID string) {
	if h.Spending != nil {
		h.Spending.InvalidateSpending(ctx, userID)
	}
}

type clientIPKey struct{}

// WithClientIP stores the caller's address for audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the address stored by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
