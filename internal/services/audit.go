package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/logger"
)

const auditQueueSize = 256

// AuditLog writes audit events to PostgreSQL from a background goroutine. Events are dropped
// when the queue is full or the log is closed. A nil *AuditLog discards everything.
type AuditLog struct {
	db     *sql.DB
	events chan AuditEvent
	log    *logger.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAuditLog(db *sql.DB, log *logger.Logger) *AuditLog {
	if db == nil {
		return nil
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &AuditLog{
		db:     db,
		events: make(chan AuditEvent, auditQueueSize),
		log:    log.WithComponent(logger.ComponentAudit),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Record queues ev without blocking.
func (a *AuditLog) Record(ctx context.Context, ev AuditEvent) {
	if a == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.log.WarnContext(ctx, "audit log closed, event dropped",
			logger.FieldUserID, ev.UserID, logger.FieldEntity, ev.Entity, "action", ev.Action)
		return
	}
	select {
	case a.events <- ev:
	default:
		a.log.WarnContext(ctx, "audit queue full, event dropped",
			logger.FieldUserID, ev.UserID, logger.FieldEntity, ev.Entity, "action", ev.Action)
	}
}

func (a *AuditLog) run() {
	defer a.wg.Done()
	for ev := range a.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := a.db.ExecContext(ctx, `
			INSERT INTO audit_events (user_id, entity, entity_id, action, ip_address)
			VALUES ($1, $2, $3, $4, $5)
		`, ev.UserID, ev.Entity, ev.EntityID, ev.Action, nullString(ev.IPAddress))
		cancel()
		if err != nil {
			a.log.Error("failed to write audit event",
				logger.FieldUserID, ev.UserID, logger.FieldEntity, ev.Entity, logger.FieldError, err)
		}
	}
}

// Close stops accepting events and waits for the queue to drain.
func (a *AuditLog) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
