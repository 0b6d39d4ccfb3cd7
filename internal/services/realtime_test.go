package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AnshRaj112/brift-backend/internal/models"
)

type fakeConn struct {
	mu     sync.Mutex
	events []NotificationEvent
	fail   bool
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.events = append(c.events, v.(NotificationEvent))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestHubLocalFanOut(t *testing.T) {
	hub := NewNotificationHub(nil, nil)
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register("u1", a)
	hub.Register("u1", b)
	hub.Register("u2", other)

	hub.PublishNotification(context.Background(), "u1", "n1", &models.Notification{Message: "rent due"})

	for name, c := range map[string]*fakeConn{"a": a, "b": b} {
		if len(c.events) != 1 || c.events[0].ID != "n1" || c.events[0].Notification.Message != "rent due" {
			t.Fatalf("%s got %+v", name, c.events)
		}
	}
	if len(other.events) != 0 {
		t.Fatal("event delivered to another user")
	}
}

func TestHubDropsBrokenConnections(t *testing.T) {
	hub := NewNotificationHub(nil, nil)
	good, bad := &fakeConn{}, &fakeConn{fail: true}
	hub.Register("u1", good)
	hub.Register("u1", bad)

	hub.FanOut(NotificationEvent{UserID: "u1", ID: "n1"})

	if !bad.closed || hub.Connections("u1") != 1 {
		t.Fatalf("broken connection kept: closed=%v conns=%d", bad.closed, hub.Connections("u1"))
	}
	hub.Unregister("u1", good)
	if hub.Connections("u1") != 0 {
		t.Fatal("connection not removed")
	}
}
