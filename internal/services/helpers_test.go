package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/models"
)

var errStoreDown = errors.New("connection refused")

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (any, error) { return nil, errStoreDown }
func (failingStore) Set(context.Context, string, any) error   { return errStoreDown }
func (failingStore) Update(context.Context, string, map[string]any) error {
	return errStoreDown
}
func (failingStore) Delete(context.Context, string) error { return errStoreDown }
func (failingStore) FindByField(context.Context, string, string, any) (map[string]any, error) {
	return nil, errStoreDown
}

var _ docstore.Store = failingStore{}

type recordingAudit struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, ev AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Entity+":"+ev.Action)
	}
	return out
}

type countingInvalidator struct {
	calls map[string]int
}

func (c *countingInvalidator) InvalidateSpending(_ context.Context, userID string) {
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[userID]++
}

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) PublishNotification(_ context.Context, userID, id string, n *models.Notification) {
	p.published = append(p.published, userID+"/"+id+"/"+n.Message)
}

// mapCache is an in-process SpendingCache.
type mapCache struct {
	entries map[string]SpendingSummary
	gens    map[string]int64
	hits    int
}

func (c *mapCache) key(userID string, gen int64, tz, date string) string {
	return fmt.Sprintf("%s|%d|%s|%s", userID, gen, tz, date)
}

func (c *mapCache) SpendingGeneration(_ context.Context, userID string) (int64, bool) {
	return c.gens[userID], true
}

func (c *mapCache) GetSpending(_ context.Context, userID string, gen int64, tz, date string) (*SpendingSummary, bool) {
	s, ok := c.entries[c.key(userID, gen, tz, date)]
	if ok {
		c.hits++
		return &s, true
	}
	return nil, false
}

func (c *mapCache) SetSpending(_ context.Context, userID string, gen int64, tz, date string, s *SpendingSummary) {
	if c.entries == nil {
		c.entries = map[string]SpendingSummary{}
	}
	c.entries[c.key(userID, gen, tz, date)] = *s
}

func (c *mapCache) InvalidateSpending(_ context.Context, userID string) {
	if c.gens == nil {
		c.gens = map[string]int64{}
	}
	c.gens[userID]++
}

// sequentialIDs returns id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
