package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

// EntityService implements create/fetch/update/delete for the nine per-user collections.
type EntityService struct {
	store docstore.Store
	hooks Hooks
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

func NewEntityService(store docstore.Store, hooks Hooks, log *logger.Logger) *EntityService {
	if log == nil {
		log = logger.Nop()
	}
	return &EntityService{
		store: store,
		hooks: hooks,
		log:   log.WithComponent(logger.ComponentEntity),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create stores rec under a fresh id. Keyed collections reject a second record with the same
// key. The key check and the write are not atomic.
func (s *EntityService) Create(ctx context.Context, c models.Collection, rec models.Record) (string, error) {
	userID := strings.TrimSpace(rec.OwnerID())
	if userID == "" {
		return "", ErrMissingUserID
	}
	rec.SetOwnerID(userID)
	if d, ok := rec.(models.Defaulter); ok {
		d.ApplyDefaults(s.now())
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	if k, ok := rec.(models.Keyed); ok && c.KeyField != "" {
		matches, err := s.store.FindByField(ctx, docstore.CollectionPath(userID, c.Name), c.KeyField, k.UniqueKey())
		if err != nil {
			return "", storeError("check duplicate "+c.Singular, err)
		}
		if len(matches) > 0 {
			return "", fmt.Errorf("%w: %s with %s %q", ErrDuplicateEntity, c.Singular, c.KeyField, k.UniqueKey())
		}
	}

	id := s.newID()
	if err := s.store.Set(ctx, docstore.ItemPath(userID, c.Name, id), rec); err != nil {
		return "", storeError("create "+c.Singular, err)
	}
	s.log.InfoContext(ctx, "entity created",
		logger.FieldEntity, c.Singular, logger.FieldEntityID, id, logger.FieldUserID, userID)

	s.afterMutation(ctx, c, userID, id, ActionCreate)
	if n, ok := rec.(*models.Notification); ok && s.hooks.Notifier != nil {
		s.hooks.Notifier.PublishNotification(ctx, userID, id, n)
	}
	return id, nil
}

// Fetch returns one record with its id injected under "id".
func (s *EntityService) Fetch(ctx context.Context, c models.Collection, userID, itemID string) (map[string]any, error) {
	if err := requireIDs(c, userID, itemID); err != nil {
		return nil, err
	}
	v, err := s.store.Get(ctx, docstore.ItemPath(userID, c.Name, itemID))
	if err != nil {
		return nil, storeError("fetch "+c.Singular, err)
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return nil, &DependencyError{Op: "fetch " + c.Singular, Err: fmt.Errorf("stored value is %T, not a record", v)}
	}
	rec["id"] = itemID
	return rec, nil
}

// FetchAll returns the whole collection keyed by item id, each record carrying its id.
func (s *EntityService) FetchAll(ctx context.Context, c models.Collection, userID string) (map[string]any, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	v, err := s.store.Get(ctx, docstore.CollectionPath(userID, c.Name))
	if err != nil {
		return nil, storeError("fetch "+c.Name, err)
	}
	items := docstore.Children(v)
	if len(items) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", c.Name, ErrNotFound)
	}
	for id, item := range items {
		if rec, ok := item.(map[string]any); ok {
			rec["id"] = id
		}
	}
	return items, nil
}

// Update applies the present fields of p to an existing record.
func (s *EntityService) Update(ctx context.Context, c models.Collection, userID, itemID string, p models.Patch) error {
	if err := requireIDs(c, userID, itemID); err != nil {
		return err
	}
	doc, err := p.Document()
	if err != nil {
		return err
	}
	path := docstore.ItemPath(userID, c.Name, itemID)
	if _, err := s.store.Get(ctx, path); err != nil {
		return storeError("update "+c.Singular, err)
	}
	if err := s.store.Update(ctx, path, doc); err != nil {
		return storeError("update "+c.Singular, err)
	}
	s.log.InfoContext(ctx, "entity updated",
		logger.FieldEntity, c.Singular, logger.FieldEntityID, itemID, logger.FieldUserID, userID, "fields", len(doc))
	s.afterMutation(ctx, c, userID, itemID, ActionUpdate)
	return nil
}

// Delete removes exactly one record. Deleting a missing record succeeds.
func (s *EntityService) Delete(ctx context.Context, c models.Collection, userID, itemID string) error {
	if err := requireIDs(c, userID, itemID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, docstore.ItemPath(userID, c.Name, itemID)); err != nil {
		return storeError("delete "+c.Singular, err)
	}
	s.log.InfoContext(ctx, "entity deleted",
		logger.FieldEntity, c.Singular, logger.FieldEntityID, itemID, logger.FieldUserID, userID)
	s.afterMutation(ctx, c, userID, itemID, ActionDelete)
	return nil
}

func (s *EntityService) afterMutation(ctx context.Context, c models.Collection, userID, id, action string) {
	s.hooks.audit(ctx, userID, c.Singular, id, action)
	if c.Name == models.Expenses.Name {
		s.hooks.invalidate(ctx, userID)
	}
}

func requireIDs(c models.Collection, userID, itemID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	return utils.Required(c.IDField(), itemID)
}
