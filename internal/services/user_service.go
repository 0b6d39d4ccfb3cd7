package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

const usersCollection = "users"

// UserService manages the users/{user_id} node: profile, settings and the cascade of its
// child collections on delete.
type UserService struct {
	store  docstore.Store
	cipher *utils.Cipher
	hooks  Hooks
	log    *logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewUserService(store docstore.Store, cipher *utils.Cipher, hooks Hooks, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Nop()
	}
	return &UserService{
		store:  store,
		cipher: cipher,
		hooks:  hooks,
		log:    log.WithComponent(logger.ComponentUser),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create registers a user and returns the new user id.
func (s *UserService) Create(ctx context.Context, profile models.Profile, settings models.Settings) (string, error) {
	if profile.IsZero() || settings.IsZero() ||
		strings.TrimSpace(profile.Email) == "" || profile.Password == "" {
		return "", ErrIncompleteUserData
	}
	profile.Email = utils.NormalizeEmail(profile.Email)
	if err := profile.Validate(); err != nil {
		return "", err
	}

	if err := s.ensureUnique(ctx, "", profile.Email, profile.Phone); err != nil {
		return "", err
	}

	encrypted, err := s.cipher.Encrypt(profile.Password)
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}
	profile.Password = encrypted

	user := models.User{Profile: profile, Settings: settings}
	user.ApplyDefaults(s.now())

	userID := s.newID()
	if err := s.store.Set(ctx, docstore.UserPath(userID), user); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return "", ErrUserAlreadyExists
		}
		return "", storeError("create user", err)
	}
	s.log.InfoContext(ctx, "user created", logger.FieldUserID, userID)
	s.hooks.audit(ctx, userID, "user", userID, ActionCreate)
	return userID, nil
}

// ensureUnique looks up email and phone concurrently. A match owned by exceptID is ignored.
func (s *UserService) ensureUnique(ctx context.Context, exceptID, email, phone string) error {
	g, gctx := errgroup.WithContext(ctx)
	var byEmail, byPhone map[string]any
	if email != "" {
		g.Go(func() (err error) {
			byEmail, err = s.store.FindByField(gctx, usersCollection, "profile/email", email)
			return err
		})
	}
	if phone != "" {
		g.Go(func() (err error) {
			byPhone, err = s.store.FindByField(gctx, usersCollection, "profile/phone", phone)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return storeError("check user uniqueness", err)
	}
	for _, matches := range []map[string]any{byEmail, byPhone} {
		for id := range matches {
			if id != exceptID {
				return ErrUserAlreadyExists
			}
		}
	}
	return nil
}

// Fetch returns profile and settings with the password removed.
func (s *UserService) Fetch(ctx context.Context, userID string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	var settings models.Settings
	v, err := s.store.Get(ctx, docstore.Join(docstore.UserPath(userID), "settings"))
	switch {
	case err == nil:
		if err := docstore.Decode(v, &settings); err != nil {
			return nil, &DependencyError{Op: "fetch user settings", Err: err}
		}
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, storeError("fetch user settings", err)
	}
	profile.Password = ""
	return &models.User{ID: userID, Profile: *profile, Settings: settings}, nil
}

func (s *UserService) profile(ctx context.Context, userID string) (*models.Profile, error) {
	v, err := s.store.Get(ctx, docstore.Join(docstore.UserPath(userID), "profile"))
	if err != nil {
		return nil, storeError("fetch user", err)
	}
	var p models.Profile
	if err := docstore.Decode(v, &p); err != nil {
		return nil, &DependencyError{Op: "fetch user", Err: err}
	}
	return &p, nil
}

// Timezone returns settings/timezone, or "" when the user has none.
func (s *UserService) Timezone(ctx context.Context, userID string) (string, error) {
	v, err := s.store.Get(ctx, docstore.Join(docstore.UserPath(userID), "settings", "timezone"))
	if errors.Is(err, docstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", storeError("fetch timezone", err)
	}
	tz, _ := v.(string)
	return tz, nil
}

// Update applies a partial user patch. A new password is stored encrypted.
func (s *UserService) Update(ctx context.Context, userID string, p models.UserPatch) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	doc, err := p.Document()
	if err != nil {
		return err
	}
	if _, err := s.profile(ctx, userID); err != nil {
		return err
	}

	email, _ := doc["profile/email"].(string)
	phone, _ := doc["profile/phone"].(string)
	if err := s.ensureUnique(ctx, userID, email, phone); err != nil {
		return err
	}
	if pw, ok := doc["profile/password"].(string); ok {
		enc, err := s.cipher.Encrypt(pw)
		if err != nil {
			return fmt.Errorf("encrypt password: %w", err)
		}
		doc["profile/password"] = enc
	}
	if phone != "" {
		doc["profile/mfa_enabled"] = true
	}

	if err := s.store.Update(ctx, docstore.UserPath(userID), doc); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return ErrUserAlreadyExists
		}
		return storeError("update user", err)
	}
	s.log.InfoContext(ctx, "user updated", logger.FieldUserID, userID, "fields", len(doc))
	s.hooks.audit(ctx, userID, "user", userID, ActionUpdate)
	return nil
}

// Delete removes the user and every child collection.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if err := s.store.Delete(ctx, docstore.UserPath(userID)); err != nil {
		return storeError("delete user", err)
	}
	s.log.InfoContext(ctx, "user deleted", logger.FieldUserID, userID)
	s.hooks.audit(ctx, userID, "user", userID, ActionDelete)
	s.hooks.invalidate(ctx, userID)
	return nil
}

// Authenticate checks credentials and stamps last_login. It returns the user id and profile.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, *models.Profile, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	matches, err := s.store.FindByField(ctx, usersCollection, "profile/email", email)
	if err != nil {
		return "", nil, storeError("login", err)
	}
	var userID string
	var node any
	for id, v := range matches {
		userID, node = id, v
		break
	}
	if userID == "" {
		return "", nil, fmt.Errorf("login: %w", ErrNotFound)
	}

	var user models.User
	if err := docstore.Decode(node, &user); err != nil {
		return "", nil, &DependencyError{Op: "login", Err: err}
	}
	stored, err := s.cipher.Decrypt(user.Profile.Password)
	if err != nil {
		s.log.WarnContext(ctx, "stored password could not be decrypted", logger.FieldUserID, userID, logger.FieldError, err)
		return "", nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return "", nil, ErrInvalidCredentials
	}

	now := models.Timestamp(s.now())
	if err := s.store.Update(ctx, docstore.UserPath(userID), map[string]any{"profile/last_login": now}); err != nil {
		s.log.WarnContext(ctx, "failed to stamp last_login", logger.FieldUserID, userID, logger.FieldError, err)
	}
	user.Profile.LastLogin = now
	user.Profile.Password = ""
	s.hooks.audit(ctx, userID, "user", userID, ActionLogin)
	return userID, &user.Profile, nil
}
