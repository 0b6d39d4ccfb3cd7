package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

func newTestUserService(t *testing.T, store docstore.Store, hooks Hooks) *UserService {
	t.Helper()
	cipher, err := utils.NewCipher("test passphrase")
	if err != nil {
		t.Fatal(err)
	}
	s := NewUserService(store, cipher, hooks, nil)
	s.newID = sequentialIDs()
	s.now = fixedClock(time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC))
	return s
}

func signup(email, phone, password string) (models.Profile, models.Settings) {
	return models.SignupRequest{Name: "Asha", Email: email, Phone: phone, Password: password}.Split()
}

func storedPassword(t *testing.T, store docstore.Store, userID string) string {
	t.Helper()
	v, err := store.Get(context.Background(), "users/"+userID+"/profile/password")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.(string)
	return s
}

func TestUserCreateAndFetch(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	s := newTestUserService(t, store, Hooks{})

	p, st := signup("Asha@Example.com ", "+91 98765-43210", "hunter22")
	id, err := s.Create(ctx, p, st)
	if err != nil {
		t.Fatal(err)
	}

	if pw := storedPassword(t, store, id); pw == "" || pw == "hunter22" {
		t.Fatalf("password stored as %q", pw)
	}

	u, err := s.Fetch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if u.Profile.Password != "" {
		t.Fatal("fetch returned the password")
	}
	if u.Profile.Email != "asha@example.com" || u.Profile.Points != models.DefaultPoints || !u.Profile.MFAEnabled {
		t.Fatalf("unexpected profile %+v", u.Profile)
	}
	if u.Profile.CreatedAt != "2024-05-15 10:30:00" || u.Profile.LastLogin != u.Profile.CreatedAt {
		t.Fatalf("timestamps %+v", u.Profile)
	}
	if u.Settings.Currency != "INR" || u.Settings.Region != "IND" {
		t.Fatalf("unexpected settings %+v", u.Settings)
	}
}

func TestUserCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestUserService(t, docstore.NewMemoryStore(), Hooks{})

	p, st := signup("asha@example.com", "9876543210", "pw")
	if _, err := s.Create(ctx, p, st); err != nil {
		t.Fatal(err)
	}

	p, st = signup("ASHA@example.com", "", "pw")
	_, err := s.Create(ctx, p, st)
	if !errors.Is(err, ErrUserAlreadyExists) || StatusCode(err) != http.StatusConflict {
		t.Fatalf("duplicate email: %v", err)
	}

	p, st = signup("other@example.com", "9876543210", "pw")
	if _, err := s.Create(ctx, p, st); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate phone: %v", err)
	}

	p, st = signup("other@example.com", "", "pw")
	if _, err := s.Create(ctx, p, st); err != nil {
		t.Fatalf("distinct user: %v", err)
	}
}

func TestUserCreateIncomplete(t *testing.T) {
	s := newTestUserService(t, docstore.NewMemoryStore(), Hooks{})
	_, err := s.Create(context.Background(), models.Profile{}, models.Settings{Currency: "INR"})
	if !errors.Is(err, ErrIncompleteUserData) || StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected ErrIncompleteUserData, got %v", err)
	}
	p, st := signup("a@example.com", "", "")
	if _, err := s.Create(context.Background(), p, st); !errors.Is(err, ErrIncompleteUserData) {
		t.Fatalf("missing password: %v", err)
	}
}

func TestUserAuthenticate(t *testing.T) {
	ctx := context.Background()
	audit := &recordingAudit{}
	s := newTestUserService(t, docstore.NewMemoryStore(), Hooks{Audit: audit})
	p, st := signup("asha@example.com", "", "hunter22")
	id, err := s.Create(ctx, p, st)
	if err != nil {
		t.Fatal(err)
	}

	s.now = fixedClock(time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC))
	gotID, profile, err := s.Authenticate(ctx, " Asha@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if gotID != id || profile.Password != "" || profile.LastLogin != "2024-06-01 07:00:00" {
		t.Fatalf("unexpected login result %q %+v", gotID, profile)
	}
	u, _ := s.Fetch(ctx, id)
	if u.Profile.LastLogin != "2024-06-01 07:00:00" {
		t.Fatalf("last_login not stored: %q", u.Profile.LastLogin)
	}

	if _, _, err := s.Authenticate(ctx, "asha@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := s.Authenticate(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown email: %v", err)
	}
	if got := audit.actions(); len(got) != 2 || got[1] != "user:login" {
		t.Fatalf("audit = %v", got)
	}
}

func TestUserUpdate(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	s := newTestUserService(t, store, Hooks{})
	p, st := signup("asha@example.com", "", "old-pass")
	id, err := s.Create(ctx, p, st)
	if err != nil {
		t.Fatal(err)
	}
	p, st = signup("ravi@example.com", "", "pw")
	if _, err := s.Create(ctx, p, st); err != nil {
		t.Fatal(err)
	}

	err = s.Update(ctx, id, models.UserPatch{
		Password: patch.Some("new-pass"),
		Phone:    patch.Some("9876543210"),
		Timezone: patch.Some("Asia/Kolkata"),
		Email:    patch.Some("asha@example.com"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if pw := storedPassword(t, store, id); pw == "new-pass" {
		t.Fatal("password stored in clear")
	}
	if _, _, err := s.Authenticate(ctx, "asha@example.com", "new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	u, _ := s.Fetch(ctx, id)
	if !u.Profile.MFAEnabled || u.Settings.Timezone != "Asia/Kolkata" || u.Settings.Currency != "INR" {
		t.Fatalf("unexpected user %+v", u)
	}
	if tz, _ := s.Timezone(ctx, id); tz != "Asia/Kolkata" {
		t.Fatalf("timezone = %q", tz)
	}

	err = s.Update(ctx, id, models.UserPatch{Email: patch.Some("ravi@example.com")})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("taking another user's email: %v", err)
	}
	if err := s.Update(ctx, id, models.UserPatch{}); !errors.Is(err, patch.ErrNoFieldsProvided) {
		t.Fatalf("empty patch: %v", err)
	}
	if err := s.Update(ctx, "ghost", models.UserPatch{Name: patch.Some("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	inv := &countingInvalidator{}
	users := newTestUserService(t, store, Hooks{Spending: inv})
	entities := newTestEntityService(store, Hooks{})

	p, st := signup("asha@example.com", "", "pw")
	id, err := users.Create(ctx, p, st)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entities.Create(ctx, models.Budgets, budget(id, "food", 10)); err != nil {
		t.Fatal(err)
	}

	if err := users.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := users.Fetch(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user still present: %v", err)
	}
	if _, err := entities.FetchAll(ctx, models.Budgets, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("budgets survived: %v", err)
	}
	if inv.calls[id] != 1 {
		t.Fatalf("invalidations = %d", inv.calls[id])
	}
}
