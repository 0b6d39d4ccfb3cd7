package services

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

func newTestEntityService(store docstore.Store, hooks Hooks) *EntityService {
	s := NewEntityService(store, hooks, nil)
	s.newID = sequentialIDs()
	s.now = fixedClock(time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC))
	return s
}

func budget(userID, category string, limit float64) *models.Budget {
	return &models.Budget{Owner: models.Owner{UserID: userID}, Category: category, AmountLimit: limit}
}

func TestCreateRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})

	if _, err := s.Create(ctx, models.Budgets, budget("u1", "food", 300)); err != nil {
		t.Fatalf("first budget: %v", err)
	}
	_, err := s.Create(ctx, models.Budgets, budget("u1", "food", 500))
	if !errors.Is(err, ErrDuplicateEntity) {
		t.Fatalf("expected ErrDuplicateEntity, got %v", err)
	}
	if StatusCode(err) != http.StatusConflict {
		t.Fatalf("status = %d", StatusCode(err))
	}

	if _, err := s.Create(ctx, models.Budgets, budget("u1", "rent", 900)); err != nil {
		t.Fatalf("different category: %v", err)
	}
	// keys are per user
	if _, err := s.Create(ctx, models.Budgets, budget("u2", "food", 300)); err != nil {
		t.Fatalf("other user: %v", err)
	}

	all, err := s.FetchAll(ctx, models.Budgets, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("u1 has %d budgets, want 2", len(all))
	}
}

func TestCreateExpensesAreNotKeyed(t *testing.T) {
	ctx := context.Background()
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	for i := 0; i < 2; i++ {
		e := &models.Expense{Owner: models.Owner{UserID: "u1"}, Amount: 5, Category: "coffee"}
		if _, err := s.Create(ctx, models.Expenses, e); err != nil {
			t.Fatalf("expense %d: %v", i, err)
		}
	}
}

func TestCreateRequiresUserID(t *testing.T) {
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	_, err := s.Create(context.Background(), models.Budgets, budget(" ", "food", 1))
	if !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Fatalf("status = %d", StatusCode(err))
	}
}

func TestCreateStoresTrimmedOwner(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	s := newTestEntityService(store, Hooks{})

	id, err := s.Create(ctx, models.Budgets, budget(" u1 ", "food", 100))
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, docstore.ItemPath("u1", "budgets", id))
	if err != nil {
		t.Fatal(err)
	}
	if owner := docstore.Children(got)["user_id"]; owner != "u1" {
		t.Fatalf("stored user_id = %q", owner)
	}
}

func TestCreateValidates(t *testing.T) {
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	e := &models.Expense{Owner: models.Owner{UserID: "u1"}, Amount: -2, Category: "food"}
	_, err := s.Create(context.Background(), models.Expenses, e)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) || StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})

	e := &models.Expense{Owner: models.Owner{UserID: "u1"}, Amount: 12.5, Category: "food", Notes: "lunch"}
	id, err := s.Create(ctx, models.Expenses, e)
	if err != nil {
		t.Fatal(err)
	}
	if id != "id-1" {
		t.Fatalf("id = %q", id)
	}

	rec, err := s.Fetch(ctx, models.Expenses, "u1", id)
	if err != nil {
		t.Fatal(err)
	}
	if rec["id"] != id || rec["amount"] != 12.5 || rec["payment_method"] != "cash" ||
		rec["date"] != "2024-05-15 10:30:00" || rec["notes"] != "lunch" {
		t.Fatalf("unexpected record %v", rec)
	}

	if _, err := s.Fetch(ctx, models.Expenses, "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Fetch(ctx, models.Expenses, "u1", ""); StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("empty item id: %v", err)
	}
}

func TestFetchAllEmptyIsNotFound(t *testing.T) {
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	_, err := s.FetchAll(context.Background(), models.Goals, "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMergesPresentFields(t *testing.T) {
	ctx := context.Background()
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	e := &models.Expense{Owner: models.Owner{UserID: "u1"}, Amount: 40, Category: "travel", Notes: "taxi"}
	id, err := s.Create(ctx, models.Expenses, e)
	if err != nil {
		t.Fatal(err)
	}

	err = s.Update(ctx, models.Expenses, "u1", id, models.ExpensePatch{
		Amount:      patch.Some(0.0),
		IsRecurring: patch.Some(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s.Fetch(ctx, models.Expenses, "u1", id)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"amount": 0.0, "is_recurring": true, "notes": "taxi", "category": "travel"}
	for k, v := range want {
		if !reflect.DeepEqual(rec[k], v) {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	id, err := s.Create(ctx, models.Goals, &models.Goal{Owner: models.Owner{UserID: "u1"}, Title: "car", TargetAmount: 1000})
	if err != nil {
		t.Fatal(err)
	}

	err = s.Update(ctx, models.Goals, "u1", id, models.GoalPatch{})
	if !errors.Is(err, patch.ErrNoFieldsProvided) || StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("empty patch: %v", err)
	}

	err = s.Update(ctx, models.Goals, "u1", "nope", models.GoalPatch{Title: patch.Some("bike")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing item: %v", err)
	}
	// the failed update must not create the item
	if _, err := s.Fetch(ctx, models.Goals, "u1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update created a record: %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{})
	id, err := s.Create(ctx, models.Bills, &models.Bill{Owner: models.Owner{UserID: "u1"}, Title: "power", Amount: 60, DueDate: "2024-06-01"})
	if err != nil {
		t.Fatal(err)
	}
	keep, err := s.Create(ctx, models.Bills, &models.Bill{Owner: models.Owner{UserID: "u1"}, Title: "water", Amount: 20, DueDate: "2024-06-03"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, models.Bills, "u1", id); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, models.Bills, "u1", id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Fetch(ctx, models.Bills, "u1", keep); err != nil {
		t.Fatalf("sibling removed: %v", err)
	}
}

func TestStoreFailureIsDependencyError(t *testing.T) {
	s := newTestEntityService(failingStore{}, Hooks{})
	_, err := s.Create(context.Background(), models.Budgets, budget("u1", "food", 1))
	var derr *DependencyError
	if !errors.As(err, &derr) || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected DependencyError, got %v", err)
	}
	if PublicMessage(err) != "Internal server error" {
		t.Fatalf("message leaks: %q", PublicMessage(err))
	}
}

func TestMutationHooks(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.9")
	audit := &recordingAudit{}
	inv := &countingInvalidator{}
	pub := &recordingPublisher{}
	s := newTestEntityService(docstore.NewMemoryStore(), Hooks{Audit: audit, Spending: inv, Notifier: pub})

	eid, err := s.Create(ctx, models.Expenses, &models.Expense{Owner: models.Owner{UserID: "u1"}, Amount: 3, Category: "food"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(ctx, models.Expenses, "u1", eid, models.ExpensePatch{Notes: patch.Some("x")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, models.Budgets, budget("u1", "food", 10)); err != nil {
		t.Fatal(err)
	}
	nid, err := s.Create(ctx, models.Notifications, &models.Notification{Owner: models.Owner{UserID: "u1"}, Message: "bill due"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, models.Expenses, "u1", eid); err != nil {
		t.Fatal(err)
	}

	want := []string{"expense:create", "expense:update", "budget:create", "notification:create", "expense:delete"}
	if got := audit.actions(); !reflect.DeepEqual(got, want) {
		t.Fatalf("audit = %v, want %v", got, want)
	}
	if audit.events[0].IPAddress != "203.0.113.9" {
		t.Fatalf("ip = %q", audit.events[0].IPAddress)
	}
	if inv.calls["u1"] != 3 {
		t.Fatalf("expense invalidations = %d, want 3", inv.calls["u1"])
	}
	if len(pub.published) != 1 || pub.published[0] != "u1/"+nid+"/bill due" {
		t.Fatalf("published = %v", pub.published)
	}
}
