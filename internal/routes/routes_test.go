package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/brift-backend/internal/auth"
	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/handlers"
	"github.com/AnshRaj112/brift-backend/internal/models"
	"github.com/AnshRaj112/brift-backend/internal/services"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

type testServer struct {
	router http.Handler
	hub    *services.NotificationHub
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store := docstore.NewMemoryStore()
	cipher, err := utils.NewCipher("route tests")
	if err != nil {
		t.Fatal(err)
	}
	hub := services.NewNotificationHub(nil, nil)
	hooks := services.Hooks{Notifier: hub}
	entities := services.NewEntityService(store, hooks, nil)
	users := services.NewUserService(store, cipher, hooks, nil)
	spending := services.NewSpendingAggregator(store, nil, nil)
	tokens := auth.NewTokenManager("route-test-secret", "brift", time.Hour)

	h := handlers.New(handlers.Deps{
		Entities:      entities,
		Users:         users,
		Dashboard:     services.NewDashboardService(entities, users, spending, nil, time.Local),
		Receipts:      services.NewReceiptService(nil, entities),
		Hub:           hub,
		Tokens:        tokens,
		Authenticator: auth.NewAuthenticator(tokens, nil, nil),
	})
	r := chi.NewRouter()
	SetupRoutes(r, h, opts)
	return &testServer{router: r, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad JSON %q", method, path, rec.Body.String())
		}
		if env.StatusCode != rec.Code {
			t.Fatalf("%s %s: envelope status %d, HTTP %d", method, path, env.StatusCode, rec.Code)
		}
	}
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("data %s: %v", env.Data, err)
	}
	return v
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/create/user", map[string]any{
		"name": "Asha", "email": email, "password": "hunter22", "timezone": "UTC",
	}, "")
	if code != http.StatusCreated || env.ID == "" || !env.Success {
		t.Fatalf("signup: %d %+v", code, env)
	}
	return env.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestServer(t, Options{})
	uid := s.signup(t, "asha@example.com")

	code, env := s.do(t, http.MethodPost, "/create/users", map[string]any{"email": "ASHA@example.com", "password": "x"}, "")
	if code != http.StatusConflict || env.Success {
		t.Fatalf("duplicate signup: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodPost, "/fetch/user", map[string]any{"user_id": uid}, "")
	if code != http.StatusOK {
		t.Fatalf("fetch user: %d %+v", code, env)
	}
	user := decodeData[models.User](t, env)
	if user.Profile.Email != "asha@example.com" || user.Profile.Password != "" || user.Settings.Currency != "INR" {
		t.Fatalf("unexpected user %+v", user)
	}

	code, _ = s.do(t, http.MethodPatch, "/update/user", map[string]any{"user_id": uid, "currency": "USD"}, "")
	if code != http.StatusOK {
		t.Fatalf("update user: %d", code)
	}
	_, env = s.do(t, http.MethodPost, "/fetch/user", map[string]any{"user_id": uid}, "")
	if user := decodeData[models.User](t, env); user.Settings.Currency != "USD" || user.Settings.Region != "IND" {
		t.Fatalf("settings after patch %+v", user.Settings)
	}

	code, _ = s.do(t, http.MethodDelete, "/delete/user", map[string]any{"user_id": uid}, "")
	if code != http.StatusOK {
		t.Fatalf("delete user: %d", code)
	}
	code, _ = s.do(t, http.MethodPost, "/fetch/user", map[string]any{"user_id": uid}, "")
	if code != http.StatusNotFound {
		t.Fatalf("fetch deleted user: %d", code)
	}
}

func TestEntityCRUD(t *testing.T) {
	s := newTestServer(t, Options{})
	uid := s.signup(t, "asha@example.com")

	code, env := s.do(t, http.MethodPost, "/create/budget", map[string]any{"user_id": uid, "category": "food", "amount_limit": 300}, "")
	if code != http.StatusCreated || env.Message != "Budget created successfully" {
		t.Fatalf("create budget: %d %+v", code, env)
	}
	budgetID := decodeData[map[string]string](t, env)["budget_id"]
	if budgetID == "" || budgetID != env.ID {
		t.Fatalf("budget id %q / %q", budgetID, env.ID)
	}

	code, _ = s.do(t, http.MethodPost, "/create/budgets", map[string]any{"user_id": uid, "category": "food", "amount_limit": 10}, "")
	if code != http.StatusConflict {
		t.Fatalf("duplicate budget: %d", code)
	}

	code, env = s.do(t, http.MethodPost, "/fetch/budget", map[string]any{"user_id": uid, "budget_id": budgetID}, "")
	if code != http.StatusOK {
		t.Fatalf("fetch budget: %d", code)
	}
	rec := decodeData[map[string]any](t, env)
	if rec["category"] != "food" || rec["amount_limit"] != 300.0 || rec["id"] != budgetID {
		t.Fatalf("budget %v", rec)
	}

	code, _ = s.do(t, http.MethodPatch, "/update/budget", map[string]any{"user_id": uid, "budget_id": budgetID, "amount_limit": 0}, "")
	if code != http.StatusOK {
		t.Fatalf("update budget: %d", code)
	}
	code, env = s.do(t, http.MethodPatch, "/update/budget", map[string]any{"user_id": uid, "budget_id": budgetID}, "")
	if code != http.StatusBadRequest || env.Message != "no fields provided for update" {
		t.Fatalf("empty update: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodPost, "/fetch/budgets", map[string]any{"user_id": uid}, "")
	all := decodeData[map[string]map[string]any](t, env)
	if code != http.StatusOK || len(all) != 1 || all[budgetID]["amount_limit"] != 0.0 {
		t.Fatalf("fetch all: %d %v", code, all)
	}

	for i := 0; i < 2; i++ {
		code, _ = s.do(t, http.MethodDelete, "/delete/budget", map[string]any{"user_id": uid, "budget_id": budgetID}, "")
		if code != http.StatusOK {
			t.Fatalf("delete #%d: %d", i, code)
		}
	}
	code, _ = s.do(t, http.MethodPost, "/fetch/budgets", map[string]any{"user_id": uid}, "")
	if code != http.StatusNotFound {
		t.Fatalf("fetch empty collection: %d", code)
	}
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t, Options{})
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown entity", http.MethodPost, "/create/pets", map[string]any{"user_id": "u1"}, http.StatusNotFound},
		{"missing user id", http.MethodPost, "/create/expense", map[string]any{"amount": 5, "category": "food"}, http.StatusNotFound},
		{"negative amount", http.MethodPost, "/create/expense", map[string]any{"user_id": "u1", "amount": -5, "category": "food"}, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/create/expense", "{not json", http.StatusBadRequest},
		{"missing item id", http.MethodDelete, "/delete/goal", map[string]any{"user_id": "u1"}, http.StatusBadRequest},
		{"update missing item", http.MethodPatch, "/update/goal", map[string]any{"user_id": "u1", "goal_id": "g1", "title": "car"}, http.StatusNotFound},
		{"incomplete signup", http.MethodPost, "/create/user", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"bad timezone", http.MethodPost, "/dashboard/total_spending", map[string]any{"user_id": "u1", "timezone": "Nowhere/Land"}, http.StatusBadRequest},
		{"assistant disabled", http.MethodPost, "/dashboard/qna", map[string]any{"user_id": "u1", "query": "hi"}, http.StatusServiceUnavailable},
		{"fetch is POST", http.MethodGet, "/fetch/expense", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := s.do(t, tc.method, tc.path, tc.body, "")
			if code != tc.want {
				t.Fatalf("status %d, want %d (%+v)", code, tc.want, env)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, Options{})
	uid := s.signup(t, "asha@example.com")

	code, env := s.do(t, http.MethodPost, "/dashboard/total_spending", map[string]any{"user_id": uid}, "")
	if code != http.StatusOK || env.Message != "No expenses recorded" {
		t.Fatalf("empty spending: %d %+v", code, env)
	}
	code, env = s.do(t, http.MethodPost, "/dashboard/budgets", map[string]any{"user_id": uid}, "")
	if code != http.StatusOK || string(env.Data) != "{}" {
		t.Fatalf("empty budgets: %d %s", code, env.Data)
	}

	today := time.Now().UTC().Format("2006-01-02")
	for _, amount := range []float64{12.5, 7.5} {
		code, _ = s.do(t, http.MethodPost, "/create/expense", map[string]any{
			"user_id": uid, "amount": amount, "category": "food", "date": today + " 08:00:00",
		}, "")
		if code != http.StatusCreated {
			t.Fatalf("create expense: %d", code)
		}
	}

	_, env = s.do(t, http.MethodPost, "/dashboard/total_spending", map[string]any{"user_id": uid}, "")
	summary := decodeData[struct {
		Totals map[string]json.Number `json:"totals"`
		Empty  bool                   `json:"empty"`
		Count  int                    `json:"expense_count"`
	}](t, env)
	if summary.Empty || summary.Count != 2 || summary.Totals["today"] != "20" || summary.Totals["all_time"] != "20" {
		t.Fatalf("summary %+v", summary)
	}

	code, env = s.do(t, http.MethodPost, "/dashboard/transactions", map[string]any{"user_id": uid}, "")
	if txs := decodeData[[]map[string]any](t, env); code != http.StatusOK || len(txs) != 2 {
		t.Fatalf("transactions: %d %v", code, txs)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, Options{RequireAuth: true})

	code, env := s.do(t, http.MethodPost, "/auth/signin", map[string]any{"email": "asha@example.com", "password": "hunter22"}, "")
	if code != http.StatusCreated {
		t.Fatalf("signin: %d %+v", code, env)
	}
	signup := decodeData[handlers.TokenResponse](t, env)
	if signup.AccessToken == "" || signup.TokenType != "bearer" || signup.UserID != env.ID || signup.ExpiresIn != 3600 {
		t.Fatalf("token response %+v", signup)
	}

	code, _ = s.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "asha@example.com", "password": "nope"}, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", code)
	}
	code, env = s.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "asha@example.com", "password": "hunter22"}, "")
	if code != http.StatusOK {
		t.Fatalf("login: %d", code)
	}
	token := decodeData[handlers.TokenResponse](t, env).AccessToken
	uid := env.ID

	body := map[string]any{"user_id": uid, "title": "car", "target_amount": 5000}
	if code, _ = s.do(t, http.MethodPost, "/create/goal", body, ""); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code, _ = s.do(t, http.MethodPost, "/create/goal", body, token); code != http.StatusCreated {
		t.Fatalf("with token: %d", code)
	}
	other := map[string]any{"user_id": "someone-else", "title": "car", "target_amount": 5000}
	if code, _ = s.do(t, http.MethodPost, "/create/goal", other, token); code != http.StatusForbidden {
		t.Fatalf("other user's data: %d", code)
	}

	if code, _ = s.do(t, http.MethodPost, "/auth/logout", nil, token); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	if code, _ = s.do(t, http.MethodPost, "/auth/logout", nil, ""); code != http.StatusUnauthorized {
		t.Fatalf("logout without token: %d", code)
	}
}

func TestNotificationStream(t *testing.T) {
	s := newTestServer(t, Options{})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	_, env := s.do(t, http.MethodPost, "/auth/signin", map[string]any{"email": "asha@example.com", "password": "hunter22"}, "")
	tok := decodeData[handlers.TokenResponse](t, env)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + tok.AccessToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Connections(tok.UserID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	code, _ := s.do(t, http.MethodPost, "/create/notification", map[string]any{"user_id": tok.UserID, "message": "rent due tomorrow"}, "")
	if code != http.StatusCreated {
		t.Fatalf("create notification: %d", code)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev services.NotificationEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "notification.created" || ev.Notification == nil || ev.Notification.Message != "rent due tomorrow" {
		t.Fatalf("event %+v", ev)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/notifications", nil); err == nil {
		t.Fatal("stream opened without a token")
	}
}

func TestReceiptUploadUnavailable(t *testing.T) {
	s := newTestServer(t, Options{})
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodPost, "/upload/receipt", &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
}
