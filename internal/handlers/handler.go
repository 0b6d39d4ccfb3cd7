// Package handlers implements the HTTP API.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/brift-backend/internal/auth"
	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/services"
)

// Deps are the collaborators of the HTTP handlers. Receipts, Hub and Sessions may be nil.
type Deps struct {
	Entities      *services.EntityService
	Users         *services.UserService
	Dashboard     *services.DashboardService
	Receipts      *services.ReceiptService
	Sessions      *services.SessionStore
	Hub           *services.NotificationHub
	Tokens        *auth.TokenManager
	Authenticator *auth.Authenticator
	StoreTimeout  time.Duration
	Log           *logger.Logger
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = 10 * time.Second
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Handler{Deps: d}
}

// storeContext bounds the store calls made for one request.
func (h *Handler) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.StoreTimeout)
}

// authorize rejects a request whose token subject differs from the user it acts on. Requests
// without a token (auth disabled) pass.
func authorize(r *http.Request, userID string) error {
	claims, ok := auth.ClaimsFromContext(r.Context())
	userID = strings.TrimSpace(userID)
	if !ok || userID == "" {
		return nil
	}
	if claims.Subject != userID {
		return services.ErrForbidden
	}
	return nil
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
