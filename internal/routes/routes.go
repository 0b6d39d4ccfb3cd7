package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/brift-backend/internal/handlers"
	"github.com/AnshRaj112/brift-backend/internal/middleware"
)

// Options controls which route groups require a bearer token.
type Options struct {
	RequireAuth bool
	// RateLimit wraps the data routes (nil for none).
	RateLimit func(http.Handler) http.Handler
}

func SetupRoutes(r chi.Router, h *handlers.Handler, opts Options) {
	r.Get("/health", handlers.Health)

	// Auth routes
	r.Post("/auth/login", h.Login)
	r.Post("/auth/signin", h.Signin)
	if h.Authenticator != nil {
		r.With(h.Authenticator.Require).Post("/auth/logout", h.Logout)
	}

	// Account creation never requires a token.
	r.Post("/create/user", h.Create)
	r.Post("/create/users", h.Create)

	r.Group(func(r chi.Router) {
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		if opts.RequireAuth && h.Authenticator != nil {
			r.Use(h.Authenticator.Require)
		}

		// Entity routes; {entity} is singular or plural
		r.Post("/create/{entity}", h.Create)
		r.Post("/fetch/{entity}", h.Fetch)
		r.Patch("/update/{entity}", h.Update)
		r.Delete("/delete/{entity}", h.Delete)

		// Dashboard routes
		r.Post("/dashboard/total_spending", h.TotalSpending)
		r.Post("/dashboard/budgets", h.Budgets)
		r.Post("/dashboard/transactions", h.Transactions)
		r.With(middleware.AssistantRateLimit).Post("/dashboard/qna", h.QnA)

		// File upload routes
		r.Post("/upload/receipt", h.UploadReceipt)
	})

	// Realtime notifications; the handler authenticates itself
	r.Get("/ws/notifications", h.NotificationsWS)
}
