package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/brift-backend/internal/services"
)

// DashboardRequest is the body of the dashboard endpoints.
type DashboardRequest struct {
	UserID   string `json:"user_id"`
	Timezone string `json:"timezone,omitempty"`
	Query    string `json:"query,omitempty"`
}

func (h *Handler) decodeDashboard(w http.ResponseWriter, r *http.Request) (DashboardRequest, bool) {
	var req DashboardRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return req, false
	}
	if err := authorize(r, req.UserID); err != nil {
		writeError(w, r, err)
		return req, false
	}
	return req, true
}

// TotalSpending handles POST /dashboard/total_spending.
func (h *Handler) TotalSpending(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDashboard(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()
	summary, err := h.Dashboard.TotalSpending(ctx, req.UserID, req.Timezone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "Total spending computed successfully"
	if summary.Empty {
		msg = "No expenses recorded"
	}
	writeJSON(w, http.StatusOK, Response{Message: msg, ID: req.UserID, Data: summary})
}

// Budgets handles POST /dashboard/budgets.
func (h *Handler) Budgets(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDashboard(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()
	budgets, err := h.Dashboard.Budgets(ctx, req.UserID)
	if errors.Is(err, services.ErrNotFound) {
		budgets, err = map[string]any{}, nil
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Budgets fetched successfully", ID: req.UserID, Data: budgets})
}

// Transactions handles POST /dashboard/transactions.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDashboard(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()
	txs, err := h.Dashboard.Transactions(ctx, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Transactions fetched successfully", ID: req.UserID, Data: txs})
}

// QnA handles POST /dashboard/qna.
func (h *Handler) QnA(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDashboard(w, r)
	if !ok {
		return
	}
	// The assistant call is slower than a store round trip; it keeps the request deadline.
	answer, err := h.Dashboard.Ask(r.Context(), req.UserID, req.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Answer generated", ID: req.UserID, Data: map[string]string{"answer": answer}})
}
