package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/AnshRaj112/brift-backend/internal/services"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

const maxUploadBytes = 10 << 20

// UploadReceipt handles POST /upload/receipt (multipart: user_id, expense_id, file).
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	if !h.Receipts.Enabled() {
		writeError(w, r, fmt.Errorf("receipt uploads: %w", services.ErrUnavailable))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Failed to parse form"})
		return
	}
	userID := strings.TrimSpace(r.FormValue("user_id"))
	expenseID := strings.TrimSpace(r.FormValue("expense_id"))
	if err := authorize(r, userID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := utils.Required("expense_id", expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "No file provided"})
		return
	}
	file.Close()

	url, err := h.Receipts.Attach(r.Context(), userID, expenseID, fileHeader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Message: "Receipt uploaded successfully",
		ID:      expenseID,
		Data:    map[string]string{"receipt_url": url},
	})
}
