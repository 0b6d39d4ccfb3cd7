package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/services"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// Response is the envelope of every JSON response.
type Response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	ID         string `json:"id,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	resp.StatusCode = status
	resp.Success = status < http.StatusBadRequest
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeError maps err to its status. Server errors are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.StatusCode(err)
	if errors.Is(err, errInvalidBody) {
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			logger.FieldPath, r.URL.Path, logger.FieldError, err)
	}
	msg := services.PublicMessage(err)
	if errors.Is(err, errInvalidBody) {
		msg = "Invalid request body"
	}
	writeJSON(w, status, Response{Message: msg})
}

// readBody returns the request body, limited to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errInvalidBody
	}
	return data, nil
}

// decodeBody reads one JSON object into each of dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst ...any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	for _, d := range dst {
		if err := json.Unmarshal(data, d); err != nil {
			return errInvalidBody
		}
	}
	return nil
}
