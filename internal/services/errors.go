package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

var (
	ErrMissingUserID      = errors.New("user_id is required")
	ErrDuplicateEntity    = errors.New("entity already exists")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrIncompleteUserData = errors.New("profile and settings with email and password are required")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTimezone    = errors.New("unknown timezone")
	ErrUnavailable        = errors.New("feature is not configured")
)

// DependencyError wraps a failure of the document store or another remote collaborator.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// InvalidExpenseError reports a stored expense the aggregator cannot read.
type InvalidExpenseError struct {
	ExpenseID string
	Reason    string
}

func (e *InvalidExpenseError) Error() string {
	return fmt.Sprintf("expense %s: %s", e.ExpenseID, e.Reason)
}

// storeError maps a docstore failure onto the service taxonomy.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, docstore.ErrInvalidPath):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return &DependencyError{Op: op, Err: err}
	}
}

// StatusCode maps an error to the HTTP status reported to clients.
func StatusCode(err error) int {
	var verr *utils.ValidationError
	var ierr *InvalidExpenseError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr),
		errors.Is(err, patch.ErrNoFieldsProvided),
		errors.Is(err, docstore.ErrInvalidPath),
		errors.Is(err, ErrIncompleteUserData),
		errors.Is(err, ErrInvalidTimezone):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingUserID), errors.Is(err, ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateEntity), errors.Is(err, ErrUserAlreadyExists), errors.Is(err, docstore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &ierr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to clients; server errors stay generic.
func PublicMessage(err error) string {
	if StatusCode(err) >= http.StatusInternalServerError && !errors.Is(err, ErrUnavailable) {
		return "Internal server error"
	}
	return err.Error()
}
