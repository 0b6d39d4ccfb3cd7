// Package docstore is the client for the hierarchical, path-addressed document store that
// holds every user record.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound means nothing is stored at the path.
	ErrNotFound = errors.New("docstore: not found")
	// ErrConflict means the store rejected a write on a unique constraint.
	ErrConflict = errors.New("docstore: conflict")
	// ErrInvalidPath means a path or field key breaks the key rules.
	ErrInvalidPath = errors.New("docstore: invalid path")
)

// Store is implemented by every backend. Values are JSON-like trees: map[string]any,
// []any, string, float64/int, bool.
type Store interface {
	Get(ctx context.Context, path string) (any, error)
	Set(ctx context.Context, path string, value any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	FindByField(ctx context.Context, collectionPath, fieldPath string, value any) (map[string]any, error)
}

// Decode converts a stored tree into dst through its JSON representation.
func Decode(src any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("docstore: encode: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// Encode converts a typed value into a stored tree.
func Encode(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return out, nil
}

// Children returns the child map of a collection node, or nil when node is not a map.
func Children(node any) map[string]any {
	m, _ := node.(map[string]any)
	return m
}
