// Package patch builds sparse update documents. A field is either absent or present with a
// value; zero values such as 0, false and "" count as present.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNoFieldsProvided is returned when a patch carries no present field.
var ErrNoFieldsProvided = errors.New("no fields provided for update")

// Optional holds a value together with its presence flag.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// UnmarshalJSON marks the field present unless the JSON value is null. Keys missing from the
// object never reach this method, so they stay absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Optional[T]{Value: v, Set: true}
	return nil
}

// MarshalJSON writes the value, or null when absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Document is a sparse update: field name to new value.
type Document map[string]any

// Builder accumulates present fields.
type Builder struct {
	doc Document
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{doc: Document{}}
}

// Field adds name to b when o is present.
func Field[T any](b *Builder, name string, o Optional[T]) *Builder {
	if v, ok := o.Get(); ok {
		b.doc[name] = v
	}
	return b
}

// Prefixed adds every present field of another document under prefix/name.
func (b *Builder) Prefixed(prefix string, d Document) *Builder {
	for k, v := range d {
		b.doc[prefix+"/"+k] = v
	}
	return b
}

// Build returns the collected document, or ErrNoFieldsProvided when it is empty.
func (b *Builder) Build() (Document, error) {
	if len(b.doc) == 0 {
		return nil, ErrNoFieldsProvided
	}
	out := make(Document, len(b.doc))
	for k, v := range b.doc {
		out[k] = v
	}
	return out, nil
}
