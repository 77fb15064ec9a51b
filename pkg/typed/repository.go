// Package typed layers type-safe access over a core.Store.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/aquarium/pkg/core"
)

// Model is a typed view of one stored document.
type Model[T any] struct {
	Key     string
	Exists  bool
	Version int64
	Data    T        // The decoded document
	Saver   Saver[T] // Active Record reference interface
}

// Saver avoids tight coupling between Model and Repository.
type Saver[T any] interface {
	Save(ctx context.Context, m *Model[T]) error
}

// Save persists the model using the attached saver.
func (m *Model[T]) Save(ctx context.Context) error {
	if m.Saver == nil {
		return fmt.Errorf("model is detached (missing Saver)")
	}
	return m.Saver.Save(ctx, m)
}

// normalizer is implemented by documents that fill in defaults after decoding.
type normalizer interface {
	Normalize()
}

// Op is one RFC 6902 JSON Patch operation.
type Op struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Repository wraps a core.Store to provide type-safe access.
type Repository[T any] struct {
	store core.Store
}

// NewRepository creates a new type-safe wrapper around an existing store.
func NewRepository[T any](store core.Store) *Repository[T] {
	return &Repository[T]{store: store}
}

// Store returns the wrapped store.
func (r *Repository[T]) Store() core.Store {
	return r.store
}

// Get retrieves the document under key and decodes it.
// A missing document decodes to the zero value of T (normalized if supported).
func (r *Repository[T]) Get(ctx context.Context, key string) (*Model[T], error) {
	snap, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return fromSnapshot[T](snap, r)
}

// Save replaces the stored document with m.Data.
func (r *Repository[T]) Save(ctx context.Context, m *Model[T]) error {
	data, err := json.Marshal(m.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal typed data: %w", err)
	}
	if m.Saver == nil {
		m.Saver = r
	}
	return r.store.Write(ctx, m.Key, data, core.WriteOptions{})
}

// Merge applies patch to the stored document as a JSON Merge Patch.
// Raw JSON ([]byte or json.RawMessage) is passed through as is.
func (r *Repository[T]) Merge(ctx context.Context, key string, patch any) error {
	var data []byte
	switch p := patch.(type) {
	case []byte:
		data = p
	case json.RawMessage:
		data = p
	default:
		var err error
		if data, err = json.Marshal(patch); err != nil {
			return fmt.Errorf("failed to marshal merge patch: %w", err)
		}
	}
	return r.store.Write(ctx, key, data, core.WriteOptions{Merge: true})
}

// Patch applies ops to the stored document. The store must implement core.Patchable.
func (r *Repository[T]) Patch(ctx context.Context, key string, ops ...Op) error {
	p, ok := r.store.(core.Patchable)
	if !ok {
		return core.ErrNotPatchable
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("failed to marshal json patch: %w", err)
	}
	return p.Patch(ctx, key, data)
}

func fromSnapshot[T any](snap core.Snapshot, saver Saver[T]) (*Model[T], error) {
	var data T
	if snap.Exists && len(snap.Data) > 0 {
		if err := json.Unmarshal(snap.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal into type %T: %w", new(T), err)
		}
	}
	if n, ok := any(&data).(normalizer); ok {
		n.Normalize()
	}
	return &Model[T]{
		Key:     snap.Key,
		Exists:  snap.Exists,
		Version: snap.Version,
		Data:    data,
		Saver:   saver,
	}, nil
}
