// Package memory provides an in-process document store.
// It backs tests, demos and the sync server when no persistence is wanted.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/aquarium/pkg/core"
)

// Config holds the configuration for the memory store.
type Config struct {
	Logger *slog.Logger
	// Buffer is the number of pending snapshots each watcher may hold.
	Buffer int
}

type entry struct {
	data    []byte
	version int64
}

// Store implements core.Store, core.Watchable and core.Patchable in memory.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]entry
	broker *core.Broker
	config Config
}

// NewStore creates an empty memory store.
func NewStore(config Config) *Store {
	return &Store{
		docs:   make(map[string]entry),
		broker: core.NewBroker(config.Buffer),
		config: config,
	}
}

// Initialize is a no-op; the store is ready on creation.
func (s *Store) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the current snapshot for key.
func (s *Store) Get(ctx context.Context, key string) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(key), nil
}

// Write stores data under key and notifies watchers.
func (s *Store) Write(ctx context.Context, key string, data []byte, opts core.WriteOptions) error {
	return s.update(ctx, key, func(current []byte, exists bool) ([]byte, error) {
		return core.ApplyWrite(current, exists, data, opts)
	})
}

// Patch applies RFC 6902 ops to the document under key and notifies watchers.
func (s *Store) Patch(ctx context.Context, key string, ops []byte) error {
	return s.update(ctx, key, func(current []byte, exists bool) ([]byte, error) {
		return core.ApplyPatch(current, exists, ops)
	})
}

// Watch subscribes to the snapshots of key.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Snapshot, error) {
	if key == "" {
		return nil, core.ErrEmptyRoom
	}
	s.mu.RLock()
	initial := s.snapshot(key)
	ch := s.broker.Subscribe(ctx, key, initial)
	s.mu.RUnlock()
	return ch, nil
}

func (s *Store) update(ctx context.Context, key string, fn func([]byte, bool) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return core.ErrEmptyRoom
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.docs[key]
	next, err := fn(current.data, exists)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}

	s.docs[key] = entry{data: next, version: current.version + 1}
	if s.config.Logger != nil {
		s.config.Logger.Debug("document updated", "key", key, "version", current.version+1)
	}
	// Publishing under the write lock keeps notifications in write order.
	s.broker.Publish(s.snapshot(key))
	return nil
}

func (s *Store) snapshot(key string) core.Snapshot {
	e, ok := s.docs[key]
	if !ok {
		return core.Snapshot{Key: key}
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return core.Snapshot{Key: key, Exists: true, Data: data, Version: e.version}
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Documents int `json:"documents"`
	Watchers  int `json:"watchers"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{
		Documents: len(s.docs),
		Watchers:  s.broker.Watchers(),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Watchable               = (*Store)(nil)
	_ core.Patchable               = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
