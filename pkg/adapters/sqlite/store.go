// Package sqlite stores room documents in a SQLite database. Several
// processes may share the file; watchers are notified of writes made
// through the same Store.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aretw0/aquarium/pkg/core"
)

var errNotOpen = errors.New("sqlite store: not initialized")

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	version    INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Config holds the configuration for the SQLite store.
type Config struct {
	// Path is the database file. ":memory:" requires PoolSize 1.
	Path string
	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int
	Logger   *slog.Logger
	// Buffer is the number of pending snapshots each watcher may hold.
	Buffer int
}

// Store implements core.Store, core.Watchable and core.Patchable on SQLite.
type Store struct {
	config Config
	pool   *sqlitex.Pool
	broker *core.Broker

	// mu keeps notifications in commit order.
	mu     sync.Mutex
	writes int64
}

// NewStore creates a SQLite store. Call Initialize before use.
func NewStore(config Config) *Store {
	return &Store{
		config: config,
		broker: core.NewBroker(config.Buffer),
	}
}

// Initialize opens the connection pool and creates the schema.
func (s *Store) Initialize(ctx context.Context) error {
	if s.pool != nil {
		return nil
	}
	if s.config.Path == "" {
		return fmt.Errorf("sqlite store: path is required")
	}

	poolSize := s.config.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}

	pool, err := sqlitex.NewPool(s.config.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return fmt.Errorf("sqlite store: opening %s: %w", s.config.Path, err)
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("sqlite store: take: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return fmt.Errorf("sqlite store: schema: %w", err)
	}

	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()
	if s.config.Logger != nil {
		s.config.Logger.Info("sqlite store opened", "path", s.config.Path, "pool_size", poolSize)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	pool := s.pool
	s.pool = nil
	s.mu.Unlock()
	if pool == nil {
		return nil
	}
	if err := pool.Close(); err != nil {
		return fmt.Errorf("sqlite store: closing %s: %w", s.config.Path, err)
	}
	return nil
}

func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite store: %s: %w", pragma, err)
		}
	}
	return nil
}

// Get returns the current snapshot for key.
func (s *Store) Get(ctx context.Context, key string) (core.Snapshot, error) {
	if key == "" {
		return core.Snapshot{}, core.ErrEmptyRoom
	}
	conn, release, err := s.take(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	defer release()
	return readRoom(conn, key)
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
	conn, release, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// Holding mu means no write can publish between the read and the subscribe.
	s.mu.Lock()
	defer s.mu.Unlock()
	initial, err := readRoom(conn, key)
	if err != nil {
		return nil, err
	}
	return s.broker.Subscribe(ctx, key, initial), nil
}

func (s *Store) update(ctx context.Context, key string, fn func([]byte, bool) ([]byte, error)) error {
	if key == "" {
		return core.ErrEmptyRoom
	}
	conn, release, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.commit(conn, key, fn)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}

	s.writes++
	if s.config.Logger != nil {
		s.config.Logger.Debug("room row written", "key", key, "version", snap.Version)
	}
	s.broker.Publish(snap)
	return nil
}

// commit runs the read-modify-write in an immediate transaction so that
// other processes sharing the file cannot interleave.
func (s *Store) commit(conn *sqlite.Conn, key string, fn func([]byte, bool) ([]byte, error)) (snap core.Snapshot, err error) {
	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	current, err := readRoom(conn, key)
	if err != nil {
		return core.Snapshot{}, err
	}

	next, err := fn(current.Data, current.Exists)
	if err != nil {
		return core.Snapshot{}, err
	}

	version := current.Version + 1
	err = sqlitex.Execute(conn, `
		INSERT INTO rooms (key, data, version, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, version = excluded.version, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{key, next, version, time.Now().UnixNano()},
		})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("upsert room: %w", err)
	}
	return core.Snapshot{Key: key, Exists: true, Data: next, Version: version}, nil
}

func readRoom(conn *sqlite.Conn, key string) (core.Snapshot, error) {
	snap := core.Snapshot{Key: key}
	err := sqlitex.Execute(conn, "SELECT data, version FROM rooms WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			snap.Exists = true
			snap.Data = data
			snap.Version = stmt.ColumnInt64(1)
			return nil
		},
	})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read room: %w", err)
	}
	return snap, nil
}

// take borrows a connection; release returns it to the pool it came from.
func (s *Store) take(ctx context.Context) (*sqlite.Conn, func(), error) {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	if pool == nil {
		return nil, nil, errNotOpen
	}
	conn, err := pool.Take(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite store: take: %w", err)
	}
	return conn, func() { pool.Put(conn) }, nil
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Path     string `json:"path"`
	Open     bool   `json:"open"`
	Watchers int    `json:"watchers"`
	Writes   int64  `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreState{
		Path:     s.config.Path,
		Open:     s.pool != nil,
		Watchers: s.broker.Watchers(),
		Writes:   s.writes,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Watchable               = (*Store)(nil)
	_ core.Patchable               = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
