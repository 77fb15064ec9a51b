package aquarium

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/aquarium/internal/platform"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
)

// --- Types ---

// Session is a connected planner: one room, one document cache, one event loop.
type Session = session.Session

// Document is the shared state of a room.
type Document = core.Document

// Action is a user intent handled by Session.Dispatch.
type Action = planner.Action

// --- Adapters ---

const (
	AdapterFS     = platform.AdapterFS
	AdapterMemory = platform.AdapterMemory
	AdapterSQLite = platform.AdapterSQLite
	AdapterRemote = platform.AdapterRemote
)

// --- Configuration ---

// Option defines a functional option for configuring aquarium.
type Option = platform.Option

// WithAutoInit creates the store (directory, git repo, database) when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git history for the fs adapter.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the store directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the store and the session.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory of the fs adapter (e.g. ".aquarium").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithFormat sets the room file format of the fs adapter (json or yaml).
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithEventBuffer sets how many snapshots each watcher may hold pending.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithDebounce sets the quiet period of the fs watcher.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithReadOnly opens the store read-only.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithSessionOptions passes options to the session built by New.
func WithSessionOptions(opts ...session.Option) Option {
	return platform.WithSessionOptions(opts...)
}

// --- Factory ---

// New creates a session over the store selected by the options.
func New(uri string, opts ...Option) (*Session, error) {
	return platform.New(uri, opts...)
}

// Init creates and initializes a store explicitly.
func Init(uri string, opts ...Option) (core.Store, error) {
	return platform.Init(uri, opts...)
}

// --- Operations ---

// ErrNoHistory is returned by History for stores without a change log.
var ErrNoHistory = platform.ErrNoHistory

// History returns up to n change summaries of room, newest first.
func History(ctx context.Context, store core.Store, room string, n int) ([]string, error) {
	return platform.History(ctx, store, room, n)
}

// --- Safety & Utils ---

// ResolveStorePath determines the actual store path based on safety rules.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindStoreRoot looks upwards for an fs store root.
func FindStoreRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// DefaultDataDir is the store location used when none is configured.
func DefaultDataDir() string {
	return platform.DefaultDataDir()
}
