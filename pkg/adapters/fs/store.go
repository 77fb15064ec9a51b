// Package fs stores room documents as files, one per room, optionally
// versioned with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/git"
)

// RoomsDir is the directory under the store root holding the room files.
const RoomsDir = "rooms"

// Config holds the configuration for the filesystem store.
type Config struct {
	Path string
	// Format is the extension of new room files (".json" or ".yaml").
	Format string
	// AutoInit creates the root directory (and git repo) when missing.
	AutoInit bool
	// Gitless disables git versioning.
	Gitless bool
	// MustExist fails Initialize when Path does not exist.
	MustExist bool
	// ReadOnly rejects every write with core.ErrReadOnly.
	ReadOnly bool
	Logger   *slog.Logger
	// SystemDir holds the git lock file, relative to Path (default ".aquarium").
	SystemDir string
	// Debounce is the quiet period before a file change is published.
	Debounce time.Duration
	// ErrorHandler receives watcher errors. Nil logs them.
	ErrorHandler func(error)
}

// Store implements core.Store, core.Watchable and core.Patchable on top of
// the filesystem.
type Store struct {
	Path        string
	config      Config
	git         *git.Client
	serializers map[string]Serializer

	// mu serializes writers inside the process; the git lock covers other processes.
	mu       sync.Mutex
	stateMu  sync.RWMutex
	watchers int
	writes   int64
	lastSeen *time.Time
}

// NewStore creates a filesystem store. Call Initialize before use.
func NewStore(config Config) *Store {
	if config.Format == "" {
		config.Format = ".json"
	}
	if !strings.HasPrefix(config.Format, ".") {
		config.Format = "." + config.Format
	}
	if config.SystemDir == "" {
		config.SystemDir = ".aquarium"
	}
	if config.Debounce <= 0 {
		config.Debounce = 50 * time.Millisecond
	}
	lockName := filepath.Join(config.SystemDir, "write.lock")
	return &Store{
		Path:        config.Path,
		config:      config,
		git:         git.NewClient(config.Path, lockName, config.Logger),
		serializers: DefaultSerializers(),
	}
}

// Initialize prepares the directory layout and, unless gitless, the git repo.
func (s *Store) Initialize(ctx context.Context) error {
	if _, ok := s.serializers[s.config.Format]; !ok {
		return fmt.Errorf("unsupported room file format %q", s.config.Format)
	}

	if _, err := os.Stat(s.Path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat %s: %w", s.Path, err)
		}
		if s.config.MustExist || !s.config.AutoInit {
			return fmt.Errorf("store path %s does not exist: %w", s.Path, core.ErrNotFound)
		}
	}

	if s.config.ReadOnly {
		return nil
	}

	for _, dir := range []string{s.roomsDir(), filepath.Join(s.Path, s.config.SystemDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if removed, err := sweepTempFiles(s.roomsDir(), time.Minute); err != nil {
		return err
	} else if removed > 0 && s.config.Logger != nil {
		s.config.Logger.Warn("removed unfinished room writes", "count", removed)
	}

	if s.config.Gitless {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed; use gitless mode")
	}
	if s.git.IsRepo() {
		return nil
	}
	if s.config.Logger != nil {
		s.config.Logger.Info("initializing git repository", "path", s.Path)
	}
	if err := s.git.Init(); err != nil {
		return fmt.Errorf("failed to init git: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.Path, ".gitignore"), []byte(s.config.SystemDir+"/\n"+TempFilePrefix+"*\n"), 0644)
}

// Get returns the snapshot of key. The version is the file's modification time.
func (s *Store) Get(ctx context.Context, key string) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	if key == "" {
		return core.Snapshot{}, core.ErrEmptyRoom
	}
	return s.read(key)
}

// Write stores data under key.
func (s *Store) Write(ctx context.Context, key string, data []byte, opts core.WriteOptions) error {
	return s.update(ctx, key, "write", func(current []byte, exists bool) ([]byte, error) {
		return core.ApplyWrite(current, exists, data, opts)
	})
}

// Patch applies RFC 6902 ops to the document under key.
func (s *Store) Patch(ctx context.Context, key string, ops []byte) error {
	return s.update(ctx, key, "patch", func(current []byte, exists bool) ([]byte, error) {
		return core.ApplyPatch(current, exists, ops)
	})
}

// Watch delivers the current snapshot of key, then a new one whenever its
// file changes on disk, whoever changed it.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Snapshot, error) {
	if key == "" {
		return nil, core.ErrEmptyRoom
	}
	if info, err := os.Stat(s.roomsDir()); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("rooms directory %s is not available: %w", s.roomsDir(), core.ErrNotWatchable)
	}

	initial, err := s.read(key)
	if err != nil {
		return nil, err
	}

	broker := core.NewBroker(1)
	ch := broker.Subscribe(ctx, key, initial)

	if err := s.superviseWatch(ctx, newRoomFeed(key, initial, broker)); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	return ch, nil
}

// History returns up to n commit summaries for key, newest first.
// Gitless stores have no history.
func (s *Store) History(ctx context.Context, key string, n int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.config.Gitless {
		return nil, nil
	}
	path, _, err := s.locate(key)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(s.Path, path)
	if err != nil {
		return nil, err
	}
	return s.git.Log(filepath.ToSlash(rel), n)
}

func (s *Store) update(ctx context.Context, key, verb string, fn func([]byte, bool) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return core.ErrEmptyRoom
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	path, serializer, err := s.locate(key)
	if err != nil {
		return err
	}
	current, exists, err := s.load(path, serializer)
	if err != nil {
		return err
	}

	next, err := fn(current, exists)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}

	content, err := serializer.Encode(next)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := writeFileAtomic(path, content, roomFileMode); err != nil {
		return err
	}

	s.stateMu.Lock()
	s.writes++
	s.stateMu.Unlock()

	if s.config.Logger != nil {
		s.config.Logger.Debug("room file written", "key", key, "path", path)
	}

	if s.config.Gitless {
		return nil
	}
	rel, err := filepath.Rel(s.Path, path)
	if err != nil {
		return err
	}
	if err := s.git.Add(filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}
	if err := s.git.Commit(fmt.Sprintf("%s room %s", verb, shortKey(key))); err != nil {
		return fmt.Errorf("failed to commit %s: %w", rel, err)
	}
	return nil
}

func (s *Store) read(key string) (core.Snapshot, error) {
	path, serializer, err := s.locate(key)
	if err != nil {
		return core.Snapshot{}, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return core.Snapshot{Key: key}, nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	data, exists, err := s.load(path, serializer)
	if err != nil {
		return core.Snapshot{}, err
	}
	if !exists {
		return core.Snapshot{Key: key}, nil
	}
	return core.Snapshot{Key: key, Exists: true, Data: data, Version: info.ModTime().UnixNano()}, nil
}

func (s *Store) load(path string, serializer Serializer) ([]byte, bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data, err := serializer.Decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return data, true, nil
}

// locate finds the file of key. An existing file in any supported format
// wins over the configured format, so hand-converted rooms keep working.
func (s *Store) locate(key string) (string, Serializer, error) {
	if key == "" {
		return "", nil, core.ErrEmptyRoom
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", nil, fmt.Errorf("invalid room key %q", key)
	}

	exts := make([]string, 0, len(s.serializers))
	for ext := range s.serializers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		path := filepath.Join(s.roomsDir(), key+ext)
		if _, err := os.Stat(path); err == nil {
			return path, s.serializers[ext], nil
		}
	}
	return filepath.Join(s.roomsDir(), key+s.config.Format), s.serializers[s.config.Format], nil
}

func (s *Store) roomsDir() string {
	return filepath.Join(s.Path, RoomsDir)
}

func (s *Store) setWatching(delta int) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.watchers += delta
}

func (s *Store) recordChange() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	now := time.Now()
	s.lastSeen = &now
}

func (s *Store) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	if s.config.Logger != nil {
		s.config.Logger.Error("fs store error", "error", err)
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

var (
	_ core.Store     = (*Store)(nil)
	_ core.Watchable = (*Store)(nil)
	_ core.Patchable = (*Store)(nil)
)
