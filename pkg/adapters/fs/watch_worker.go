package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/aquarium/pkg/core"
)

// roomFeed is the state shared by every watcher instance of one
// subscription, so a restarted watcher does not republish what the
// previous one already delivered.
type roomFeed struct {
	key    string
	broker *core.Broker

	mu      sync.Mutex
	exists  bool
	version int64
}

func newRoomFeed(key string, initial core.Snapshot, broker *core.Broker) *roomFeed {
	return &roomFeed{
		key:     key,
		broker:  broker,
		exists:  initial.Exists,
		version: initial.Version,
	}
}

// offer publishes snap unless it is the state already delivered.
func (f *roomFeed) offer(snap core.Snapshot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if snap.Exists == f.exists && snap.Version == f.version {
		return false
	}
	f.exists = snap.Exists
	f.version = snap.Version
	f.broker.Publish(snap)
	return true
}

// superviseWatch keeps a watcher running for feed until ctx is done,
// restarting it when fsnotify fails.
func (s *Store) superviseWatch(ctx context.Context, feed *roomFeed) error {
	spec := supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWatchWorker(s, feed), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			ResetDuration:   10 * time.Second,
			MaxRestarts:     5,
			MaxDuration:     time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("fs-watch-"+shortKey(feed.key), supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return err
	}

	lifecycle.Go(context.WithoutCancel(ctx), func(context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sup.Stop(stopCtx)
	}, lifecycle.WithErrorHandler(s.reportError))
	return nil
}

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	feed      *roomFeed
	pattern   string
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(store *Store, feed *roomFeed) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		store:      store,
		feed:       feed,
		pattern:    feed.key + ".{json,yaml,yml}",
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(w.store.roomsDir()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.roomsDir(), err)
	}

	_ = watcher.Add(filepath.Join(w.store.Path, ".git"))

	w.watcher = watcher
	w.debouncer = newDebouncer(w.store.config.Debounce)
	w.store.setWatching(1)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	if err := w.StartFunc(runCtx, w.run); err != nil {
		return err
	}

	// Changes made while no watcher was running would otherwise be missed.
	w.reconcile(runCtx, "start")
	return nil
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"room":              shortKey(w.feed.key),
		}
	})
}

// handleGitLockEvent tracks .git/index.lock so the watcher can pause while
// git rewrites the work tree. It reports whether the event was a lock event.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked *bool) bool {
	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false
	}

	logger := w.store.config.Logger
	switch {
	case event.Has(fsnotify.Create):
		*gitLocked = true
		if logger != nil {
			logger.Debug("git operations detected, pausing watcher")
		}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		*gitLocked = false
		if logger != nil {
			logger.Debug("git operations finished, reconciling")
		}
	}
	return true
}

// matches reports whether event concerns the watched room file.
func (w *watchWorker) matches(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, TempFilePrefix) {
		return false
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.store.roomsDir()) {
		return false
	}
	ok, err := doublestar.Match(w.pattern, base)
	return err == nil && ok
}

// reconcile re-reads the room file after the debounce period and publishes
// it when it differs from what was last delivered.
func (w *watchWorker) reconcile(ctx context.Context, source string) {
	w.debouncer.add(w.feed.key, func() {
		if ctx.Err() != nil {
			return
		}
		snap, err := w.store.read(w.feed.key)
		if err != nil {
			w.handleWatcherError(fmt.Errorf("failed to read room %s: %w", shortKey(w.feed.key), err))
			return
		}
		if w.feed.offer(snap) {
			w.store.recordChange()
			if w.store.config.Logger != nil {
				w.store.config.Logger.Debug("room changed", "key", shortKey(w.feed.key), "version", snap.Version, "source", source)
			}
		}
	})
}

func (w *watchWorker) handleWatcherError(err error) {
	if w.store.config.ErrorHandler != nil {
		w.store.config.ErrorHandler(err)
		return
	}
	if w.store.config.Logger != nil {
		w.store.config.Logger.Error("fs watcher error", "error", err)
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger := w.store.config.Logger; logger != nil {
				if logger.Enabled(ctx, slog.LevelDebug) {
					logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
				} else {
					logger.Error("watcher panic", "error", err)
				}
			}
		}
	}()
	defer w.store.setWatching(-1)
	defer w.watcher.Close()

	gitLocked := w.gitLocked()
	err = w.mainEventLoop(ctx, &gitLocked)

	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) gitLocked() bool {
	_, err := os.Stat(filepath.Join(w.store.Path, ".git", "index.lock"))
	return err == nil
}

func (w *watchWorker) mainEventLoop(ctx context.Context, gitLocked *bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if w.handleGitLockEvent(event, gitLocked) {
				if !*gitLocked {
					w.reconcile(ctx, "git")
				}
				continue
			}

			if *gitLocked || !w.matches(event) {
				continue
			}
			w.reconcile(ctx, "filesystem")

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
