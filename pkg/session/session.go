// Package session owns a connection to one room: it resolves the room,
// keeps the single subscription open, mirrors the room document in memory,
// applies user actions and writes them through to the store.
//
// All state lives on one goroutine (the loop started by Open). Remote
// notifications and user commands are handled there one at a time, so the
// document cache needs no locking.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/typed"
)

// Status is the lifecycle stage of a session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusConnected Status = "connected"
	StatusClosed    Status = "closed"
)

// ErrSubscriptionEnded is reported when the store closes the room
// subscription while the session is still open.
var ErrSubscriptionEnded = errors.New("room subscription ended")

// Session is a live connection to one room.
type Session struct {
	repo   *typed.Repository[core.Document]
	cfg    *config
	logger *slog.Logger

	mu        sync.Mutex
	status    Status
	room      string
	key       string
	cancel    context.CancelFunc
	persister *persister
	lastErr   error

	commands  chan func(*planner.State)
	acks      chan ack
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	// Owned by the loop goroutine.
	inflight int
	acked    int64
	held     *typed.Update[core.Document]

	notifications atomic.Int64
	dispatched    atomic.Int64
	version       atomic.Int64
}

// New creates an idle session over store.
func New(store core.Store, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		repo:     typed.NewRepository[core.Document](store),
		cfg:      cfg,
		logger:   logger,
		status:   StatusIdle,
		commands: make(chan func(*planner.State)),
		acks:     make(chan ack),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Connect resolves the room (persisted preference first, then prompt) and
// opens it. When no room can be resolved the connect surface is shown.
func (s *Session) Connect(ctx context.Context, prompt Prompt) error {
	room, err := Resolve(ctx, s.cfg.prefs, prompt)
	if err != nil {
		if s.cfg.view != nil {
			s.cfg.view.ShowConnect()
		}
		return err
	}
	return s.Open(ctx, room)
}

// Open subscribes to room and starts the session loop. A session opens at
// most one room in its lifetime.
func (s *Session) Open(ctx context.Context, room string) error {
	room = core.NormalizeRoom(room)
	if room == "" {
		if s.cfg.view != nil {
			s.cfg.view.ShowConnect()
		}
		return core.ErrEmptyRoom
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case StatusConnected:
		return core.ErrAlreadyConnected
	case StatusClosed:
		return core.ErrClosed
	}

	key := core.RoomKey(room)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	updates, err := s.repo.Watch(runCtx, key)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to room: %w", err)
	}

	p := newPersister(s.repo, key, s.cfg, s.logger, s.reportError, s.acks)
	if err := p.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start persister: %w", err)
	}

	s.room = room
	s.key = key
	s.cancel = cancel
	s.persister = p
	s.status = StatusConnected

	if s.cfg.view != nil {
		s.cfg.view.ShowMain(room)
	}
	s.logger.Info("room opened", "key", key[:12], "path_writes", s.cfg.pathWrites)

	state := planner.NewState(s.cfg.clock())
	lifecycle.Go(runCtx, func(ctx context.Context) error {
		defer close(s.done)
		return s.loop(ctx, state, updates)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.reportError(fmt.Errorf("session loop: %w", err))
	}))
	return nil
}

// Room returns the connected room identifier, or "".
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Ready is closed once the first room notification has been applied.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed when the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Flush waits until every write issued so far has completed.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	p := s.persister
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.flush(ctx)
}

// Close flushes pending writes (bounded by ctx), tears down the subscription
// and stops the loop. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return nil
	}
	wasConnected := s.status == StatusConnected
	s.status = StatusClosed
	p := s.persister
	cancel := s.cancel
	s.mu.Unlock()

	if !wasConnected {
		close(s.done)
		return nil
	}

	flushErr := p.flush(ctx)
	cancel()
	stopErr := p.Stop(ctx)

	select {
	case <-s.done:
	case <-ctx.Done():
		return errors.Join(flushErr, stopErr, ctx.Err())
	}
	s.logger.Info("room closed")
	return errors.Join(flushErr, stopErr)
}

// Logout forgets the persisted room and closes the session. Connecting to
// another room requires a new session.
func (s *Session) Logout(ctx context.Context) error {
	var clearErr error
	if s.cfg.prefs != nil {
		if err := s.cfg.prefs.ClearRoom(); err != nil {
			clearErr = fmt.Errorf("failed to clear room preference: %w", err)
		}
	}
	closeErr := s.Close(ctx)
	if s.cfg.view != nil {
		s.cfg.view.ShowConnect()
	}
	return errors.Join(clearErr, closeErr)
}

func (s *Session) reportError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if s.cfg.onError != nil {
		s.cfg.onError(err)
	}
}
