package session

import (
	"context"
	"fmt"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/typed"
	"github.com/aretw0/aquarium/pkg/view"
)

func (s *Session) loop(ctx context.Context, state *planner.State, updates <-chan typed.Update[core.Document]) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case u, ok := <-updates:
			if !ok {
				updates = nil
				if ctx.Err() == nil {
					s.logger.Error("subscription ended")
					s.reportError(ErrSubscriptionEnded)
				}
				continue
			}
			s.receive(state, u)

		case a := <-s.acks:
			s.acknowledge(state, a)

		case cmd := <-s.commands:
			cmd(state)
		}
	}
}

// receive handles one room notification. While this session has writes in
// flight the notification is held back: it may predate them, and applying it
// would hide mutations the user already sees.
func (s *Session) receive(state *planner.State, u typed.Update[core.Document]) {
	if u.Err != nil {
		s.logger.Error("discarding undecodable notification", "error", u.Err)
		s.reportError(fmt.Errorf("room notification: %w", u.Err))
		return
	}
	if s.inflight > 0 {
		s.held = &u
		return
	}
	if u.Model.Version < s.acked {
		s.logger.Debug("skipping stale notification", "version", u.Model.Version, "acked", s.acked)
		return
	}
	s.apply(state, u)
}

func (s *Session) acknowledge(state *planner.State, a ack) {
	s.inflight--
	if a.version > s.acked {
		s.acked = a.version
	}
	if s.inflight > 0 || s.held == nil {
		return
	}
	held := *s.held
	s.held = nil
	if held.Model.Version >= s.acked {
		s.apply(state, held)
	}
}

// apply replaces the cache wholesale with a notification and redraws.
func (s *Session) apply(state *planner.State, u typed.Update[core.Document]) {
	doc := u.Model.Data
	state.Replace(&doc)
	s.notifications.Add(1)
	s.version.Store(u.Model.Version)
	s.logger.Debug("room notification applied", "exists", u.Model.Exists, "version", u.Model.Version)

	s.readyOnce.Do(func() { close(s.ready) })
	s.render(state)
}

func (s *Session) render(state *planner.State) {
	if s.cfg.view == nil {
		return
	}
	s.cfg.view.Render(view.BuildFrame(s.room, state, s.cfg.clock()))
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func(*planner.State)) error {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	switch status {
	case StatusIdle:
		return core.ErrNotConnected
	case StatusClosed:
		return core.ErrClosed
	}

	finished := make(chan struct{})
	cmd := func(st *planner.State) {
		defer close(finished)
		fn(st)
	}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return core.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return core.ErrClosed
	}
}

// Dispatch applies a user action. Destructive actions are confirmed first
// and silently dropped when declined. Mutations wait for the first room
// notification so they never land on an unloaded cache. The write-through is
// queued, not awaited.
func (s *Session) Dispatch(ctx context.Context, a planner.Action) (planner.Change, error) {
	if a.Kind.Mutates() {
		select {
		case <-s.ready:
		case <-s.done:
			return planner.Change{}, core.ErrClosed
		case <-ctx.Done():
			return planner.Change{}, ctx.Err()
		}
	}

	if planner.NeedsConfirmation(a) {
		var prompt string
		if err := s.do(ctx, func(st *planner.State) { prompt = planner.Prompt(st, a) }); err != nil {
			return planner.Change{}, err
		}
		if !s.cfg.confirmer.Confirm(ctx, prompt) {
			s.logger.Debug("action declined", "action", a.String())
			return planner.Change{}, nil
		}
	}

	var (
		change   planner.Change
		applyErr error
	)
	err := s.do(ctx, func(st *planner.State) {
		change, applyErr = planner.Apply(st, a)
		if applyErr != nil {
			return
		}
		s.dispatched.Add(1)
		if change.Mutated() {
			s.persist(st, a, change)
		}
		if change.Mutated() || !a.Kind.Mutates() {
			s.render(st)
		}
	})
	if err != nil {
		return planner.Change{}, err
	}
	return change, applyErr
}

func (s *Session) persist(st *planner.State, a planner.Action, change planner.Change) {
	pathWrites := s.cfg.pathWrites
	if pathWrites {
		if _, ok := s.repo.Store().(core.Patchable); !ok {
			pathWrites = false
		}
	}
	job, err := buildWrite(st, a, change, pathWrites)
	if err != nil {
		s.logger.Error("failed to build write", "action", a.String(), "error", err)
		s.reportError(err)
		return
	}
	s.inflight++
	seq := s.persister.enqueue(job)
	s.logger.Debug("write queued", "seq", seq, "action", a.String(), "mode", job.mode())
}

// Document returns a copy of the cached room document.
func (s *Session) Document(ctx context.Context) (*core.Document, error) {
	var doc *core.Document
	if err := s.do(ctx, func(st *planner.State) { doc = st.Doc.Clone() }); err != nil {
		return nil, err
	}
	return doc, nil
}

// Frame returns the current rendering of the main surface.
func (s *Session) Frame(ctx context.Context) (view.Frame, error) {
	var f view.Frame
	err := s.do(ctx, func(st *planner.State) {
		f = view.BuildFrame(s.room, st, s.cfg.clock())
	})
	return f, err
}
