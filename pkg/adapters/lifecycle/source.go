// Package lifecycle bridges room snapshot streams to lifecycle event sources.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/aquarium/pkg/core"
)

// RoomEvent is a room snapshot seen as a lifecycle event.
type RoomEvent struct {
	core.Snapshot
}

// String implements lifecycle.Event.
func (e RoomEvent) String() string {
	key := e.Key
	if len(key) > 12 {
		key = key[:12]
	}
	if !e.Exists {
		return fmt.Sprintf("room %s: empty", key)
	}
	return fmt.Sprintf("room %s: version %d (%d bytes)", key, e.Version, len(e.Data))
}

type roomSource struct {
	snaps <-chan core.Snapshot
	out   chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits a RoomEvent per snapshot.
// The events channel closes when snaps closes or the source's context ends.
func NewSource(snaps <-chan core.Snapshot) lifecycle.Source {
	return &roomSource{
		snaps: snaps,
		out:   make(chan lifecycle.Event),
	}
}

func (s *roomSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *roomSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap, ok := <-s.snaps:
				if !ok {
					return nil
				}
				select {
				case s.out <- RoomEvent{Snapshot: snap}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
