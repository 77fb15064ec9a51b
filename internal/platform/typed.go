package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/typed"
)

// NewRooms wraps a store in a repository of room documents.
func NewRooms(store core.Store) *typed.Repository[core.Document] {
	return typed.NewRepository[core.Document](store)
}

// LoadRoom reads the document of room without opening a session.
// A room that was never written yields the default empty document.
func LoadRoom(ctx context.Context, store core.Store, room string) (*typed.Model[core.Document], error) {
	room = core.NormalizeRoom(room)
	if room == "" {
		return nil, core.ErrEmptyRoom
	}
	model, err := NewRooms(store).Get(ctx, core.RoomKey(room))
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	return model, nil
}

// Historian is implemented by stores that keep a change log per room.
type Historian interface {
	History(ctx context.Context, key string, n int) ([]string, error)
}

// ErrNoHistory is returned by History for stores without a change log.
var ErrNoHistory = errors.New("store keeps no history")

// History returns up to n change summaries of room, newest first.
func History(ctx context.Context, store core.Store, room string, n int) ([]string, error) {
	room = core.NormalizeRoom(room)
	if room == "" {
		return nil, core.ErrEmptyRoom
	}
	h, ok := store.(Historian)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.History(ctx, core.RoomKey(room), n)
}
