package aquarium

import (
	"context"

	"github.com/aretw0/aquarium/internal/platform"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/typed"
)

// RoomModel is a room document read outside of a session.
type RoomModel = typed.Model[core.Document]

// Rooms is a typed repository of room documents.
type Rooms = typed.Repository[core.Document]

// NewRooms wraps a store in a repository of room documents.
func NewRooms(store core.Store) *Rooms {
	return platform.NewRooms(store)
}

// LoadRoom reads the document of room without opening a session.
func LoadRoom(ctx context.Context, store core.Store, room string) (*RoomModel, error) {
	return platform.LoadRoom(ctx, store, room)
}
