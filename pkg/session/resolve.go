package session

import (
	"context"
	"fmt"

	"github.com/aretw0/aquarium/pkg/core"
)

// PrefStore persists the room identifier across process restarts.
type PrefStore interface {
	Room() (string, error)
	SetRoom(room string) error
	ClearRoom() error
}

// Prompt asks the user for a room identifier.
type Prompt func(ctx context.Context) (string, error)

// Resolve returns the room to connect to. A persisted room wins; otherwise
// prompt is asked and a non-blank answer is persisted. A blank answer yields
// core.ErrEmptyRoom without touching prefs.
func Resolve(ctx context.Context, prefs PrefStore, prompt Prompt) (string, error) {
	if prefs != nil {
		room, err := prefs.Room()
		if err != nil {
			return "", fmt.Errorf("failed to read room preference: %w", err)
		}
		if room = core.NormalizeRoom(room); room != "" {
			return room, nil
		}
	}

	if prompt == nil {
		return "", core.ErrEmptyRoom
	}
	input, err := prompt(ctx)
	if err != nil {
		return "", err
	}
	room := core.NormalizeRoom(input)
	if room == "" {
		return "", core.ErrEmptyRoom
	}

	if prefs != nil {
		if err := prefs.SetRoom(room); err != nil {
			return "", fmt.Errorf("failed to persist room preference: %w", err)
		}
	}
	return room, nil
}
