package platform

import (
	"context"
	"testing"

	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/core"
)

func TestLoadRoom(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.Config{})

	model, err := LoadRoom(ctx, store, "family")
	if err != nil {
		t.Fatalf("LoadRoom failed: %v", err)
	}
	if model.Exists {
		t.Errorf("room should not exist yet")
	}
	if model.Data.Calendar == nil || model.Data.Vision == nil {
		t.Errorf("missing room should decode to the materialized default document")
	}

	model.Data.Vision = append(model.Data.Vision, core.VisionItem{URL: "http://x/a.png", Caption: "beach"})
	if err := model.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	again, err := LoadRoom(ctx, store, " family ")
	if err != nil {
		t.Fatalf("LoadRoom failed: %v", err)
	}
	if !again.Exists || len(again.Data.Vision) != 1 || again.Data.Vision[0].Caption != "beach" {
		t.Errorf("unexpected room after save: %+v", again.Data)
	}
	if again.Key != core.RoomKey("family") {
		t.Errorf("room should be keyed by its hash")
	}

	if _, err := LoadRoom(ctx, store, ""); err != core.ErrEmptyRoom {
		t.Errorf("expected ErrEmptyRoom, got %v", err)
	}
}
