package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/pkg/adapters/fs"
	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/adapters/sqlite"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/git"
)

func TestInit(t *testing.T) {
	t.Run("AutoInit=true Creates Directory and Git Repo", func(t *testing.T) {
		if !git.IsInstalled() {
			t.Skip("git not installed")
		}
		storePath := filepath.Join(t.TempDir(), "planner")

		store, err := aquarium.Init(storePath, aquarium.WithAutoInit(true), aquarium.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}

		fsStore, ok := store.(*fs.Store)
		if !ok {
			t.Fatalf("Expected fs store, got %T", store)
		}
		if fsStore.Path != storePath {
			t.Errorf("Expected path %s, got %s", storePath, fsStore.Path)
		}
		if info, err := os.Stat(filepath.Join(storePath, fs.RoomsDir)); err != nil || !info.IsDir() {
			t.Errorf("rooms directory not created")
		}
		if _, err := os.Stat(filepath.Join(storePath, ".git")); os.IsNotExist(err) {
			t.Errorf(".git directory not found")
		}
	})

	t.Run("AutoInit=false Fails if Directory Missing", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "missing")

		_, err := aquarium.Init(storePath, aquarium.WithAutoInit(false), aquarium.WithMustExist(true), aquarium.WithForceTemp(true))
		if err == nil {
			t.Error("Expected failure for missing directory when AutoInit=false")
		}
	})

	t.Run("Versioning Disabled Does Not Initialize Git", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "gitless")

		_, err := aquarium.Init(storePath, aquarium.WithAutoInit(true), aquarium.WithVersioning(false), aquarium.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(storePath, ".git")); !os.IsNotExist(err) {
			t.Errorf(".git directory should not exist in gitless mode")
		}
	})

	t.Run("Memory Adapter", func(t *testing.T) {
		store, err := aquarium.Init("", aquarium.WithAdapter(aquarium.AdapterMemory))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if _, ok := store.(*memory.Store); !ok {
			t.Fatalf("Expected memory store, got %T", store)
		}
	})

	t.Run("SQLite Adapter Creates Database In Directory", func(t *testing.T) {
		dir := t.TempDir()
		store, err := aquarium.Init(dir, aquarium.WithAdapter(aquarium.AdapterSQLite), aquarium.WithAutoInit(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		sqliteStore, ok := store.(*sqlite.Store)
		if !ok {
			t.Fatalf("Expected sqlite store, got %T", store)
		}
		defer sqliteStore.Close()

		if _, err := os.Stat(filepath.Join(dir, "aquarium.db")); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("Remote Adapter Needs A Server", func(t *testing.T) {
		_, err := aquarium.Init("http://127.0.0.1:1", aquarium.WithAdapter(aquarium.AdapterRemote))
		if err == nil {
			t.Error("Expected failure without a reachable server")
		}
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := aquarium.Init("", aquarium.WithAdapter("s3"))
		if err == nil {
			t.Error("Expected failure for unknown adapter")
		}
	})

	t.Run("Injected Store Wins", func(t *testing.T) {
		injected := memory.NewStore(memory.Config{})
		store, err := aquarium.Init("ignored", aquarium.WithStore(injected), aquarium.WithAdapter("s3"))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if store != core.Store(injected) {
			t.Errorf("expected injected store")
		}
	})
}

func TestResolveStorePath(t *testing.T) {
	inside := filepath.Join(os.TempDir(), "x", "planner")
	if got := aquarium.ResolveStorePath(inside, true); got != filepath.Clean(inside) {
		t.Errorf("path inside temp dir should be kept, got %s", got)
	}
	if got := aquarium.ResolveStorePath("/home/me/planner", true); got != filepath.Join(os.TempDir(), "aquarium-dev", "planner") {
		t.Errorf("unexpected sandbox path %s", got)
	}
	if got := aquarium.ResolveStorePath("", false); got != "." {
		t.Errorf("empty path should resolve to ., got %s", got)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	mem := memory.NewStore(memory.Config{})
	if _, err := aquarium.History(ctx, mem, "family", 5); err != aquarium.ErrNoHistory {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
	if _, err := aquarium.History(ctx, mem, "  ", 5); err != core.ErrEmptyRoom {
		t.Errorf("expected ErrEmptyRoom, got %v", err)
	}
}
