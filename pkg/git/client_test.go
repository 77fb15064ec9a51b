package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	unlock, err := client.Lock(context.Background())
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, ".aquarium.lock")
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	// A second acquisition waits until the context gives up.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Lock(ctx); err == nil {
		t.Error("expected contended lock to time out")
	}

	unlock()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_CommitAndLog(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	if err := client.Init(); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if !client.IsRepo() {
		t.Fatal("expected a git repository")
	}

	// Nothing staged is fine.
	if err := client.Commit("empty"); err != nil {
		t.Fatalf("empty commit failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "room.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := client.Add("room.json"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := client.Commit("update room"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	entries, err := client.Log("room.json", 5)
	if err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d: %v", len(entries), entries)
	}
}
