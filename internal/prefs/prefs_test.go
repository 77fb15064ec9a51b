package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Room != "" {
		t.Fatalf("Room = %q, want empty", p.Room)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "aquarium")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("room = \"  tank  \"\nadapter = \"sqlite\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Room != "tank" {
		t.Fatalf("Room = %q, want %q", p.Room, "tank")
	}
	if p.Adapter != "sqlite" {
		t.Fatalf("Adapter = %q, want %q", p.Adapter, "sqlite")
	}
}

func TestLoad_InvalidFileDegrades(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(prefsFile, []byte("room = ["), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Room != "" {
		t.Fatalf("Room = %q, want empty", p.Room)
	}
}

func TestFile_RoomLifecycle(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	if err := Save(prefsFile, Prefs{Server: "http://localhost:7480"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f := NewFile(prefsFile)
	if err := f.SetRoom("tank"); err != nil {
		t.Fatalf("SetRoom: %v", err)
	}

	room, err := f.Room()
	if err != nil || room != "tank" {
		t.Fatalf("Room = %q, %v; want tank", room, err)
	}

	p, _ := Load(prefsFile)
	if p.Server != "http://localhost:7480" {
		t.Fatalf("Server = %q, other keys must survive SetRoom", p.Server)
	}

	if err := f.ClearRoom(); err != nil {
		t.Fatalf("ClearRoom: %v", err)
	}
	room, _ = f.Room()
	if room != "" {
		t.Fatalf("Room = %q after ClearRoom", room)
	}
}

func TestMemory(t *testing.T) {
	var m Memory
	_ = m.SetRoom("x")
	if room, _ := m.Room(); room != "x" {
		t.Fatalf("Room = %q", room)
	}
	_ = m.ClearRoom()
	if room, _ := m.Room(); room != "" {
		t.Fatalf("Room = %q", room)
	}
}
