// Package prefs handles aquarium user preferences persistence.
// Preferences are stored in ~/.config/aquarium/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for aquarium.
type Prefs struct {
	Room       string `toml:"room"`
	Adapter    string `toml:"adapter,omitempty"`
	Path       string `toml:"path,omitempty"`
	Server     string `toml:"server,omitempty"`
	PathWrites bool   `toml:"path_writes,omitempty"`
}

const defaultPrefsPath = "~/.config/aquarium/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Prefs{}, nil // Graceful degradation
	}

	var p Prefs
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Prefs{}, nil // Graceful degradation
	}
	p.Room = strings.TrimSpace(p.Room)

	return p, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	// The room id is a shared secret.
	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// File persists the room identifier in a prefs file, preserving the other keys.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a room store backed by the prefs file at path ("" means the default).
func NewFile(path string) *File {
	return &File{path: path}
}

// Room returns the persisted room identifier, or "" when none is set.
func (f *File) Room() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := Load(f.path)
	if err != nil {
		return "", err
	}
	return p.Room, nil
}

// SetRoom persists room.
func (f *File) SetRoom(room string) error {
	return f.update(func(p *Prefs) { p.Room = room })
}

// ClearRoom forgets the persisted room.
func (f *File) ClearRoom() error {
	return f.update(func(p *Prefs) { p.Room = "" })
}

func (f *File) update(fn func(*Prefs)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := Load(f.path)
	if err != nil {
		return err
	}
	fn(&p)
	return Save(f.path, p)
}

// Memory keeps the room identifier in memory. Useful for tests and one-shot commands.
type Memory struct {
	mu   sync.Mutex
	room string
}

func (m *Memory) Room() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room, nil
}

func (m *Memory) SetRoom(room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.room = room
	return nil
}

func (m *Memory) ClearRoom() error {
	return m.SetRoom("")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
