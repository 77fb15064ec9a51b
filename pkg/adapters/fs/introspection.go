package fs

import (
	"strings"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path        string     `json:"path"`
	SystemDir   string     `json:"system_dir"`
	Format      string     `json:"format"`
	Gitless     bool       `json:"gitless"`
	ReadOnly    bool       `json:"read_only"`
	Watchers    int        `json:"watchers"`
	Writes      int64      `json:"writes"`
	Uncommitted int        `json:"uncommitted"` // Paths git reports as changed
	LastChange  *time.Time `json:"last_change,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	uncommitted := s.uncommitted()

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return StoreState{
		Path:        s.Path,
		SystemDir:   s.config.SystemDir,
		Format:      s.config.Format,
		Gitless:     s.config.Gitless,
		ReadOnly:    s.config.ReadOnly,
		Watchers:    s.watchers,
		Writes:      s.writes,
		Uncommitted: uncommitted,
		LastChange:  s.lastSeen,
	}
}

// uncommitted counts the entries of git status. Room files edited by hand or
// left by an interrupted commit show up here.
func (s *Store) uncommitted() int {
	if s.config.Gitless || !s.git.IsRepo() {
		return 0
	}
	out, err := s.git.Status()
	if err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Debug("failed to read git status", "error", err)
		}
		return 0
	}
	if out == "" {
		return 0
	}
	return len(strings.Split(out, "\n"))
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
