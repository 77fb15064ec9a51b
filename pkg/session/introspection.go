package session

import (
	"fmt"

	"github.com/aretw0/introspection"
)

// SessionState exposes internal state for observability.
type SessionState struct {
	Status        Status `json:"status"`
	RoomKey       string `json:"room_key,omitempty"`
	StoreType     string `json:"store_type"`
	PathWrites    bool   `json:"path_writes"`
	Notifications int64  `json:"notifications"`
	Dispatched    int64  `json:"dispatched"`
	Version       int64  `json:"version"`
	PendingWrites int    `json:"pending_writes"`
	Written       int64  `json:"written"`
	FailedWrites  int64  `json:"failed_writes"`
	PersisterStat string `json:"persister_status,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	storeType := "store"
	if comp, ok := s.repo.Store().(introspection.Component); ok {
		storeType = comp.ComponentType()
	}

	st := SessionState{
		Status:        s.status,
		RoomKey:       s.key,
		StoreType:     storeType,
		PathWrites:    s.cfg.pathWrites,
		Notifications: s.notifications.Load(),
		Dispatched:    s.dispatched.Load(),
		Version:       s.version.Load(),
	}
	if s.persister != nil {
		st.PendingWrites = s.persister.Pending()
		st.Written = s.persister.written.Load()
		st.FailedWrites = s.persister.failed.Load()
		st.PersisterStat = fmt.Sprint(s.persister.State().Status)
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "session"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
