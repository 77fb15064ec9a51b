// Package remote is a document store client for a room server (aquariumd).
// Reads and writes use plain HTTP; Watch holds a websocket open and turns
// every frame into a snapshot.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/gorilla/websocket"

	"github.com/aretw0/aquarium/pkg/core"
)

// Config holds the configuration for the remote store.
type Config struct {
	// BaseURL is the server address, e.g. http://localhost:7420.
	BaseURL string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	Logger *slog.Logger
}

// Store implements core.Store, core.Watchable and core.Patchable against a
// room server.
type Store struct {
	base   *url.URL
	config Config

	mu       sync.Mutex
	watchers int
	frames   int64
	lastErr  string
}

// NewStore creates a remote store.
func NewStore(config Config) (*Store, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("remote store: server address is required")
	}
	raw := config.BaseURL
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("remote store: invalid server address: %w", err)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if config.Dialer == nil {
		config.Dialer = websocket.DefaultDialer
	}
	return &Store{base: base, config: config}, nil
}

// Initialize checks that the server answers its health probe.
func (s *Store) Initialize(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, s.base.JoinPath("healthz"), "", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Get fetches the snapshot of key.
func (s *Store) Get(ctx context.Context, key string) (core.Snapshot, error) {
	if key == "" {
		return core.Snapshot{}, core.ErrEmptyRoom
	}
	resp, err := s.do(ctx, http.MethodGet, s.roomURL(key), "", nil)
	if err != nil {
		return core.Snapshot{}, err
	}
	defer resp.Body.Close()

	var snap core.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("remote store: invalid snapshot: %w", err)
	}
	return snap, nil
}

// Write sends data to the server, merged when opts.Merge is set.
func (s *Store) Write(ctx context.Context, key string, data []byte, opts core.WriteOptions) error {
	if key == "" {
		return core.ErrEmptyRoom
	}
	method, contentType := http.MethodPut, "application/json"
	if opts.Merge {
		method, contentType = http.MethodPatch, "application/merge-patch+json"
	}
	resp, err := s.do(ctx, method, s.roomURL(key), contentType, data)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Patch sends RFC 6902 ops to the server.
func (s *Store) Patch(ctx context.Context, key string, ops []byte) error {
	if key == "" {
		return core.ErrEmptyRoom
	}
	resp, err := s.do(ctx, http.MethodPatch, s.roomURL(key), "application/json-patch+json", ops)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Watch opens a websocket subscription for key. The channel closes when
// ctx is done or the connection drops; there is no reconnect.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Snapshot, error) {
	if key == "" {
		return nil, core.ErrEmptyRoom
	}
	u := s.roomURL(key).JoinPath("watch")
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := s.config.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, statusError(resp)
		}
		return nil, fmt.Errorf("remote store: failed to dial: %w", err)
	}

	s.mu.Lock()
	s.watchers++
	s.mu.Unlock()

	out := make(chan core.Snapshot, 1)
	done := make(chan struct{})

	lifecycle.Go(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		return conn.Close()
	})

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			s.mu.Lock()
			s.watchers--
			s.mu.Unlock()
			close(done)
			close(out)
		}()
		for {
			var snap core.Snapshot
			if err := conn.ReadJSON(&snap); err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return nil
				}
				s.recordError(err)
				return fmt.Errorf("remote watch ended: %w", err)
			}
			s.mu.Lock()
			s.frames++
			s.mu.Unlock()
			select {
			case out <- snap:
			case <-ctx.Done():
				return nil
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if s.config.Logger != nil {
			s.config.Logger.Warn("remote watch failed", "key", key, "error", err)
		}
	}))

	return out, nil
}

func (s *Store) roomURL(key string) *url.URL {
	return s.base.JoinPath("rooms", key)
}

func (s *Store) do(ctx context.Context, method string, u *url.URL, contentType string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("remote store: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		s.recordError(err)
		return nil, fmt.Errorf("remote store: %s %s: %w", method, u.Path, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		err := statusError(resp)
		s.recordError(err)
		return nil, err
	}
	return resp, nil
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err.Error()
}

// statusError turns a failed response back into the store error the server
// mapped it from.
func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	text := strings.TrimSpace(string(msg))

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		if strings.Contains(text, core.ErrEmptyRoom.Error()) {
			sentinel = core.ErrEmptyRoom
		}
	case http.StatusForbidden:
		sentinel = core.ErrReadOnly
	case http.StatusConflict:
		sentinel = core.ErrConflict
	case http.StatusNotFound:
		sentinel = core.ErrNotFound
	case http.StatusNotImplemented:
		sentinel = core.ErrNotPatchable
		if strings.Contains(text, core.ErrNotWatchable.Error()) {
			sentinel = core.ErrNotWatchable
		}
	}
	if sentinel != nil {
		return fmt.Errorf("remote store: %w (%s)", sentinel, text)
	}
	return fmt.Errorf("remote store: unexpected status %d: %s", resp.StatusCode, text)
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Server    string `json:"server"`
	Watchers  int    `json:"watchers"`
	Frames    int64  `json:"frames"`
	LastError string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreState{
		Server:    s.base.String(),
		Watchers:  s.watchers,
		Frames:    s.frames,
		LastError: s.lastErr,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "remote-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Watchable               = (*Store)(nil)
	_ core.Patchable               = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
