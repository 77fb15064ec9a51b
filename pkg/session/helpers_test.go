package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/session"
	"github.com/aretw0/aquarium/pkg/view"
)

var june1 = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return june1 }

type recordingView struct {
	mu       sync.Mutex
	connect  int
	mainRoom string
	frames   []view.Frame
}

func (v *recordingView) ShowConnect() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connect++
	v.mainRoom = ""
}

func (v *recordingView) ShowMain(room string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mainRoom = room
}

func (v *recordingView) Render(f view.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames = append(v.frames, f)
}

func (v *recordingView) lastFrame() (view.Frame, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.frames) == 0 {
		return view.Frame{}, 0
	}
	return v.frames[len(v.frames)-1], len(v.frames)
}

type recordedWrite struct {
	data  []byte
	merge bool
	patch bool
}

// scriptedStore persists into a memory store but lets the test decide which
// notifications the session sees.
type scriptedStore struct {
	*memory.Store
	mu       sync.Mutex
	writes   []recordedWrite
	notify   chan core.Snapshot
	failures int
	gate     chan struct{} // When set, writes wait for it to close
}

func newScriptedStore() *scriptedStore {
	return &scriptedStore{
		Store:  memory.NewStore(memory.Config{}),
		notify: make(chan core.Snapshot, 16),
	}
}

var errUnavailable = errors.New("store unavailable")

func (s *scriptedStore) Write(ctx context.Context, key string, data []byte, opts core.WriteOptions) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errUnavailable
	}
	s.writes = append(s.writes, recordedWrite{data: data, merge: opts.Merge})
	s.mu.Unlock()
	return s.Store.Write(ctx, key, data, opts)
}

func (s *scriptedStore) Patch(ctx context.Context, key string, ops []byte) error {
	s.mu.Lock()
	s.writes = append(s.writes, recordedWrite{data: ops, patch: true})
	s.mu.Unlock()
	return s.Store.Patch(ctx, key, ops)
}

func (s *scriptedStore) Watch(ctx context.Context, key string) (<-chan core.Snapshot, error) {
	out := make(chan core.Snapshot)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-s.notify:
				if !ok {
					return
				}
				snap.Key = key
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *scriptedStore) recorded() []recordedWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

func encode(t *testing.T, doc *core.Document) json.RawMessage {
	t.Helper()
	data, err := doc.Encode()
	require.NoError(t, err)
	return data
}

func waitReady(t *testing.T, s *session.Session) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("session never became ready")
	}
}

func openSession(t *testing.T, store core.Store, room string, opts ...session.Option) *session.Session {
	t.Helper()
	opts = append([]session.Option{session.WithClock(fixedClock)}, opts...)
	s := session.New(store, opts...)
	require.NoError(t, s.Open(context.Background(), room))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func flush(t *testing.T, s *session.Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}
