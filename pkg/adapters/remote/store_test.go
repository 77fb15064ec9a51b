package remote

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/server"
)

func newRemote(t *testing.T, backend core.Store) *Store {
	t.Helper()
	srv := httptest.NewServer(server.New(backend).Handler())
	t.Cleanup(srv.Close)

	store, err := NewStore(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func TestNewStore_RequiresAddress(t *testing.T) {
	_, err := NewStore(Config{})
	assert.Error(t, err)

	store, err := NewStore(Config{BaseURL: "localhost:7420"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7420", store.base.String())
}

func TestStore_InitializeFailsWithoutServer(t *testing.T) {
	store, err := NewStore(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Error(t, store.Initialize(context.Background()))
}

func TestStore_GetWritePatch(t *testing.T) {
	ctx := context.Background()
	store := newRemote(t, memory.NewStore(memory.Config{}))
	key := core.RoomKey("family")

	snap, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, snap.Exists)

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{"2024-06-01":{"tasks":[{"text":"Buy food","completed":false}],"mood":null,"diary":""}},"vision":[]}`), core.WriteOptions{Merge: true}))
	require.NoError(t, store.Patch(ctx, key, []byte(`[{"op":"add","path":"/vision/-","value":{"url":"u","caption":""}}]`)))

	snap, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, snap.Exists)
	doc, err := core.DecodeDocument(snap.Data)
	require.NoError(t, err)
	assert.Equal(t, "Buy food", doc.Calendar["2024-06-01"].Tasks[0].Text)
	assert.Len(t, doc.Vision, 1)
}

func TestStore_ErrorsKeepTheirIdentity(t *testing.T) {
	ctx := context.Background()
	store := newRemote(t, memory.NewStore(memory.Config{}))

	err := store.Patch(ctx, "k", []byte(`[{"op":"test","path":"/vision/0/url","value":"x"}]`))
	assert.ErrorIs(t, err, core.ErrConflict)

	type plain struct{ core.Store }
	limited := newRemote(t, plain{memory.NewStore(memory.Config{})})
	err = limited.Patch(ctx, "k", []byte(`[]`))
	assert.ErrorIs(t, err, core.ErrNotPatchable)
	_, err = limited.Watch(ctx, "k")
	assert.ErrorIs(t, err, core.ErrNotWatchable)
}

func TestStore_WatchRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := memory.NewStore(memory.Config{})
	store := newRemote(t, backend)
	key := core.RoomKey("family")

	ch, err := store.Watch(ctx, key)
	require.NoError(t, err)

	first := receive(t, ch)
	assert.False(t, first.Exists)

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{},"vision":[]}`), core.WriteOptions{Merge: true}))
	snap := receive(t, ch)
	assert.True(t, snap.Exists)
	assert.EqualValues(t, 1, snap.Version)

	state := store.State().(StoreState)
	assert.Equal(t, 1, state.Watchers)
	assert.EqualValues(t, 2, state.Frames)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, ch <-chan core.Snapshot) core.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for snapshot")
		return core.Snapshot{}
	}
}
