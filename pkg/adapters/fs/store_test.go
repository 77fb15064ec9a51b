package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/git"
)

func newTestStore(t *testing.T, mutate func(*Config)) *Store {
	t.Helper()
	cfg := Config{
		Path:     t.TempDir(),
		AutoInit: true,
		Gitless:  true,
		Debounce: 10 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	store := NewStore(cfg)
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func decodeDoc(t *testing.T, data []byte) *core.Document {
	t.Helper()
	doc, err := core.DecodeDocument(data)
	require.NoError(t, err)
	return doc
}

func TestStore_GetMissingRoom(t *testing.T) {
	store := newTestStore(t, nil)

	snap, err := store.Get(context.Background(), core.RoomKey("nobody"))
	require.NoError(t, err)
	assert.False(t, snap.Exists)
	assert.Zero(t, snap.Version)
}

func TestStore_WriteMergeAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	key := core.RoomKey("family")

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{"2024-06-01":{"tasks":[{"text":"Buy food","completed":false}],"mood":null,"diary":""}},"vision":[]}`), core.WriteOptions{Merge: true}))
	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{"2024-06-02":{"tasks":[],"mood":"happy","diary":""}}}`), core.WriteOptions{Merge: true}))

	snap, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.NotZero(t, snap.Version)

	doc := decodeDoc(t, snap.Data)
	assert.Len(t, doc.Calendar, 2)
	assert.Equal(t, "Buy food", doc.Calendar["2024-06-01"].Tasks[0].Text)
	assert.Equal(t, core.MoodHappy, doc.Calendar["2024-06-02"].Mood)

	_, err = os.Stat(filepath.Join(store.Path, RoomsDir, key+".json"))
	assert.NoError(t, err)
}

func TestStore_MergeNullRemovesDay(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	key := core.RoomKey("family")

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{"2024-06-01":{"tasks":[],"mood":"sad","diary":"x"}},"vision":[]}`), core.WriteOptions{Merge: true}))
	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{"2024-06-01":null}}`), core.WriteOptions{Merge: true}))

	snap, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, decodeDoc(t, snap.Data).Calendar)
}

func TestStore_YAMLFormat(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, func(c *Config) { c.Format = "yaml" })
	key := core.RoomKey("family")

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{"2024-06-01":{"tasks":[],"mood":"tired","diary":"long day"}},"vision":[{"url":"http://x/a.png","caption":"beach"}]}`), core.WriteOptions{}))

	raw, err := os.ReadFile(filepath.Join(store.Path, RoomsDir, key+".yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "long day")

	snap, err := store.Get(ctx, key)
	require.NoError(t, err)
	doc := decodeDoc(t, snap.Data)
	assert.Equal(t, core.MoodTired, doc.Calendar["2024-06-01"].Mood)
	assert.Equal(t, "beach", doc.Vision[0].Caption)
}

func TestStore_Patch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	key := core.RoomKey("family")

	require.NoError(t, store.Patch(ctx, key, []byte(`[{"op":"add","path":"/vision/-","value":{"url":"u1","caption":""}}]`)))
	require.NoError(t, store.Patch(ctx, key, []byte(`[{"op":"add","path":"/vision/-","value":{"url":"u2","caption":""}}]`)))

	err := store.Patch(ctx, key, []byte(`[{"op":"test","path":"/vision/0/url","value":"nope"},{"op":"remove","path":"/vision/0"}]`))
	assert.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, store.Patch(ctx, key, []byte(`[{"op":"test","path":"/vision/0/url","value":"u1"},{"op":"remove","path":"/vision/0"}]`)))

	snap, err := store.Get(ctx, key)
	require.NoError(t, err)
	doc := decodeDoc(t, snap.Data)
	require.Len(t, doc.Vision, 1)
	assert.Equal(t, "u2", doc.Vision[0].URL)
}

func TestStore_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Path: dir, Gitless: true, ReadOnly: true})
	require.NoError(t, store.Initialize(context.Background()))

	err := store.Write(context.Background(), core.RoomKey("x"), []byte(`{}`), core.WriteOptions{})
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestStore_MustExist(t *testing.T) {
	store := NewStore(Config{Path: filepath.Join(t.TempDir(), "missing"), Gitless: true, MustExist: true})
	err := store.Initialize(context.Background())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_RejectsBadKeys(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, core.ErrEmptyRoom)

	err = store.Write(ctx, "../escape", []byte(`{}`), core.WriteOptions{})
	assert.Error(t, err)
}

func TestStore_WatchSeesOwnAndForeignWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t, nil)
	key := core.RoomKey("family")

	ch, err := store.Watch(ctx, key)
	require.NoError(t, err)

	first := <-ch
	assert.False(t, first.Exists)

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{},"vision":[{"url":"u1","caption":""}]}`), core.WriteOptions{Merge: true}))
	snap := nextSnapshot(t, ch)
	assert.True(t, snap.Exists)
	assert.Len(t, decodeDoc(t, snap.Data).Vision, 1)

	// An edit made by another program, outside the store.
	path := filepath.Join(store.Path, RoomsDir, key+".json")
	var payload map[string]any
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &payload))
	payload["vision"] = []any{}
	raw, err = json.Marshal(payload)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, writeFileAtomic(path, raw, 0644))

	assert.Eventually(t, func() bool {
		select {
		case snap = <-ch:
		default:
		}
		return len(decodeDoc(t, snap.Data).Vision) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_History(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	store := newTestStore(t, func(c *Config) { c.Gitless = false })
	key := core.RoomKey("family")

	require.NoError(t, store.Write(ctx, key, []byte(`{"calendar":{},"vision":[]}`), core.WriteOptions{Merge: true}))
	require.NoError(t, store.Patch(ctx, key, []byte(`[{"op":"add","path":"/vision/-","value":{"url":"u1","caption":""}}]`)))

	history, err := store.History(ctx, key, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Contains(t, history[0], "patch room")
	assert.Contains(t, history[1], "write room")
}

func TestStore_State(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	require.NoError(t, store.Write(ctx, core.RoomKey("a"), []byte(`{}`), core.WriteOptions{}))

	state, ok := store.State().(StoreState)
	require.True(t, ok)
	assert.Equal(t, ".json", state.Format)
	assert.True(t, state.Gitless)
	assert.EqualValues(t, 1, state.Writes)
	assert.Equal(t, "fs-store", store.ComponentType())
}

func TestStore_StateCountsUncommittedFiles(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	store := newTestStore(t, func(c *Config) { c.Gitless = false })
	require.NoError(t, store.Write(ctx, core.RoomKey("family"), []byte(`{"calendar":{},"vision":[]}`), core.WriteOptions{}))

	before := store.State().(StoreState).Uncommitted

	stray := filepath.Join(store.Path, RoomsDir, "edited-by-hand.json")
	require.NoError(t, os.WriteFile(stray, []byte(`{}`), 0o600))

	after := store.State().(StoreState).Uncommitted
	assert.Equal(t, before+1, after)

	gitless := newTestStore(t, nil)
	assert.Zero(t, gitless.State().(StoreState).Uncommitted)
}

func nextSnapshot(t *testing.T, ch <-chan core.Snapshot) core.Snapshot {
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
