package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/core"
)

func TestSource_BridgesSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore(memory.Config{Buffer: 4})
	key := core.RoomKey("family")
	snaps, err := store.Watch(ctx, key)
	require.NoError(t, err)

	src := NewSource(snaps)
	require.NoError(t, src.Start(ctx))

	first := next(t, src.Events())
	assert.Equal(t, "room "+key[:12]+": empty", first.String())

	require.NoError(t, store.Write(ctx, key, []byte(`{"vision":[]}`), core.WriteOptions{}))
	second := next(t, src.Events())
	ev, ok := second.(RoomEvent)
	require.True(t, ok)
	assert.EqualValues(t, 1, ev.Version)
	assert.Contains(t, ev.String(), "version 1")

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-src.Events()
		return !open
	}, time.Second, 10*time.Millisecond)
}

func next[E any](t *testing.T, ch <-chan E) E {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "events channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		var zero E
		return zero
	}
}
