package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/core"
)

func TestBroker_FanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := core.NewBroker(1)
	a := b.Subscribe(ctx, "k", core.Snapshot{Key: "k"})
	c := b.Subscribe(ctx, "k", core.Snapshot{Key: "k"})
	other := b.Subscribe(ctx, "other", core.Snapshot{Key: "other"})

	for _, ch := range []<-chan core.Snapshot{a, c, other} {
		<-ch
	}

	b.Publish(core.Snapshot{Key: "k", Exists: true, Version: 1})

	assert.EqualValues(t, 1, (<-a).Version)
	assert.EqualValues(t, 1, (<-c).Version)
	select {
	case <-other:
		t.Fatal("unrelated key received a snapshot")
	default:
	}
	assert.Equal(t, 3, b.Watchers())
}

func TestBroker_ReplacesStaleSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := core.NewBroker(1)
	ch := b.Subscribe(ctx, "k", core.Snapshot{Key: "k"})

	for v := int64(1); v <= 5; v++ {
		b.Publish(core.Snapshot{Key: "k", Version: v})
	}

	snap := <-ch
	assert.EqualValues(t, 5, snap.Version)
}

func TestBroker_UnsubscribeOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := core.NewBroker(1)
	ch := b.Subscribe(ctx, "k", core.Snapshot{Key: "k"})
	<-ch

	cancel()
	require.Eventually(t, func() bool { return b.Watchers() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok)

	state, ok := b.State().(core.BrokerState)
	require.True(t, ok)
	assert.Equal(t, 0, state.Keys)
}
