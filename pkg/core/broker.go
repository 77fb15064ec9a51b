package core

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"
)

// Broker fans out snapshots to the watchers of each key.
//
// Every snapshot carries the full document, so a slow watcher only needs the
// most recent one: when a watcher's buffer is full the pending snapshot is
// replaced instead of blocking the publisher.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

type subscription struct {
	ch chan Snapshot
}

// NewBroker creates a broker whose watcher channels hold up to buffer
// pending snapshots. Zero means 1.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 1
	}
	return &Broker{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a watcher for key and delivers initial right away.
// The returned channel closes when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, key string, initial Snapshot) <-chan Snapshot {
	sub := &subscription{ch: make(chan Snapshot, b.buffer)}
	sub.ch <- initial

	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[*subscription]struct{})
	}
	b.subs[key][sub] = struct{}{}
	b.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[key], sub)
		if len(b.subs[key]) == 0 {
			delete(b.subs, key)
		}
		close(sub.ch)
		return nil
	})

	return sub.ch
}

// Publish delivers snap to every watcher of snap.Key without blocking.
func (b *Broker) Publish(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[snap.Key] {
		for {
			select {
			case sub.ch <- snap:
			default:
				// Drop the stale pending snapshot and retry.
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Watchers returns the number of active watchers across all keys.
func (b *Broker) Watchers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}
