package typed

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/aquarium/pkg/core"
)

// Update is one decoded notification of a watched document.
// Err is set when a snapshot could not be decoded; the watch keeps going.
type Update[T any] struct {
	Model *Model[T]
	Err   error
}

// Watch decodes the snapshots of key as they arrive.
// The store must implement core.Watchable. The returned channel closes when
// the underlying subscription ends.
func (r *Repository[T]) Watch(ctx context.Context, key string) (<-chan Update[T], error) {
	w, ok := r.store.(core.Watchable)
	if !ok {
		return nil, core.ErrNotWatchable
	}
	snaps, err := w.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", key, err)
	}

	out := make(chan Update[T], 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for snap := range snaps {
			m, err := fromSnapshot[T](snap, r)
			select {
			case out <- Update[T]{Model: m, Err: err}:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})
	return out, nil
}
