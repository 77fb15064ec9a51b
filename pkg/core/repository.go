package core

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/zeebo/blake3"
)

// Snapshot is the full state of one stored document at a point in time.
// A snapshot of a document that was never written has Exists == false.
type Snapshot struct {
	Key     string          `json:"key"`
	Exists  bool            `json:"exists"`
	Data    json.RawMessage `json:"data,omitempty"`
	Version int64           `json:"version"`
}

// WriteOptions controls how Write combines the payload with the stored document.
type WriteOptions struct {
	// Merge applies the payload as a JSON Merge Patch (RFC 7386) instead of
	// replacing the stored document.
	Merge bool
}

// Store defines the contract for a keyed document store.
// Adhering to this interface keeps the planner independent of where room
// documents live (files, SQLite, a remote server).
type Store interface {
	// Initialize ensures the underlying storage is ready (directories, schema, connectivity).
	Initialize(ctx context.Context) error

	// Get returns the current snapshot of the document stored under key.
	// A missing document is not an error: the snapshot has Exists == false.
	Get(ctx context.Context, key string) (Snapshot, error)

	// Write persists data under key, creating the document if needed.
	Write(ctx context.Context, key string, data []byte, opts WriteOptions) error
}

// Watchable defines stores that push change notifications.
type Watchable interface {
	// Watch delivers the current snapshot first, then a full snapshot after
	// every change (including the caller's own writes). The channel closes
	// when ctx is done or the subscription fails.
	Watch(ctx context.Context, key string) (<-chan Snapshot, error)
}

// Patchable defines stores that accept RFC 6902 JSON Patch writes.
type Patchable interface {
	// Patch applies ops to the document under key. A document that does not
	// exist yet is patched starting from the default empty room document.
	Patch(ctx context.Context, key string, ops []byte) error
}

// NormalizeRoom trims surrounding whitespace from a room identifier.
func NormalizeRoom(room string) string {
	return strings.TrimSpace(room)
}

// RoomKey derives the storage key for a room secret. Stores only ever see
// the key, never the secret.
func RoomKey(room string) string {
	sum := blake3.Sum256([]byte(NormalizeRoom(room)))
	return hex.EncodeToString(sum[:])
}
