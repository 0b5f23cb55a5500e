package ports

import "context"

// SnapshotStorage is the durable key-value store session snapshots are
// persisted to. Implementations: in-memory (tests), file-per-key (standalone
// workstation), Redis (coordinated sibling instances).
type SnapshotStorage interface {
	// Get returns the stored value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
