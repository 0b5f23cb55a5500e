package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/core/ports"
)

// snapshotStore is the store surface the persistence binder needs: restore a
// deserialized snapshot once, then observe every subsequent mutation.
type snapshotStore[T any] interface {
	Restore(T)
	Subscribe(func(T)) func()
}

// Bind rehydrates the store from storage under key, then subscribes a writer
// that serializes the snapshot after every mutation. Rehydration runs before
// the subscription is installed, so the initial restore never writes back.
//
// Write failures are logged, not propagated: a broken storage backend must
// not take the session state machine down with it.
func Bind[T any](store snapshotStore[T], storage ports.SnapshotStorage, key string, log zerolog.Logger) (unbind func(), err error) {
	raw, ok, err := storage.Get(context.Background(), key)
	if err != nil {
		return nil, fmt.Errorf("rehydrate %s: %w", key, err)
	}
	if ok {
		var snap T
		if err := json.Unmarshal(raw, &snap); err != nil {
			// A corrupt snapshot means starting signed out, not crashing.
			log.Warn().Err(err).Str("key", key).Msg("discarding corrupt session snapshot")
		} else {
			store.Restore(snap)
		}
	}

	unbind = store.Subscribe(func(snap T) {
		b, err := json.Marshal(snap)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("marshal session snapshot")
			return
		}
		if err := storage.Set(context.Background(), key, b); err != nil {
			log.Error().Err(err).Str("key", key).Msg("persist session snapshot")
		}
	})
	return unbind, nil
}
