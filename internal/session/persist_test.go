package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/infrastructure/storage"
)

func TestBind_PersistsEveryMutation(t *testing.T) {
	store := NewAuthStore()
	snapshots := storage.NewMemory()

	if _, err := Bind(store, snapshots, AuthStorageKey, zerolog.Nop()); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	store.SetCredentials(testIdentity(), "tok_abc")

	raw, ok, err := snapshots.Get(context.Background(), AuthStorageKey)
	if err != nil || !ok {
		t.Fatalf("snapshot not written: ok=%v err=%v", ok, err)
	}
	var snap AuthState
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if !snap.IsLoggedIn || snap.Token != "tok_abc" {
		t.Fatalf("snapshot out of sync: %+v", snap)
	}
}

func TestBind_RehydratesFreshStore(t *testing.T) {
	snapshots := storage.NewMemory()

	first := NewAuthStore()
	if _, err := Bind(first, snapshots, AuthStorageKey, zerolog.Nop()); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	first.SetCredentials(testIdentity(), "tok_abc")

	// A fresh process instance must observe identical state before any
	// other component reads it.
	second := NewAuthStore()
	if _, err := Bind(second, snapshots, AuthStorageKey, zerolog.Nop()); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}

	st := second.State()
	if !st.IsLoggedIn || st.Identity == nil || st.Identity.Email != "alice@example.com" {
		t.Fatalf("rehydrated state incomplete: %+v", st)
	}
}

func TestBind_CorruptSnapshotStartsSignedOut(t *testing.T) {
	snapshots := storage.NewMemory()
	_ = snapshots.Set(context.Background(), AuthStorageKey, []byte("{not json"))

	store := NewAuthStore()
	if _, err := Bind(store, snapshots, AuthStorageKey, zerolog.Nop()); err != nil {
		t.Fatalf("bind should tolerate corrupt snapshots: %v", err)
	}
	if store.State().IsLoggedIn {
		t.Fatalf("corrupt snapshot produced a signed-in store")
	}
}

func TestBind_SettingsRoundTrip(t *testing.T) {
	snapshots := storage.NewMemory()

	first := NewSettingsStore()
	if _, err := Bind(first, snapshots, SettingsStorageKey, zerolog.Nop()); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	first.SetSettings(&domain.Preferences{ID: "p_1", Key: "display", DateFormat: "YYYY-MM-DD"})

	second := NewSettingsStore()
	if _, err := Bind(second, snapshots, SettingsStorageKey, zerolog.Nop()); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
	if got := second.DateFormat(); got != "YYYY-MM-DD" {
		t.Fatalf("rehydrated format %q", got)
	}
}

func TestBind_UnbindStopsWrites(t *testing.T) {
	store := NewAuthStore()
	snapshots := storage.NewMemory()

	unbind, err := Bind(store, snapshots, AuthStorageKey, zerolog.Nop())
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	unbind()
	store.SetCredentials(testIdentity(), "tok_abc")

	if _, ok, _ := snapshots.Get(context.Background(), AuthStorageKey); ok {
		t.Fatalf("write happened after unbind")
	}
}
