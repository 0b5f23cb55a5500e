package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFile_RoundTrip(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if _, ok, _ := s.Get(ctx, "settings-storage"); ok {
		t.Fatalf("empty store reported a hit")
	}

	if err := s.Set(ctx, "settings-storage", []byte(`{"date_format":"DD/MM/YYYY"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "settings-storage")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"date_format":"DD/MM/YYYY"}` {
		t.Fatalf("value %s", got)
	}

	if err := s.Delete(ctx, "settings-storage"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "settings-storage"); ok {
		t.Fatalf("deleted key still present")
	}
}

func TestFile_DeleteMissingKeyIsNoError(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Delete(context.Background(), "never-written"); err != nil {
		t.Fatalf("delete of missing key: %v", err)
	}
}

func TestFile_KeysMapToPortableFilenames(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Set(context.Background(), "app:signout", []byte("ts")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app_signout.json")); err != nil {
		t.Fatalf("expected sanitized filename: %v", err)
	}
}

func TestFile_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Set(ctx, "auth-storage", []byte("snapshot")); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewFile(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := reopened.Get(ctx, "auth-storage")
	if err != nil || !ok || string(got) != "snapshot" {
		t.Fatalf("snapshot lost across reopen: ok=%v err=%v value=%s", ok, err, got)
	}
}
