package storage

import (
	"context"
	"testing"
)

func TestMemory_RoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, ok, _ := s.Get(ctx, "auth-storage"); ok {
		t.Fatalf("empty store reported a hit")
	}

	if err := s.Set(ctx, "auth-storage", []byte(`{"token":"tok"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "auth-storage")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"token":"tok"}` {
		t.Fatalf("value %s", got)
	}

	if err := s.Delete(ctx, "auth-storage"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "auth-storage"); ok {
		t.Fatalf("deleted key still present")
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	in := []byte("original")
	_ = s.Set(ctx, "k", in)
	in[0] = 'X'

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "original" {
		t.Fatalf("stored value aliased the caller's slice: %s", got)
	}
	got[0] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "original" {
		t.Fatalf("returned value aliased the stored slice: %s", again)
	}
}

func TestMemoryBus_FanOutAndUnsubscribe(t *testing.T) {
	b := NewMemoryBus()
	var first, second []string

	cancel, err := b.Subscribe(func(p string) { first = append(first, p) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := b.Subscribe(func(p string) { second = append(second, p) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := b.Publish(context.Background(), "ts-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("fan-out missed a subscriber: %v %v", first, second)
	}

	cancel()
	_ = b.Publish(context.Background(), "ts-2")
	if len(first) != 1 {
		t.Fatalf("unsubscribed handler still invoked")
	}
	if len(second) != 2 || second[1] != "ts-2" {
		t.Fatalf("remaining handler missed publish: %v", second)
	}
}
