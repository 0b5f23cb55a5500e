// Package storage provides the snapshot storage and sign-out signal backends:
// in-memory for tests and single-instance runs, file-per-key for standalone
// workstations, and Redis when sibling instances share session state.
package storage

import (
	"context"
	"sync"
)

// Memory is a process-local SnapshotStorage. Safe for concurrent use.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (s *Memory) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	s.m[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// MemoryBus is a process-local SignoutBus. Handlers run synchronously on the
// publisher's goroutine, which makes sibling-instance tests deterministic.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[int]func(string)
	nextID int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]func(string))}
}

func (b *MemoryBus) Publish(_ context.Context, payload string) error {
	b.mu.Lock()
	fns := make([]func(string), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
	return nil
}

func (b *MemoryBus) Subscribe(fn func(string)) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}, nil
}
