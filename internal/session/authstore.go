// Package session implements the gateway's session lifecycle: the auth and
// settings state containers, their persistence binding, the sign-out
// coordinator, the role guard, and the upstream heartbeat.
package session

import (
	"sync"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

// Storage keys and well-known routes. The key names are shared with every
// sibling instance reading the same snapshot storage.
const (
	AuthStorageKey     = "auth-storage"
	SettingsStorageKey = "settings-storage"
	SignalKey          = "app:signout"

	SignInRoute    = "/signin"
	DashboardRoute = "/dashboard"
)

// AuthState is the public snapshot of the auth store. It is what gets
// serialized to snapshot storage, so every field must round-trip through JSON.
type AuthState struct {
	Identity   *domain.Identity `json:"identity"`
	Token      string           `json:"token"`
	IsLoggedIn bool             `json:"is_logged_in"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
}

// AuthStore is the single source of truth for "who is signed in" on this
// instance. All mutation goes through its methods; listeners registered via
// Subscribe run synchronously before the mutating call returns, which is what
// keeps the persisted snapshot from ever diverging from memory.
type AuthStore struct {
	mu        sync.Mutex
	state     AuthState
	listeners map[int]func(AuthState)
	nextID    int
}

func NewAuthStore() *AuthStore {
	return &AuthStore{listeners: make(map[int]func(AuthState))}
}

// SetCredentials replaces the identity and session credential, marks the
// store signed-in, and clears any prior error. The caller is responsible for
// having validated the upstream response shape.
func (s *AuthStore) SetCredentials(identity domain.Identity, token string) {
	s.mutate(func(st *AuthState) {
		id := identity
		st.Identity = &id
		st.Token = token
		st.IsLoggedIn = true
		st.Error = ""
	})
}

// Logout resets the store to its initial empty state. Calling it while
// already signed out is a no-op state change, not an error.
func (s *AuthStore) Logout() {
	s.mutate(func(st *AuthState) {
		*st = AuthState{}
	})
}

// Clear satisfies ports.SessionClearer.
func (s *AuthStore) Clear() { s.Logout() }

// SetLoading toggles the transient loading flag. No effect on identity.
func (s *AuthStore) SetLoading(v bool) {
	s.mutate(func(st *AuthState) { st.Loading = v })
}

// SetError records a user-facing error message. No effect on identity.
func (s *AuthStore) SetError(msg string) {
	s.mutate(func(st *AuthState) { st.Error = msg })
}

func (s *AuthStore) ClearError() { s.SetError("") }

// State returns a copy of the current snapshot.
func (s *AuthStore) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Credential returns the session credential copy held by the store.
func (s *AuthStore) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Identity returns the current principal, or nil when signed out.
func (s *AuthStore) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Identity == nil {
		return nil
	}
	id := *s.state.Identity
	return &id
}

// Subscribe registers a listener invoked with the post-mutation snapshot on
// every accepted mutation. The returned function unsubscribes.
func (s *AuthStore) Subscribe(fn func(AuthState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Restore replaces the state without notifying listeners. Used by the
// persistence binder during rehydration, before any listener exists.
func (s *AuthStore) Restore(st AuthState) {
	s.mu.Lock()
	s.state = st.clone()
	s.mu.Unlock()
}

// mutate applies fn under the lock, then notifies listeners outside the lock
// but still synchronously, so persistence completes before the caller
// observes the mutation as done.
func (s *AuthStore) mutate(fn func(*AuthState)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.clone()
	fns := make([]func(AuthState), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(snapshot)
	}
}

func (st AuthState) clone() AuthState {
	out := st
	if st.Identity != nil {
		id := *st.Identity
		out.Identity = &id
	}
	return out
}
