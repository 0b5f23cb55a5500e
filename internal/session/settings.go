package session

import (
	"sync"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

// SettingsState is the public snapshot of the settings store.
type SettingsState struct {
	Preferences *domain.Preferences `json:"preferences"`
	Error       string              `json:"error,omitempty"`
}

// SettingsStore holds display preferences with a safe default. Same
// subscription and persistence contract as AuthStore, under its own key.
type SettingsStore struct {
	mu        sync.Mutex
	state     SettingsState
	listeners map[int]func(SettingsState)
	nextID    int
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{listeners: make(map[int]func(SettingsState))}
}

// SetSettings replaces the preferences and clears any prior error. A nil
// value is accepted and means "no preference record".
func (s *SettingsStore) SetSettings(p *domain.Preferences) {
	s.mutate(func(st *SettingsState) {
		if p == nil {
			st.Preferences = nil
		} else {
			cp := *p
			st.Preferences = &cp
		}
		st.Error = ""
	})
}

// ClearSettings resets the preferences; the next DateFormat read falls back
// to the default.
func (s *SettingsStore) ClearSettings() {
	s.mutate(func(st *SettingsState) {
		*st = SettingsState{}
	})
}

// Clear satisfies ports.SessionClearer.
func (s *SettingsStore) Clear() { s.ClearSettings() }

func (s *SettingsStore) SetError(msg string) {
	s.mutate(func(st *SettingsState) { st.Error = msg })
}

// DateFormat returns the preferred date display format. It falls back to
// domain.DefaultDateFormat only when no preference record is present; a
// present record's format is returned verbatim, even when empty.
func (s *SettingsStore) DateFormat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Preferences == nil {
		return domain.DefaultDateFormat
	}
	return s.state.Preferences.DateFormat
}

// State returns a copy of the current snapshot.
func (s *SettingsStore) State() SettingsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers a listener invoked with the post-mutation snapshot.
func (s *SettingsStore) Subscribe(fn func(SettingsState)) func() {
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

// Restore replaces the state without notifying listeners.
func (s *SettingsStore) Restore(st SettingsState) {
	s.mu.Lock()
	s.state = st.clone()
	s.mu.Unlock()
}

func (s *SettingsStore) mutate(fn func(*SettingsState)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.clone()
	fns := make([]func(SettingsState), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(snapshot)
	}
}

func (st SettingsState) clone() SettingsState {
	out := st
	if st.Preferences != nil {
		p := *st.Preferences
		out.Preferences = &p
	}
	return out
}
