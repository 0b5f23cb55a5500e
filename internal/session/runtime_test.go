package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/infrastructure/storage"
)

func newTestRuntime(t *testing.T, snapshots *storage.Memory, bus *storage.MemoryBus) *Runtime {
	t.Helper()
	rt, err := NewRuntime(RuntimeConfig{
		Storage: snapshots,
		Bus:     bus,
		Log:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	return rt
}

func TestRuntime_SignInInstallsSession(t *testing.T) {
	rt := newTestRuntime(t, storage.NewMemory(), storage.NewMemoryBus())

	rt.SignIn(testIdentity(), "tok_abc", &domain.Preferences{ID: "p_1", Key: "display", DateFormat: "YYYY-MM-DD"})

	if !rt.Auth().State().IsLoggedIn {
		t.Fatalf("not signed in")
	}
	if got := rt.Settings().DateFormat(); got != "YYYY-MM-DD" {
		t.Fatalf("preferences not installed: %q", got)
	}
}

func TestRuntime_SiblingInstanceObservesSignOut(t *testing.T) {
	// Two runtimes over the same storage and bus model two open instances
	// of the application.
	snapshots := storage.NewMemory()
	bus := storage.NewMemoryBus()

	first := newTestRuntime(t, snapshots, bus)
	first.SignIn(testIdentity(), "tok_abc", nil)

	second := newTestRuntime(t, snapshots, bus)
	if !second.Auth().State().IsLoggedIn {
		t.Fatalf("second instance did not rehydrate the shared session")
	}

	first.SignOut(context.Background())

	// No reload, no polling: the bus signal alone must flip the sibling.
	if second.Auth().State().IsLoggedIn {
		t.Fatalf("sibling instance still signed in after signal")
	}
	if second.Settings().State().Preferences != nil {
		t.Fatalf("sibling settings survived the signal")
	}
}

func TestRuntime_RemoteSignalDoesNotRebroadcast(t *testing.T) {
	snapshots := storage.NewMemory()
	bus := storage.NewMemoryBus()

	publishes := 0
	if _, err := bus.Subscribe(func(string) { publishes++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := newTestRuntime(t, snapshots, bus)
	second := newTestRuntime(t, snapshots, bus)
	first.SignIn(testIdentity(), "tok_abc", nil)
	// second was built before the sign-in, so install its session directly.
	second.Auth().SetCredentials(testIdentity(), "tok_abc")

	first.SignOut(context.Background())

	if publishes != 1 {
		t.Fatalf("expected exactly one broadcast, got %d", publishes)
	}
	if second.Auth().State().IsLoggedIn {
		t.Fatalf("second instance still signed in")
	}
}

func TestRuntime_ForceSignOutTearsDown(t *testing.T) {
	rt := newTestRuntime(t, storage.NewMemory(), storage.NewMemoryBus())
	rt.SignIn(testIdentity(), "tok_abc", nil)

	rt.ForceSignOut(context.Background(), "unauthorized")

	if rt.Auth().State().IsLoggedIn {
		t.Fatalf("forced sign-out left session installed")
	}
}

func TestRuntime_AuditTrailRecordsLifecycle(t *testing.T) {
	sink := &memorySink{}
	rt, err := NewRuntime(RuntimeConfig{
		Storage: storage.NewMemory(),
		Bus:     storage.NewMemoryBus(),
		Audit:   sink,
		Log:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	defer rt.Close()

	rt.SignIn(testIdentity(), "tok_abc", nil)
	rt.SignOut(context.Background())

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(sink.events))
	}
	if sink.events[0].Kind != domain.EventSignIn || sink.events[1].Kind != domain.EventSignOut {
		t.Fatalf("unexpected kinds: %v %v", sink.events[0].Kind, sink.events[1].Kind)
	}
	if sink.events[1].SessionKey != "u_1" {
		t.Fatalf("sign-out event lost the session key: %+v", sink.events[1])
	}
}

type memorySink struct {
	events []domain.AuthEvent
}

func (s *memorySink) Record(ev domain.AuthEvent) { s.events = append(s.events, ev) }
