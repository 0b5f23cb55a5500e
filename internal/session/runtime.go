package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/core/ports"
)

// RuntimeConfig assembles a Runtime's collaborators. Storage and Bus are
// required; the rest default to no-ops so tests can wire only what they
// exercise.
type RuntimeConfig struct {
	Storage   ports.SnapshotStorage
	Bus       ports.SignoutBus
	Notifier  ports.LogoutNotifier
	Navigator ports.Navigator
	Audit     ports.AuthEventSink
	Log       zerolog.Logger
}

// Runtime owns one instance's session state: both stores bound to durable
// storage, the sign-out coordinator, and the subscription that invalidates
// this instance when a sibling broadcasts a sign-out.
type Runtime struct {
	auth     *AuthStore
	settings *SettingsStore
	coord    *Coordinator
	audit    ports.AuthEventSink
	log      zerolog.Logger
	cleanup  []func()
}

// NewRuntime rehydrates both stores from storage, wires the coordinator, and
// subscribes to the sign-out bus. Rehydration completes before NewRuntime
// returns, so callers never observe pre-restore state.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Audit == nil {
		cfg.Audit = nopSink{}
	}

	r := &Runtime{
		auth:     NewAuthStore(),
		settings: NewSettingsStore(),
		audit:    cfg.Audit,
		log:      cfg.Log,
	}

	unbindAuth, err := Bind(r.auth, cfg.Storage, AuthStorageKey, cfg.Log)
	if err != nil {
		return nil, err
	}
	unbindSettings, err := Bind(r.settings, cfg.Storage, SettingsStorageKey, cfg.Log)
	if err != nil {
		unbindAuth()
		return nil, err
	}
	r.cleanup = append(r.cleanup, unbindAuth, unbindSettings)

	r.coord = NewCoordinator(cfg.Notifier, r.auth, r.settings, cfg.Storage, cfg.Bus, cfg.Navigator, cfg.Log)

	unsubscribe, err := cfg.Bus.Subscribe(func(string) { r.onRemoteSignal() })
	if err != nil {
		r.Close()
		return nil, err
	}
	r.cleanup = append(r.cleanup, unsubscribe)

	return r, nil
}

func (r *Runtime) Auth() *AuthStore         { return r.auth }
func (r *Runtime) Settings() *SettingsStore { return r.settings }

// SignIn installs a freshly authenticated session. The caller has already
// validated the upstream response; prefs may be nil when the user has no
// preference record yet.
func (r *Runtime) SignIn(identity domain.Identity, token string, prefs *domain.Preferences) {
	r.auth.SetCredentials(identity, token)
	r.settings.SetSettings(prefs)
	r.record(domain.EventSignIn, identity, "")
}

// SignOut runs the user-initiated teardown.
func (r *Runtime) SignOut(ctx context.Context) {
	identity := r.auth.Identity()
	r.coord.SignOut(ctx, "user")
	if identity != nil {
		r.record(domain.EventSignOut, *identity, "user")
	}
}

// ForceSignOut runs the teardown for session-level failures (401/403 from
// the upstream gateway, heartbeat expiry).
func (r *Runtime) ForceSignOut(ctx context.Context, reason string) {
	identity := r.auth.Identity()
	r.coord.SignOut(ctx, reason)
	if identity != nil {
		kind := domain.EventForcedSignOut
		if reason == "heartbeat" {
			kind = domain.EventHeartbeatExpired
		}
		r.record(kind, *identity, reason)
	}
}

// onRemoteSignal invalidates local state when a sibling instance signs out.
// It deliberately runs Invalidate, not SignOut: no upstream call and no
// re-broadcast, or two instances would ping-pong signals forever.
func (r *Runtime) onRemoteSignal() {
	if !r.auth.State().IsLoggedIn && r.settings.State().Preferences == nil {
		return
	}
	r.log.Info().Msg("sign-out signal observed, invalidating local session")
	r.coord.Invalidate(context.Background())
}

// Close releases the persistence bindings and the bus subscription.
func (r *Runtime) Close() {
	for _, fn := range r.cleanup {
		fn()
	}
	r.cleanup = nil
}

func (r *Runtime) record(kind domain.AuthEventKind, identity domain.Identity, reason string) {
	r.audit.Record(domain.AuthEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		SessionKey: identity.ID,
		Email:      identity.Email,
		Role:       identity.Role,
		Reason:     reason,
		Timestamp:  time.Now().UTC(),
	})
}

type nopNotifier struct{}

func (nopNotifier) NotifyLogout(context.Context) error { return nil }

type nopSink struct{}

func (nopSink) Record(domain.AuthEvent) {}
