package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/api/metrics"
	"github.com/servicedesk/session-gateway/internal/core/ports"
)

// Coordinator runs the sign-out teardown. The sequence is best-effort end to
// end: the upstream notification may fail, storage may be unreachable, the
// bus may be down, and local state still has to be cleared. No step is
// allowed to abort the steps after it.
type Coordinator struct {
	notifier ports.LogoutNotifier
	auth     ports.SessionClearer
	settings ports.SessionClearer
	storage  ports.SnapshotStorage
	bus      ports.SignoutBus
	nav      ports.Navigator
	log      zerolog.Logger
}

func NewCoordinator(
	notifier ports.LogoutNotifier,
	auth ports.SessionClearer,
	settings ports.SessionClearer,
	storage ports.SnapshotStorage,
	bus ports.SignoutBus,
	nav ports.Navigator,
	log zerolog.Logger,
) *Coordinator {
	if nav == nil {
		nav = ports.NavigatorFunc(func() {})
	}
	return &Coordinator{
		notifier: notifier,
		auth:     auth,
		settings: settings,
		storage:  storage,
		bus:      bus,
		nav:      nav,
		log:      log,
	}
}

// SignOut tears the session down locally and across sibling instances.
// Idempotent: running it against an already signed-out session repeats the
// same no-op clears and re-broadcasts the signal.
func (c *Coordinator) SignOut(ctx context.Context, reason string) {
	// 1. Best-effort upstream notification. Failure is logged, never blocks
	//    the local teardown.
	if err := c.notifier.NotifyLogout(ctx); err != nil {
		c.log.Warn().Err(err).Msg("upstream logout notification failed")
	}

	// 2–4. Local teardown, shared with remote-signal invalidation.
	c.clearLocal(ctx)

	// 5. Broadcast so sibling instances invalidate too. The payload is the
	//    current timestamp; subscribers treat it as opaque.
	if err := c.bus.Publish(ctx, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		c.log.Warn().Err(err).Msg("sign-out broadcast failed")
	}

	// 6. Hard navigation to the sign-in surface.
	c.nav.NavigateSignIn()

	metrics.SignOutsTotal.WithLabelValues(reason).Inc()
	c.log.Info().Str("reason", reason).Msg("session signed out")
}

// Invalidate runs the local half of the teardown only. It is what a sibling
// instance runs when it observes the sign-out signal: no upstream call and,
// critically, no re-broadcast.
func (c *Coordinator) Invalidate(ctx context.Context) {
	c.clearLocal(ctx)
	c.nav.NavigateSignIn()
}

func (c *Coordinator) clearLocal(ctx context.Context) {
	// 2. Auth store first, so no reader observes a signed-in identity with
	//    purged settings.
	c.auth.Clear()

	// 3. Settings store.
	c.settings.Clear()

	// 4. Explicit purge of both storage entries. The stores' own persistence
	//    already rewrote empty snapshots; the delete covers storage-key drift
	//    between gateway versions.
	for _, key := range []string{AuthStorageKey, SettingsStorageKey} {
		if err := c.storage.Delete(ctx, key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("storage purge failed")
		}
	}
}
