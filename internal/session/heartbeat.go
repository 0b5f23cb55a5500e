package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/servicedesk/session-gateway/internal/api/metrics"
	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/core/ports"
)

const defaultHeartbeatInterval = 5 * time.Minute

// forcedSignOuter is the slice of Runtime the heartbeat needs.
type forcedSignOuter interface {
	ForceSignOut(ctx context.Context, reason string)
}

// Heartbeat periodically probes upstream session liveness. The client copy of
// the credential can outlive the server-side session; the heartbeat closes
// that window by forcing a sign-out when the probe reports the session gone.
type Heartbeat struct {
	probe    ports.SessionProber
	auth     *AuthStore
	target   forcedSignOuter
	interval time.Duration
	log      zerolog.Logger
}

func NewHeartbeat(probe ports.SessionProber, auth *AuthStore, target forcedSignOuter, interval time.Duration, log zerolog.Logger) *Heartbeat {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &Heartbeat{probe: probe, auth: auth, target: target, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, probing once per interval.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Check performs a single probe. Signed-out instances skip the probe
// entirely. Transport failures are logged and ignored — only a definitive
// "session expired" answer forces a sign-out.
func (h *Heartbeat) Check(ctx context.Context) {
	if !h.auth.State().IsLoggedIn {
		return
	}

	err := h.probe.ProbeSession(ctx)
	switch {
	case err == nil:
		metrics.HeartbeatChecksTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrSessionExpired):
		metrics.HeartbeatChecksTotal.WithLabelValues("expired").Inc()
		h.log.Info().Msg("heartbeat found session expired upstream")
		h.target.ForceSignOut(ctx, "heartbeat")
	default:
		metrics.HeartbeatChecksTotal.WithLabelValues("error").Inc()
		h.log.Warn().Err(err).Msg("heartbeat probe failed")
	}
}
