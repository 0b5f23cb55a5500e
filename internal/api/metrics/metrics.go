// Package metrics defines and registers all custom Prometheus metrics for the
// session gateway. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry at import time via promauto; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session_gateway"

// ── Session lifecycle ─────────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "ok", "invalid_credentials", "upstream_error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// SignOutsTotal counts completed sign-out teardowns.
// Label:
//   - reason: "user", "unauthorized", "forbidden", "not_found", "heartbeat"
var SignOutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signouts_total",
		Help:      "Total number of sign-out teardowns, by trigger reason.",
	},
	[]string{"reason"},
)

// HeartbeatChecksTotal counts upstream liveness probes.
// Label:
//   - result: "ok", "expired", "error"
var HeartbeatChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "heartbeat_checks_total",
		Help:      "Total number of session heartbeat probes, by result.",
	},
	[]string{"result"},
)

// ── Upstream gateway ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts requests sent through the upstream gateway.
// Labels:
//   - method: HTTP method
//   - status: numeric status code of the response, or "error" on transport failure
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of upstream API requests, by method and status.",
	},
	[]string{"method", "status"},
)

// ── Role guard ────────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts role guard evaluations on gated routes.
// Label:
//   - decision: "allow", "redirect_signin", "redirect_dashboard"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of role guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events written to the trail.
// Label:
//   - kind: "sign_in", "sign_out", "forced_sign_out", "heartbeat_expired"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of session audit events recorded, by kind.",
	},
	[]string{"kind"},
)
