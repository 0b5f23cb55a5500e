package domain

import "time"

// AuthEventKind classifies entries in the session audit trail.
type AuthEventKind string

const (
	EventSignIn           AuthEventKind = "sign_in"
	EventSignOut          AuthEventKind = "sign_out"
	EventForcedSignOut    AuthEventKind = "forced_sign_out"
	EventHeartbeatExpired AuthEventKind = "heartbeat_expired"
)

// AuthEvent records a single session lifecycle transition.
type AuthEvent struct {
	ID         string
	Kind       AuthEventKind
	SessionKey string
	Email      string
	Role       Role
	Reason     string
	Timestamp  time.Time
}
