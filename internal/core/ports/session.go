package ports

import "context"

// SessionClearer resets a store to its signed-out state. Both session stores
// implement it, so the sign-out coordinator needs no per-store knowledge and
// no existence checks before calling.
type SessionClearer interface {
	Clear()
}

// LogoutNotifier performs the best-effort server-side logout call.
type LogoutNotifier interface {
	NotifyLogout(ctx context.Context) error
}

// SessionProber checks upstream session liveness for the heartbeat.
type SessionProber interface {
	ProbeSession(ctx context.Context) error
}

// Navigator forces navigation to the sign-in surface after teardown. In the
// gateway this is the hook the HTTP layer uses to answer with a redirect.
type Navigator interface {
	NavigateSignIn()
}

// NavigatorFunc adapts a plain function to the Navigator interface.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateSignIn() { f() }
