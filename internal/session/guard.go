package session

import "github.com/servicedesk/session-gateway/internal/core/domain"

// Decision is the role guard's verdict for one evaluation.
type Decision int

const (
	// Allow renders the guarded view.
	Allow Decision = iota
	// RedirectSignIn is issued for unauthenticated viewers.
	RedirectSignIn
	// RedirectDashboard is issued for authenticated viewers whose role is
	// outside the allowed set.
	RedirectDashboard
)

// Route returns the navigation target for redirect decisions, "" for Allow.
func (d Decision) Route() string {
	switch d {
	case RedirectSignIn:
		return SignInRoute
	case RedirectDashboard:
		return DashboardRoute
	}
	return ""
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectSignIn:
		return "redirect_signin"
	case RedirectDashboard:
		return "redirect_dashboard"
	}
	return "unknown"
}

// Evaluate computes the guard decision for the given principal and allowed
// role set. It is pure and meant to be re-evaluated on every render or
// request: when the identity changes underneath a mounted view (a sibling
// instance signed out, say), the next evaluation picks the change up.
//
// This is a UX convenience, not a security boundary. The upstream backend
// re-enforces authorization on every sensitive operation; anything decided
// here can be bypassed by whoever controls this process.
func Evaluate(identity *domain.Identity, allowed []domain.Role) Decision {
	if identity == nil {
		return RedirectSignIn
	}
	for _, r := range allowed {
		if identity.Role == r {
			return Allow
		}
	}
	return RedirectDashboard
}
