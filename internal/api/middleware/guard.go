package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/session-gateway/internal/api/metrics"
	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/session"
)

// GuardMode selects how a deny decision is answered.
type GuardMode int

const (
	// GuardJSON answers API callers with 401/403 error envelopes.
	GuardJSON GuardMode = iota
	// GuardRedirect answers browser navigation with 302 to the sign-in or
	// default landing route.
	GuardRedirect
)

// Guard gates a route group on role membership. The decision is computed per
// request from the identity resolved by Session, so a sign-out observed
// between two requests changes the verdict immediately.
//
// This gate is a convenience for the UI; the upstream backend re-checks
// authorization on every call that matters.
func Guard(mode GuardMode, allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := session.Evaluate(Identity(c), allowed)
			metrics.GuardDecisionsTotal.WithLabelValues(decision.String()).Inc()

			switch decision {
			case session.Allow:
				return next(c)
			case session.RedirectSignIn:
				if mode == GuardRedirect {
					return c.Redirect(http.StatusFound, decision.Route())
				}
				return domain.ErrNotAuthenticated
			default:
				if mode == GuardRedirect {
					return c.Redirect(http.StatusFound, decision.Route())
				}
				return domain.ErrForbiddenRole
			}
		}
	}
}
