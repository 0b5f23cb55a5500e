package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/servicedesk/session-gateway/internal/core/domain"
	"github.com/servicedesk/session-gateway/internal/session"
	"github.com/servicedesk/session-gateway/internal/upstream"
)

// IdentityKey is the echo context key the resolved principal is stored under.
const IdentityKey = "identity"

// Session resolves the current principal into the request context. The
// workstation runtime is authoritative; when it is signed out, a credential
// cookie on the request is verified as a fallback so server-side gating
// still works for requests arriving ahead of rehydration. Verification
// failure means "no session", never an error.
func Session(rt *session.Runtime, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := rt.Auth().Identity(); id != nil {
				c.Set(IdentityKey, id)
				return next(c)
			}
			if cookie, err := c.Cookie(upstream.CredentialCookie); err == nil && cookie.Value != "" {
				if id, ok := session.VerifyCredential(cookie.Value, jwtSecret); ok {
					c.Set(IdentityKey, id)
				}
			}
			return next(c)
		}
	}
}

// Identity extracts the principal resolved by Session, or nil.
func Identity(c echo.Context) *domain.Identity {
	id, _ := c.Get(IdentityKey).(*domain.Identity)
	return id
}
