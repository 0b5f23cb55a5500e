package session

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

// VerifyCredential parses and verifies a session credential for server-side
// gating. Any failure — bad signature, expired token, malformed claims,
// unknown role — means "no session" (ok false), never an error to escalate.
func VerifyCredential(token, secret string) (*domain.Identity, bool) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, false
	}

	role := domain.Role(stringClaim(claims, "role"))
	if !role.IsValid() {
		return nil, false
	}

	return &domain.Identity{
		ID:     stringClaim(claims, "sub"),
		Name:   stringClaim(claims, "name"),
		Email:  stringClaim(claims, "email"),
		Role:   role,
		Avatar: stringClaim(claims, "avatar"),
	}, true
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
