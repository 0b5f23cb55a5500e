package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/servicedesk/session-gateway/internal/core/domain"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyCredential_Valid(t *testing.T) {
	signed := signTestToken(t, "secret", jwt.MapClaims{
		"sub":   "u_1",
		"name":  "Alice",
		"email": "alice@example.com",
		"role":  "MANAGER",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	id, ok := VerifyCredential(signed, "secret")
	if !ok {
		t.Fatalf("expected valid credential")
	}
	if id.ID != "u_1" || id.Role != domain.RoleManager || id.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyCredential_WrongSecret(t *testing.T) {
	signed := signTestToken(t, "secret", jwt.MapClaims{"sub": "u_1", "role": "MANAGER"})

	if _, ok := VerifyCredential(signed, "other"); ok {
		t.Fatalf("forged signature accepted")
	}
}

func TestVerifyCredential_Expired(t *testing.T) {
	signed := signTestToken(t, "secret", jwt.MapClaims{
		"sub":  "u_1",
		"role": "MANAGER",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	if _, ok := VerifyCredential(signed, "secret"); ok {
		t.Fatalf("expired credential accepted")
	}
}

func TestVerifyCredential_UnknownRole(t *testing.T) {
	signed := signTestToken(t, "secret", jwt.MapClaims{"sub": "u_1", "role": "WIZARD"})

	if _, ok := VerifyCredential(signed, "secret"); ok {
		t.Fatalf("unknown role accepted")
	}
}

func TestVerifyCredential_Garbage(t *testing.T) {
	if _, ok := VerifyCredential("not.a.token", "secret"); ok {
		t.Fatalf("garbage accepted")
	}
	if _, ok := VerifyCredential("", "secret"); ok {
		t.Fatalf("empty token accepted")
	}
}
