package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	token, err := SignJWT(Claims{
		Email:            "reader@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "reader@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected default expiry")
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	expired, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	wrongKey, _ := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	t.Setenv("JWT_SECRET", "test-secret")

	for name, tok := range map[string]string{
		"garbage":   "not-a-token",
		"expired":   expired,
		"wrong key": wrongKey,
	} {
		if _, err := VerifyJWT(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENV", "production")
	if _, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}); err == nil {
		t.Fatalf("expected error without secret in production")
	}
}
