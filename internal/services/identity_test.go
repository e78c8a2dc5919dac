package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestJWTVerifier(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")

	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "ana@example.com",
		Name:  "Ana",
	}

	identity, err := verifier.Verify(signTestToken(t, "test-secret", jwt.SigningMethodHS256, claims))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.ID != "uid-1" || identity.Email != "ana@example.com" || identity.DisplayName != "Ana" {
		t.Fatalf("wrong identity: %+v", identity)
	}
}

func TestJWTVerifier_Rejects(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")

	valid := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signTestToken(t, "other-secret", jwt.SigningMethodHS256, valid)},
		{"expired", signTestToken(t, "test-secret", jwt.SigningMethodHS256, expired)},
		{"missing subject", signTestToken(t, "test-secret", jwt.SigningMethodHS256, noSubject)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := verifier.Verify(tt.token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
