package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken("user-1", "op1", RoleOperator, secret)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	identity := claims.Identity()
	if identity.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %s", identity.Subject)
	}
	if identity.DisplayName != "op1" {
		t.Fatalf("expected display name op1, got %s", identity.DisplayName)
	}
	if identity.Role != RoleOperator {
		t.Fatalf("expected role operator, got %s", identity.Role)
	}
	remaining := time.Until(identity.ExpiresAt)
	if remaining < 11*time.Hour || remaining > 12*time.Hour {
		t.Fatalf("expected ~12h validity, got %s", remaining)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken("user-1", "op1", RoleOperator, []byte("secret-a"))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := ParseToken(token, []byte("secret-b")); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		Username: "d1",
		Role:     string(RoleDrone),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "drone-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-13 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ParseToken(signed, secret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseToken_UnknownRole(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		Username: "x",
		Role:     "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ParseToken(signed, secret); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	if _, err := ParseToken("not-a-token", []byte("test-secret")); err == nil {
		t.Fatal("expected error for malformed token")
	}
	if _, err := ParseToken("", []byte("test-secret")); err == nil {
		t.Fatal("expected error for empty token")
	}
}
