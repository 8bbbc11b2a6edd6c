package auth

import (
	"testing"
	"time"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	user := &User{ID: 42, Email: "tech@shop.test", CompanyID: 7, Role: authz.RoleTechnician, IsActive: true}

	token, err := IssueAccessToken(secret, user, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != 42 || id.CompanyID != 7 || id.Role != authz.RoleTechnician {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if len(id.Roles) != 0 {
		t.Fatalf("token identity must not carry auxiliary roles, got %v", id.Roles)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	user := &User{ID: 42, CompanyID: 7, Role: authz.RoleTechnician}

	token, err := IssueAccessToken(secret, user, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseAccessToken(token, secret); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	user := &User{ID: 42, CompanyID: 7, Role: authz.RoleTechnician}
	token, err := IssueAccessToken([]byte("secret-one-secret-one-secret-one"), user, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseAccessToken(token, []byte("secret-two-secret-two-secret-two")); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}
