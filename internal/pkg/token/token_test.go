package token

import (
	"testing"
	"time"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	svc := NewService("secret", time.Hour)

	tok, err := svc.Issue("64b1f0a4e1382b8f1c000001", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "64b1f0a4e1382b8f1c000001" {
		t.Fatalf("expected subject, got %q", claims.Subject)
	}
	if claims.Email != "a@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewService("secret", time.Hour)
	verifier := NewService("other_secret", time.Hour)

	tok, err := issuer.Issue("64b1f0a4e1382b8f1c000001", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(tok); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestVerify_Malformed(t *testing.T) {
	svc := NewService("secret", time.Hour)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Verify(tok); err == nil {
			t.Fatalf("expected failure for %q", tok)
		}
	}
}

func TestVerify_Expired(t *testing.T) {
	svc := &Service{secret: []byte("secret"), ttl: -time.Hour}

	tok, err := svc.Issue("64b1f0a4e1382b8f1c000001", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(tok); err == nil {
		t.Fatalf("expected failure for expired token")
	}
}

func TestNewService_DefaultTTL(t *testing.T) {
	svc := NewService("secret", 0)
	if svc.TTL() != 24*time.Hour {
		t.Fatalf("expected 24h default ttl, got %s", svc.TTL())
	}
}
