package http

import (
	"errors"
	"testing"
	"time"

	"quiz-ledger-service/internal/domain"
)

func TestAuthenticatorRoundTrip(t *testing.T) {
	a := NewAuthenticator("k", "token", nil)
	tok, err := a.Issue(domain.Principal{UserID: "u1", Role: domain.RoleStudent}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := a.Parse(tok)
	if err != nil || p.UserID != "u1" || p.Role != domain.RoleStudent {
		t.Fatalf("unexpected principal %+v err=%v", p, err)
	}
}

func TestAuthenticatorRejects(t *testing.T) {
	a := NewAuthenticator("k", "token", nil)
	expired, _ := a.Issue(domain.Principal{UserID: "u1", Role: domain.RoleStudent}, -time.Minute)
	unknownRole, _ := a.Issue(domain.Principal{UserID: "u1", Role: domain.Role("janitor")}, time.Hour)
	noUser, _ := a.Issue(domain.Principal{Role: domain.RoleAdmin}, time.Hour)

	for name, tok := range map[string]string{"expired": expired, "unknown role": unknownRole, "no user": noUser, "empty": ""} {
		if _, err := a.Parse(tok); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%s: expected unauthorized, got %v", name, err)
		}
	}
}
