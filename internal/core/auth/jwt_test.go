package auth

import (
	"testing"
	"time"
)

func TestIssueParse(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "crm", TTL: time.Hour}

	tok, err := j.Issue("u1", "alice", "MANAGER")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c, err := j.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.UID != "u1" || c.Username != "alice" || c.Role != "MANAGER" {
		t.Errorf("claims = %+v", c)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "crm", TTL: time.Hour}
	tok, err := j.Issue("u1", "alice", "REP")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := &JWTer{Secret: []byte("different"), Issuer: "crm", TTL: time.Hour}
	if _, err := other.Parse(tok); err == nil {
		t.Errorf("token signed with another secret must not parse")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "crm", TTL: time.Hour}
	tok, err := j.Issue("u1", "alice", "REP")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := &JWTer{Secret: []byte("test-secret"), Issuer: "someone-else", TTL: time.Hour}
	if _, err := other.Parse(tok); err == nil {
		t.Errorf("token from another issuer must not parse")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "crm", TTL: -2 * time.Hour}
	tok, err := j.Issue("u1", "alice", "REP")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := j.Parse(tok); err == nil {
		t.Errorf("expired token must not parse")
	}
}
