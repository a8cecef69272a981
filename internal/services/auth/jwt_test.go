package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)

	token, expiresAt, err := manager.GenerateSessionToken("user-1", "sid-1", "READER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}

	claims, err := manager.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.SID != "sid-1" || claims.Role != "READER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("secret-a", time.Hour).GenerateSessionToken("user-1", "sid-1", "READER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewJWTManager("secret-b", time.Hour).ParseSessionToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := manager.GenerateSessionToken("user-1", "sid-1", "READER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewJWTManager("secret", time.Hour).ParseSessionToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)

	for _, raw := range []string{"", "  ", "not.a.token"} {
		if _, err := manager.ParseSessionToken(raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", raw, err)
		}
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	manager := NewJWTManager("", time.Hour)

	if _, _, err := manager.GenerateSessionToken("user-1", "sid-1", "READER"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
