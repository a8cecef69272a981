package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidIDToken  = errors.New("invalid identity token")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotConfigured   = errors.New("auth is not configured")
)

// GoogleClaims are the identity fields extracted from a verified Google ID
// token.
type GoogleClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type SessionRecord struct {
	SID       string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    string
	SID       string
	Role      string
	ExpiresAt time.Time
}

type Me struct {
	ID          string
	Email       string
	DisplayName string
	Role        string
	NewProfile  bool
}

type AuthResult struct {
	SessionToken string
	ExpiresAt    time.Time
	Me           Me
}
