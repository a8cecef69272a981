package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
)

type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (GoogleClaims, error)
}

type ProfileStore interface {
	UpsertOnSignIn(ctx context.Context, id, email, displayName, pictureURL string) (model.UserProfile, error)
}

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

type Config struct {
	AdminSubjects []string
}

type Service struct {
	verifier IdentityVerifier
	jwt      *JWTManager
	profiles ProfileStore
	sessions SessionStore
	admins   map[string]struct{}
	now      func() time.Time
}

func NewService(verifier IdentityVerifier, jwtManager *JWTManager, profiles ProfileStore, sessions SessionStore, cfg Config) *Service {
	admins := make(map[string]struct{}, len(cfg.AdminSubjects))
	for _, sub := range cfg.AdminSubjects {
		sub = strings.TrimSpace(sub)
		if sub != "" {
			admins[sub] = struct{}{}
		}
	}

	return &Service{
		verifier: verifier,
		jwt:      jwtManager,
		profiles: profiles,
		sessions: sessions,
		admins:   admins,
		now:      time.Now,
	}
}

// SignInGoogle exchanges a verified Google ID token for an application
// session. The profile write is a single merge-upsert: first sign-in creates
// the profile with a zero balance, repeat sign-ins only refresh identity
// fields and last_login_at.
func (s *Service) SignInGoogle(ctx context.Context, idToken string) (AuthResult, error) {
	if s.verifier == nil || s.jwt == nil {
		return AuthResult{}, ErrNotConfigured
	}
	if strings.TrimSpace(idToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrInvalidIDToken) {
			return AuthResult{}, ErrInvalidIDToken
		}
		return AuthResult{}, fmt.Errorf("verify id token: %w", err)
	}

	profile, err := s.profiles.UpsertOnSignIn(ctx, claims.Subject, claims.Email, claims.Name, claims.Picture)
	if err != nil {
		return AuthResult{}, fmt.Errorf("upsert profile: %w", err)
	}

	role := string(enums.RoleReader)
	if _, ok := s.admins[claims.Subject]; ok {
		role = string(enums.RoleAdmin)
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}

	token, expiresAt, err := s.jwt.GenerateSessionToken(profile.ID, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session token: %w", err)
	}

	if err := s.sessions.Create(ctx, SessionRecord{
		SID:       sessionID,
		UserID:    profile.ID,
		Role:      role,
		ExpiresAt: expiresAt,
	}); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	return AuthResult{
		SessionToken: token,
		ExpiresAt:    expiresAt,
		Me: Me{
			ID:          profile.ID,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			Role:        role,
			NewProfile:  profile.CreatedAt.Equal(profile.LastLoginAt),
		},
	}, nil
}

// ValidateSessionToken checks the cookie credential against both its own
// signature and the live session record, so logout revokes access before the
// token expires.
func (s *Service) ValidateSessionToken(ctx context.Context, token string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, ErrNotConfigured
	}

	claims, err := s.jwt.ParseSessionToken(token)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}
