package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/model"
)

type verifierStub struct {
	claims GoogleClaims
	err    error
}

func (v *verifierStub) Verify(_ context.Context, _ string) (GoogleClaims, error) {
	if v.err != nil {
		return GoogleClaims{}, v.err
	}
	return v.claims, nil
}

type profileStoreStub struct {
	existing map[string]model.UserProfile
	upserts  int
}

func newProfileStoreStub() *profileStoreStub {
	return &profileStoreStub{existing: map[string]model.UserProfile{}}
}

func (s *profileStoreStub) UpsertOnSignIn(_ context.Context, id, email, displayName, pictureURL string) (model.UserProfile, error) {
	s.upserts++

	if profile, ok := s.existing[id]; ok {
		profile.Email = email
		profile.DisplayName = displayName
		profile.PictureURL = pictureURL
		profile.LastLoginAt = profile.CreatedAt.Add(time.Hour)
		s.existing[id] = profile
		return profile, nil
	}

	now := time.Unix(5000, 0).UTC()
	profile := model.UserProfile{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		PictureURL:  pictureURL,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	s.existing[id] = profile
	return profile, nil
}

type sessionStoreStub struct {
	sessions map[string]SessionRecord
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: map[string]SessionRecord{}}
}

func (s *sessionStoreStub) Create(_ context.Context, session SessionRecord) error {
	s.sessions[session.SID] = session
	return nil
}

func (s *sessionStoreStub) GetSession(_ context.Context, sid string) (SessionRecord, error) {
	session, ok := s.sessions[sid]
	if !ok {
		return SessionRecord{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) DeleteSession(_ context.Context, sid string) error {
	delete(s.sessions, sid)
	return nil
}

func (s *sessionStoreStub) DeleteAllForUser(_ context.Context, userID string) error {
	for sid, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, sid)
		}
	}
	return nil
}

func newTestService(verifier IdentityVerifier, profiles *profileStoreStub, sessions *sessionStoreStub, admins ...string) *Service {
	return NewService(verifier, NewJWTManager("test-secret", time.Hour), profiles, sessions, Config{
		AdminSubjects: admins,
	})
}

func TestSignInGoogleCreatesProfileAndSession(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{
		Subject: "sub-1",
		Email:   "reader@example.com",
		Name:    "Reader One",
	}}
	profiles := newProfileStoreStub()
	sessions := newSessionStoreStub()
	svc := newTestService(verifier, profiles, sessions)

	result, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if result.SessionToken == "" {
		t.Fatalf("expected a session token")
	}
	if result.Me.ID != "sub-1" || result.Me.Role != "READER" {
		t.Fatalf("unexpected me: %+v", result.Me)
	}
	if !result.Me.NewProfile {
		t.Fatalf("first sign-in must report a new profile")
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("expected one stored session, got %d", len(sessions.sessions))
	}
}

func TestSignInGoogleRepeatIsNotNewProfile(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{Subject: "sub-1", Email: "reader@example.com"}}
	profiles := newProfileStoreStub()
	sessions := newSessionStoreStub()
	svc := newTestService(verifier, profiles, sessions)

	if _, err := svc.SignInGoogle(context.Background(), "raw-id-token"); err != nil {
		t.Fatalf("first sign in: %v", err)
	}
	result, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}

	if result.Me.NewProfile {
		t.Fatalf("repeat sign-in must not report a new profile")
	}
	if profiles.upserts != 2 {
		t.Fatalf("expected two upserts, got %d", profiles.upserts)
	}
}

func TestSignInGoogleGrantsAdminRole(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{Subject: "admin-sub"}}
	svc := newTestService(verifier, newProfileStoreStub(), newSessionStoreStub(), "admin-sub")

	result, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Me.Role != "ADMIN" {
		t.Fatalf("expected ADMIN role, got %q", result.Me.Role)
	}
}

func TestSignInGoogleRejectsBadIDToken(t *testing.T) {
	verifier := &verifierStub{err: ErrInvalidIDToken}
	svc := newTestService(verifier, newProfileStoreStub(), newSessionStoreStub())

	if _, err := svc.SignInGoogle(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidIDToken) {
		t.Fatalf("expected ErrInvalidIDToken, got %v", err)
	}
}

func TestValidateSessionTokenRoundTrip(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{Subject: "sub-1"}}
	sessions := newSessionStoreStub()
	svc := newTestService(verifier, newProfileStoreStub(), sessions)

	result, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	claims, err := svc.ValidateSessionToken(context.Background(), result.SessionToken)
	if err != nil {
		t.Fatalf("validate session token: %v", err)
	}
	if claims.UserID != "sub-1" || claims.Role != "READER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLogoutRevokesSessionBeforeTokenExpiry(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{Subject: "sub-1"}}
	sessions := newSessionStoreStub()
	svc := newTestService(verifier, newProfileStoreStub(), sessions)

	result, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	claims, err := svc.ValidateSessionToken(context.Background(), result.SessionToken)
	if err != nil {
		t.Fatalf("validate before logout: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateSessionToken(context.Background(), result.SessionToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{Subject: "sub-1"}}
	sessions := newSessionStoreStub()
	svc := newTestService(verifier, newProfileStoreStub(), sessions)

	first, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("first sign in: %v", err)
	}
	second, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}

	if err := svc.LogoutAll(context.Background(), "sub-1"); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for _, token := range []string{first.SessionToken, second.SessionToken} {
		if _, err := svc.ValidateSessionToken(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized after logout_all, got %v", err)
		}
	}
}

func TestValidateSessionTokenRejectsExpiredSession(t *testing.T) {
	verifier := &verifierStub{claims: GoogleClaims{Subject: "sub-1"}}
	sessions := newSessionStoreStub()
	svc := newTestService(verifier, newProfileStoreStub(), sessions)

	result, err := svc.SignInGoogle(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	svc.now = func() time.Time { return result.ExpiresAt.Add(time.Minute) }

	if _, err := svc.ValidateSessionToken(context.Background(), result.SessionToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired session, got %v", err)
	}
}
