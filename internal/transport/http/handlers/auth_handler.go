package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/nictjader/siren-backend/internal/pkg/validate"
	authsvc "github.com/nictjader/siren-backend/internal/services/auth"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
	httperrors "github.com/nictjader/siren-backend/internal/transport/http/errors"
)

// SessionCookieName carries the signed session token. HTTP-only so page
// scripts never see the credential.
const SessionCookieName = "siren_session"

type SignInLimiter interface {
	AllowSignIn(ctx context.Context, addr string) (int64, bool, error)
}

type AuthHandler struct {
	service      *authsvc.Service
	limiter      SignInLimiter
	secureCookie bool
}

func NewAuthHandler(service *authsvc.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) AttachLimiter(limiter SignInLimiter) {
	h.limiter = limiter
}

func (h *AuthHandler) SignInGoogle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowSignIn(r.Context(), clientAddr(r))
		if err == nil && !allowed {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_MANY_ATTEMPTS",
				Message:       "too many sign-in attempts",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	var req dto.GoogleSignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.IDToken) {
		writeBadRequest(w, "INVALID_REQUEST", "id_token is required")
		return
	}

	res, err := h.service.SignInGoogle(r.Context(), req.IDToken)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(res.SessionToken, res.ExpiresAt))

	httperrors.Write(w, http.StatusOK, dto.SignInResponse{
		ExpiresAt: res.ExpiresAt,
		Me: dto.AuthMeResponse{
			ID:          res.Me.ID,
			Email:       res.Me.Email,
			DisplayName: res.Me.DisplayName,
			Role:        res.Me.Role,
			NewProfile:  res.Me.NewProfile,
		},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		handleAuthError(w, err)
		return
	}

	http.SetCookie(w, h.expiredCookie())
	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		handleAuthError(w, err)
		return
	}

	http.SetCookie(w, h.expiredCookie())
	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func (h *AuthHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, authsvc.ErrInvalidIDToken):
		writeUnauthorized(w, "INVALID_ID_TOKEN", "id token verification failed")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
