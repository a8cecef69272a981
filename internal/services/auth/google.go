package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	googleCertsURL      = "https://www.googleapis.com/oauth2/v3/certs"
	googleKeyRefreshTTL = time.Hour
)

// KeySource resolves an RSA public key by key id.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// GoogleVerifier validates Google-issued ID tokens: RS256 signature against
// the provider's published keys, issuer, audience and expiry.
type GoogleVerifier struct {
	clientID string
	keys     KeySource
}

type googleIDClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

func NewGoogleVerifier(clientID string, keys KeySource) (*GoogleVerifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, ErrNotConfigured
	}
	if keys == nil {
		return nil, fmt.Errorf("key source is nil")
	}

	return &GoogleVerifier{
		clientID: strings.TrimSpace(clientID),
		keys:     keys,
	}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return GoogleClaims{}, ErrInvalidIDToken
	}

	claims := &googleIDClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("id token has no kid header")
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil || token == nil || !token.Valid {
		return GoogleClaims{}, ErrInvalidIDToken
	}

	issuer := strings.TrimSpace(claims.Issuer)
	if issuer != "accounts.google.com" && issuer != "https://accounts.google.com" {
		return GoogleClaims{}, ErrInvalidIDToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return GoogleClaims{}, ErrInvalidIDToken
	}

	return GoogleClaims{
		Subject: subject,
		Email:   strings.TrimSpace(claims.Email),
		Name:    strings.TrimSpace(claims.Name),
		Picture: strings.TrimSpace(claims.Picture),
	}, nil
}

// GoogleKeySource fetches and caches Google's JWKS document.
type GoogleKeySource struct {
	client   *http.Client
	certsURL string
	now      func() time.Time

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func NewGoogleKeySource(client *http.Client) *GoogleKeySource {
	if client == nil {
		client = http.DefaultClient
	}

	return &GoogleKeySource{
		client:   client,
		certsURL: googleCertsURL,
		now:      time.Now,
		keys:     map[string]*rsa.PublicKey{},
	}
}

func (s *GoogleKeySource) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.keys[kid]; ok && s.now().Sub(s.fetchedAt) < googleKeyRefreshTTL {
		return key, nil
	}

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

func (s *GoogleKeySource) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.certsURL, nil)
	if err != nil {
		return fmt.Errorf("build certs request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch google certs: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch google certs: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode google certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		key, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = key
	}
	if len(keys) == 0 {
		return fmt.Errorf("google certs document contains no usable keys")
	}

	s.keys = keys
	s.fetchedAt = s.now()
	return nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	exponent := 0
	for _, b := range eBytes {
		exponent = exponent<<8 | int(b)
	}
	if exponent <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: exponent,
	}, nil
}
