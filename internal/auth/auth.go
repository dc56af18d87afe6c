package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

type Identity struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticator turns a bearer token into an identity.
type Authenticator interface {
	Authenticate(token string) (Identity, error)
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed session tokens.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Authenticate(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	ident := Identity{UserID: claims.Subject, Email: claims.Email, AccessToken: raw}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident, nil
}

// Sign issues a token for userID. It is used by tooling and tests.
func (v *JWTVerifier) Sign(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// OpaqueTokens accepts any non-empty token as a provider access token. The
// provider checks it on first use.
type OpaqueTokens struct{}

func (OpaqueTokens) Authenticate(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	return Identity{UserID: "me", AccessToken: raw}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}

// Session holds the signed-in identity of the running process.
type Session struct {
	mu    sync.RWMutex
	ident *Identity
	auth  Authenticator
	clock func() time.Time
}

func NewSession(a Authenticator, clock func() time.Time) *Session {
	if a == nil {
		a = OpaqueTokens{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Session{auth: a, clock: clock}
}

func (s *Session) SignIn(token string) (Identity, error) {
	ident, err := s.auth.Authenticate(token)
	if err != nil {
		return Identity{}, err
	}
	s.mu.Lock()
	s.ident = &ident
	s.mu.Unlock()
	return ident, nil
}

func (s *Session) SignOut() {
	s.mu.Lock()
	s.ident = nil
	s.mu.Unlock()
}

// Identity returns the current identity or ErrUnauthorized when nobody is
// signed in or the token has expired.
func (s *Session) Identity(context.Context) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ident == nil {
		return Identity{}, fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}
	if !s.ident.ExpiresAt.IsZero() && !s.ident.ExpiresAt.After(s.clock()) {
		return Identity{}, fmt.Errorf("%w: session expired", ErrUnauthorized)
	}
	return *s.ident, nil
}

func (s *Session) Authenticated() bool {
	_, err := s.Identity(context.Background())
	return err == nil
}
