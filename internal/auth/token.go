package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the fixed lifetime of every token and cookie.
const TokenTTL = 7 * 24 * time.Hour

// Claims is the verified content of a scoped token.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Scope is one independent signed-token domain. Tokens issued by a scope
// carry its audience and are rejected by every other scope, even when the
// signing secret is shared.
type Scope struct {
	cookieName string
	audience   string
	ttl        time.Duration
	secure     bool
	secret     []byte
	now        func() time.Time
}

func NewScope(cookieName, audience string, secret []byte, secure bool) *Scope {
	return &Scope{
		cookieName: cookieName,
		audience:   audience,
		ttl:        TokenTTL,
		secure:     secure,
		secret:     secret,
		now:        time.Now,
	}
}

// WithClock returns a copy of s that reads time from now.
func (s *Scope) WithClock(now func() time.Time) *Scope {
	clone := *s
	clone.now = now
	return &clone
}

func (s *Scope) CookieName() string { return s.cookieName }

func (s *Scope) Audience() string { return s.audience }

// IssueToken signs a token for subject.
func (s *Scope) IssueToken(subject string) (string, Claims, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", Claims{}, fmt.Errorf("issue %s token: empty subject", s.audience)
	}
	issued := s.now()
	claims := Claims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  issued,
		ExpiresAt: issued.Add(s.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		Audience:  jwt.ClaimStrings{s.audience},
		ID:        claims.ID,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign %s token: %w", s.audience, err)
	}
	return signed, claims, nil
}

// ParseToken verifies signature, algorithm, audience and expiry.
func (s *Scope) ParseToken(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrInvalidToken
	}
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &registered, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if registered.Subject == "" || registered.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		Subject:   registered.Subject,
		ID:        registered.ID,
		ExpiresAt: registered.ExpiresAt.Time,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	return claims, nil
}
