// Package auth binds wallet identities to HTTP requests: JWT session cookies
// issued after challenge/response login, a bounded table of pending login
// challenges, and the role/ownership capability checks used by the engine.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keychainmdip/dex-market/internal/adapter"
	"github.com/keychainmdip/dex-market/internal/domain"
)

// Cookie names used by the HTTP surface
const (
	SessionCookie   = "dex_session"
	ChallengeCookie = "dex_challenge"
)

// audiences separate session tokens from challenge tokens so one can never
// be replayed as the other
const (
	audSession   = "session"
	audChallenge = "challenge"
)

const issuer = "dex-market"

// Sessions issues and parses the signed tokens carried in cookies
type Sessions struct {
	secret []byte
	ttl    time.Duration
	clock  adapter.Clock
}

// NewSessions creates a session token manager
func NewSessions(secret string, ttl time.Duration, clock adapter.Clock) *Sessions {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, clock: clock}
}

// TTL returns the configured session lifetime
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

func (s *Sessions) issue(subject, audience string) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) parse(token, audience string) (domain.DID, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(func() time.Time { return s.clock.Now() }),
	)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return domain.DID(claims.Subject), nil
}

// IssueSession creates a session token for an authenticated user DID
func (s *Sessions) IssueSession(did domain.DID) (string, error) {
	return s.issue(did.String(), audSession)
}

// ParseSession validates a session token and returns the user DID
func (s *Sessions) ParseSession(token string) (domain.DID, error) {
	return s.parse(token, audSession)
}

// IssueChallenge creates a token binding a browser to a pending challenge
func (s *Sessions) IssueChallenge(challenge domain.DID) (string, error) {
	return s.issue(challenge.String(), audChallenge)
}

// ParseChallenge validates a challenge token and returns the challenge DID
func (s *Sessions) ParseChallenge(token string) (domain.DID, error) {
	return s.parse(token, audChallenge)
}
