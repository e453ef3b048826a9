package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName    = "wongnok_session"
	DefaultMaxAge = 24 * time.Hour
)

// SessionClaims is the body of the session cookie. The tokens themselves
// stay server side, keyed by SessionID.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionSigner issues and checks HS256 session cookies.
type SessionSigner struct {
	Secret []byte
	MaxAge time.Duration
	Now    func() time.Time
}

func NewSessionSigner(secret string, maxAge time.Duration) SessionSigner {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return SessionSigner{Secret: []byte(secret), MaxAge: maxAge, Now: time.Now}
}

func (s SessionSigner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sign returns the cookie value and its expiry.
func (s SessionSigner) Sign(sessionID, subject string) (string, time.Time, error) {
	if len(s.Secret) == 0 {
		return "", time.Time{}, fmt.Errorf("session secret is empty")
	}
	now := s.now()
	exp := now.Add(s.MaxAge)
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return tok, exp, nil
}

// Parse validates signature and expiry.
func (s SessionSigner) Parse(raw string) (SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("parse session: %w", err)
	}
	if claims.SessionID == "" {
		return SessionClaims{}, fmt.Errorf("parse session: missing sid")
	}
	return claims, nil
}
