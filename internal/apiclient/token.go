package apiclient

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider supplies the bearer token for outgoing calls. An empty token
// means the request goes out unauthenticated.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// TokenSubject reads the sub claim of a JWT without verifying it. The
// backend verifies the token; the client only needs to know whose events to
// follow. Empty when token is not a JWT.
func TokenSubject(token string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
