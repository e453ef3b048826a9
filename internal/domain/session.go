package domain

import "time"

// Session is a signed-in browser, stored server side. The cookie only
// carries its ID.
type Session struct {
	ID           string
	UserID       string
	Name         string
	Email        string
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Bearer is the token forwarded to the recipe backend; it verifies id tokens
// and falls back to access tokens.
func (s Session) Bearer() string {
	if s.IDToken != "" {
		return s.IDToken
	}
	return s.AccessToken
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
