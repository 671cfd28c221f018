package session

import (
	"strings"
	"time"
)

// expiryMargin is subtracted from the token expiry so a session is treated
// as expired slightly before the backend would start rejecting it.
const expiryMargin = 30 * time.Second

// Session represents one authenticated login: the access/refresh token pair
// returned by the auth backend plus the user metadata that came with it.
// A Session is a value object - it is never mutated after creation; a
// refresh produces a new Session.
type Session struct {
	AccessToken  string    // JWT used to access protected resources
	RefreshToken string    // Opaque token exchanged for a new access token ("" = none)
	TokenType    string    // Usually "bearer" ("" = unspecified)
	ExpiresAt    time.Time // Absolute expiry of the access token (zero = never expires)
	UserEmail    string    // Email of the authenticated user ("" = unknown)
	UserID       string    // Backend user ID ("" = unknown)
}

// IsExpired reports whether the session should no longer be used at the
// given time. Sessions without an expiry are treated as long-lived tokens
// that never expire. The expiry margin makes a session report expired
// shortly before the backend would reject its token.
func (s Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt.Add(-expiryMargin))
}

// HasRefreshToken reports whether the session carries a usable refresh token.
func (s Session) HasRefreshToken() bool {
	return strings.TrimSpace(s.RefreshToken) != ""
}
