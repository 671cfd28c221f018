package backend

import (
	"net/url"
	"strings"
)

// Config identifies the backend project this build talks to. It is loaded
// once at construction and never mutated.
type Config struct {
	BaseURL string // Project base URL, e.g. "https://abcd.example.co"
	AnonKey string // Public ("anon") API key sent with every request
}

// Configured reports whether a concrete backend is set up. An unconfigured
// client disables all auth operations rather than failing them.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.AnonKey) != ""
}

// TenantHost returns the lowercased host of the base URL. It is the value
// an access token's issuer claim is matched against; an empty host means
// the expected tenant is unknown and compatibility checks are disabled.
func (c Config) TenantHost() string {
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
