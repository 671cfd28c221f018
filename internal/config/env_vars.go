package config

import (
	"os"
	"path/filepath"
)

const (
	appNameVar           = "APP_NAME"
	authBaseURLVar       = "AUTH_BASE_URL"
	authAnonKeyVar       = "AUTH_ANON_KEY"
	sessionDirVar        = "SESSION_DIR"
	sessionPassphraseVar = "SESSION_PASSPHRASE"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Auth Client")
}

// GetAuthBaseURL returns the backend project base URL. Empty means no
// backend is configured and auth is disabled.
func (EnvVars) GetAuthBaseURL() string {
	return GetEnv(authBaseURLVar, "")
}

// GetAuthAnonKey returns the backend's public API key.
func (EnvVars) GetAuthAnonKey() string {
	return GetEnv(authAnonKeyVar, "")
}

// GetSessionDir returns the directory the session record is persisted in.
func (EnvVars) GetSessionDir() string {
	dir := GetEnv(sessionDirVar, "")
	if dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".go-auth-client")
}

// GetSessionPassphrase returns the optional passphrase used to seal the
// persisted session at rest. Empty disables encryption.
func (EnvVars) GetSessionPassphrase() string {
	return GetEnv(sessionPassphraseVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
