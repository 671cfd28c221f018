package config

import "github.com/joho/godotenv"

type Config interface {
	GetAppName() string
	GetAuthBaseURL() string
	GetAuthAnonKey() string
	GetSessionDir() string
	GetSessionPassphrase() string
	GetEnv() string
}

func New() Config {
	// Missing .env is fine - plain environment variables still apply.
	_ = godotenv.Load()
	return EnvVars{}
}
