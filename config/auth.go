package config

import (
	"sync"
	"time"
)

var (
	authOnce   sync.Once
	authConfig *AuthConfig
)

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func GetAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		loadEnv()

		authConfig = &AuthConfig{
			JWTSecret: getenv("JWT_SECRET", ""),
			TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),
		}
	})
	return authConfig
}
