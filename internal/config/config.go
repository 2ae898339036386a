// Package config loads process-wide settings from the environment.
package config

import (
	"os"
	"strconv"
)

// DevJWTSecret is used when JWT_SECRET is unset. Fine for local development,
// never for a real deployment.
const DevJWTSecret = "dev-secret-change-me"

// Config holds the settings read once at startup.
type Config struct {
	Port      string
	JWTSecret string
	Debug     bool
	DBPath    string
}

// Load builds a Config from the environment, filling in defaults.
func Load() Config {
	return Config{
		Port:      envOrDefault("PORT", "8080"),
		JWTSecret: envOrDefault("JWT_SECRET", DevJWTSecret),
		Debug:     envBool("DEBUG", false),
		DBPath:    envOrDefault("DB_PATH", "wisp.db"),
	}
}

// UsingDevSecret reports whether the config fell back to the development
// JWT secret, so the caller can warn loudly.
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}
