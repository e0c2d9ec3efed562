// Package config resolves process configuration from the environment. Load is
// called exactly once at startup; the resulting value is passed by reference
// into constructors and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envAuthSecret         = "UNIBOOKER_AUTH_SECRET"
	envAccessTokenTTL     = "UNIBOOKER_ACCESS_TOKEN_TTL"
	envRefreshTokenTTL    = "UNIBOOKER_REFRESH_TOKEN_TTL"
	envListenAddr         = "UNIBOOKER_LISTEN_ADDR"
	envPostgresDSN        = "UNIBOOKER_PG_DSN"
	envMainServiceURL     = "UNIBOOKER_MAIN_SERVICE_URL"
	envResourceServiceURL = "UNIBOOKER_RESOURCE_SERVICE_URL"
	envIdentityServiceURL = "UNIBOOKER_IDENTITY_SERVICE_URL"
	envRateBurst          = "UNIBOOKER_RATE_BURST"
	envRatePerSec         = "UNIBOOKER_RATE_PER_SEC"
)

const (
	defaultAccessTokenTTL  = 30 * time.Minute
	defaultRefreshTokenTTL = 14 * 24 * time.Hour
	defaultRateBurst       = 20
	defaultRatePerSec      = 10
)

// Config is the shared configuration surface for both binaries. The gateway
// reads the secret, TTLs and backend URLs; the identity service reads the
// secret, TTLs and DSN.
type Config struct {
	AuthSecret      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ListenAddr  string
	PostgresDSN string

	MainServiceURL     string
	ResourceServiceURL string
	IdentityServiceURL string

	RateBurst  int
	RatePerSec int
}

// Load reads and validates the environment. The signing secret is mandatory:
// both the issuer and every edge verifier die at startup without it rather
// than fail open later.
func Load() (Config, error) {
	cfg := Config{
		AuthSecret:         strings.TrimSpace(os.Getenv(envAuthSecret)),
		AccessTokenTTL:     defaultAccessTokenTTL,
		RefreshTokenTTL:    defaultRefreshTokenTTL,
		ListenAddr:         envOrDefault(envListenAddr, ":8080"),
		PostgresDSN:        os.Getenv(envPostgresDSN),
		MainServiceURL:     envOrDefault(envMainServiceURL, "http://main-service:8081"),
		ResourceServiceURL: envOrDefault(envResourceServiceURL, "http://resource-service:8082"),
		IdentityServiceURL: envOrDefault(envIdentityServiceURL, "http://identity:8083"),
		RateBurst:          defaultRateBurst,
		RatePerSec:         defaultRatePerSec,
	}

	if cfg.AuthSecret == "" {
		return Config{}, errors.New("config: " + envAuthSecret + " is required")
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv(envAccessTokenTTL, defaultAccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv(envRefreshTokenTTL, defaultRefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return Config{}, errors.New("config: access token TTL must be shorter than refresh token TTL")
	}
	if cfg.RateBurst, err = intEnv(envRateBurst, defaultRateBurst); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSec, err = intEnv(envRatePerSec, defaultRatePerSec); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer", key)
	}
	return v, nil
}
