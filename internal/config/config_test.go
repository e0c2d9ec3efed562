package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv(envAuthSecret, "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without signing secret")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(envAuthSecret, "s3cret")
	t.Setenv(envAccessTokenTTL, "")
	t.Setenv(envRefreshTokenTTL, "")
	t.Setenv(envListenAddr, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 14*24*time.Hour {
		t.Fatalf("RefreshTokenTTL = %v", cfg.RefreshTokenTTL)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RateBurst != 20 || cfg.RatePerSec != 10 {
		t.Fatalf("rate limits = (%d, %d)", cfg.RateBurst, cfg.RatePerSec)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(envAuthSecret, "s3cret")
	t.Setenv(envAccessTokenTTL, "15m")
	t.Setenv(envRefreshTokenTTL, "720h")
	t.Setenv(envListenAddr, ":9090")
	t.Setenv(envRateBurst, "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 720*time.Hour {
		t.Fatalf("RefreshTokenTTL = %v", cfg.RefreshTokenTTL)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RateBurst != 50 {
		t.Fatalf("RateBurst = %d", cfg.RateBurst)
	}
}

func TestLoadRejectsInvertedTTLs(t *testing.T) {
	t.Setenv(envAuthSecret, "s3cret")
	t.Setenv(envAccessTokenTTL, "48h")
	t.Setenv(envRefreshTokenTTL, "1h")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when access TTL exceeds refresh TTL")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv(envAuthSecret, "s3cret")
	t.Setenv(envAccessTokenTTL, "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadRejectsBadRate(t *testing.T) {
	t.Setenv(envAuthSecret, "s3cret")
	t.Setenv(envAccessTokenTTL, "")
	t.Setenv(envRefreshTokenTTL, "")
	t.Setenv(envRateBurst, "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative rate burst")
	}
}
