package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache TTL, got %v", cfg.CacheTTL)
	}
	if !cfg.RunMigrations {
		t.Fatal("expected migrations enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9999")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Fatalf("expected overridden addr, got %q", cfg.Addr)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s cache TTL, got %v", cfg.CacheTTL)
	}
	if cfg.MetricsEnabled {
		t.Fatal("expected metrics disabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}

	cfg.DatabaseURL = "postgres://localhost/taskboard"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.CacheTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero cache TTL")
	}
}
