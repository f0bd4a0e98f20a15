package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	RedisAddr       string
	FrontendDir     string
	Environment     string
	RunMigrations   bool
	RefreshInterval time.Duration
	CacheTTL        time.Duration
	ReportKey       string
	MetricsEnabled  bool
}

func Load() Config {
	return Config{
		Addr:            getEnv("APP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		FrontendDir:     getEnv("FRONTEND_DIR", "frontend/dist"),
		Environment:     getEnv("APP_ENV", "development"),
		RunMigrations:   getEnvBool("RUN_MIGRATIONS", true),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		ReportKey:       getEnv("REPORT_CACHE_KEY", "performance:report"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if strings.TrimSpace(c.ReportKey) == "" {
		return fmt.Errorf("REPORT_CACHE_KEY is required")
	}
	return nil
}
