package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ONEOS_CONFIG", "SERVER_PORT", "DATABASE_DRIVER", "DATABASE_URL", "DATABASE_READ_URLS",
		"REDIS_URL", "REALTIME_CHANNEL", "JWT_SECRET", "JWT_TTL", "RATE_LIMIT_PER_HOUR",
		"CACHE_TTL", "ENABLE_WEBSOCKET", "CORS_ORIGINS", "LOG_MODE", "SCORING_CLAMP_CONVERSION",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("ServerPort: want=%q got=%q", "8080", cfg.ServerPort)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Fatalf("DatabaseDriver: want=%q got=%q", "postgres", cfg.DatabaseDriver)
	}
	if !cfg.ClampConversion {
		t.Fatalf("ClampConversion: want=true got=false")
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("JWTTTL: want=%v got=%v", 24*time.Hour, cfg.JWTTTL)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DATABASE_READ_URLS", "r1, r2,")
	t.Setenv("RATE_LIMIT_PER_HOUR", "50")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("SCORING_CLAMP_CONVERSION", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("DatabaseDriver: want=%q got=%q", "sqlite", cfg.DatabaseDriver)
	}
	if len(cfg.ReadReplicaURLs) != 2 || cfg.ReadReplicaURLs[1] != "r2" {
		t.Fatalf("ReadReplicaURLs: unexpected %v", cfg.ReadReplicaURLs)
	}
	if cfg.RateLimitPerHour != 50 {
		t.Fatalf("RateLimitPerHour: want=50 got=%d", cfg.RateLimitPerHour)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("CacheTTL: want=%v got=%v", 90*time.Second, cfg.CacheTTL)
	}
	if cfg.ClampConversion {
		t.Fatalf("ClampConversion: want=false got=true")
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "oneos.yaml")
	body := "server_port: \"9090\"\ndatabase_driver: mysql\nrate_limit_per_hour: 10\ncors_origins:\n  - https://app.example.com\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("ONEOS_CONFIG", path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RATE_LIMIT_PER_HOUR", "20")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("ServerPort: want=%q got=%q", "9090", cfg.ServerPort)
	}
	if cfg.DatabaseDriver != "mysql" {
		t.Fatalf("DatabaseDriver: want=%q got=%q", "mysql", cfg.DatabaseDriver)
	}
	if cfg.RateLimitPerHour != 20 {
		t.Fatalf("RateLimitPerHour: env should win, got=%d", cfg.RateLimitPerHour)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.example.com" {
		t.Fatalf("CORSOrigins: unexpected %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "short")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig: expected error for short secret")
	}

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DRIVER", "oracle")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig: expected error for unsupported driver")
	}
}
