package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	for _, k := range []string{"APP_ADDR", "DB_DRIVER", "GEO_TIMEOUT", "GEO_RATE_LIMIT", "CORS_ALLOWED_ORIGINS", "OSRM_URL"} {
		t.Setenv(k, "")
	}

	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("AppAddr = %q", env.AppAddr)
	}
	if env.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q", env.DBDriver)
	}
	if env.GeoTimeout != 15*time.Second {
		t.Fatalf("GeoTimeout = %v", env.GeoTimeout)
	}
	if env.GeoRateLimit != 60 {
		t.Fatalf("GeoRateLimit = %d", env.GeoRateLimit)
	}
	if len(env.CORSAllowedOrigins) == 0 {
		t.Fatalf("expected default CORS origins")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("GEO_TIMEOUT", "3s")
	t.Setenv("GEO_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("OSRM_URL", "http://osrm.local/")

	env := LoadEnv()
	if env.DBDriver != "mysql" {
		t.Fatalf("DBDriver = %q", env.DBDriver)
	}
	if env.GeoTimeout != 3*time.Second {
		t.Fatalf("GeoTimeout = %v", env.GeoTimeout)
	}
	if env.GeoRateLimit != 60 {
		t.Fatalf("invalid rate limit should fall back, got %d", env.GeoRateLimit)
	}
	if len(env.CORSAllowedOrigins) != 2 || env.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORS origins = %v", env.CORSAllowedOrigins)
	}
	if env.OSRMURL != "http://osrm.local" {
		t.Fatalf("OSRMURL = %q", env.OSRMURL)
	}
}

func TestLoadEnvUnknownDriverFallsBackToSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	if got := LoadEnv().DBDriver; got != "sqlite" {
		t.Fatalf("DBDriver = %q", got)
	}
}

func TestValidateRejectsDefaultSecretInRelease(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "release")
	if err := LoadEnv().Validate(); err == nil {
		t.Fatalf("expected error for default secret in release mode")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if err := LoadEnv().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "debug")
	if err := LoadEnv().Validate(); err != nil {
		t.Fatalf("default secret should be allowed outside release: %v", err)
	}
}
