package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDriver string // sqlite | mysql
	DBPath   string
	DBDSN    string

	JWTSecret  string
	SessionTTL time.Duration

	CORSAllowedOrigins []string

	NominatimURL string
	OSRMURL      string
	OverpassURL  string
	GeoUserAgent string
	GeoTimeout   time.Duration
	// GeoRateLimit is the number of geo lookups allowed per client per minute.
	GeoRateLimit int
}

const defaultJWTSecret = "supersecretkey-change-me"

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5000",
	"http://127.0.0.1:5000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

func LoadEnv() Env {
	env := Env{
		AppAddr:      envString("APP_ADDR", ":8080"),
		GinMode:      strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBDriver:     strings.ToLower(envString("DB_DRIVER", "sqlite")),
		DBPath:       envString("DB_PATH", "./data/smarttravel.db"),
		DBDSN:        strings.TrimSpace(os.Getenv("DB_DSN")),
		JWTSecret:    envString("JWT_SECRET", defaultJWTSecret),
		SessionTTL:   envDuration("SESSION_TTL", 24*time.Hour),
		NominatimURL: strings.TrimRight(envString("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		OSRMURL:      strings.TrimRight(envString("OSRM_URL", "https://router.project-osrm.org"), "/"),
		OverpassURL:  envString("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		GeoUserAgent: envString("GEO_USER_AGENT", "smart_travel_app/1.0"),
		GeoTimeout:   envDuration("GEO_TIMEOUT", 15*time.Second),
		GeoRateLimit: envInt("GEO_RATE_LIMIT", 60),
	}

	env.CORSAllowedOrigins = defaultOrigins
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		env.CORSAllowedOrigins = nil
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				env.CORSAllowedOrigins = append(env.CORSAllowedOrigins, o)
			}
		}
	}

	if env.DBDriver != "mysql" {
		env.DBDriver = "sqlite"
	}
	return env
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate rejects settings that must not reach a release build.
func (e Env) Validate() error {
	if e.GinMode == "release" && e.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set when GIN_MODE=release")
	}
	return nil
}
