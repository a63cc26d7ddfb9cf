package config

import (
	"os"
	"strings"
)

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Revocation RevocationConfig
	Postgres   PostgresConfig
}

type ServerConfig struct {
	Port             string
	AllowedOrigins   []string
	AllowCredentials bool
	LogLevel         string
}

// AuthConfig holds raw values; parsing and validation happen in service.NewAuthService.
type AuthConfig struct {
	JWTSecret      string
	JWTAccessTTL   string
	JWTRefreshTTL  string
	JWTLeeway      string
	AllowSignup    string
	CookieSecure   string
	CookieSameSite string
	CookieDomain   string
	CookiePath     string
	AdminUsername  string
	AdminPassword  string
}

type RevocationConfig struct {
	StoreURL   string
	MaxEntries string
	Timeout    string
	PurgeSpec  string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:             getenv("PORT", "8080"),
			AllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
			AllowCredentials: strings.EqualFold(getenv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
			LogLevel:         getenv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			JWTAccessTTL:   getenv("JWT_ACCESS_TTL", "30m"),
			JWTRefreshTTL:  getenv("JWT_REFRESH_TTL", "168h"),
			JWTLeeway:      os.Getenv("JWT_LEEWAY"),
			AllowSignup:    os.Getenv("ALLOW_SIGNUP"),
			CookieSecure:   os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite: os.Getenv("AUTH_COOKIE_SAMESITE"),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookiePath:     os.Getenv("AUTH_COOKIE_PATH"),
			AdminUsername:  os.Getenv("ADMIN_USERNAME"),
			AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		},
		Revocation: RevocationConfig{
			// REDIS_URL is kept for compatibility with existing deployments.
			StoreURL:   getenv("REVOCATION_STORE_URL", os.Getenv("REDIS_URL")),
			MaxEntries: getenv("REVOCATION_MAX_ENTRIES", "10000"),
			Timeout:    getenv("REVOCATION_TIMEOUT", "500ms"),
			PurgeSpec:  getenv("REVOCATION_PURGE_SPEC", "@every 10m"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
