package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr  string `env:"APP_ADDR" envDefault:":3000"`
	GinMode  string `env:"GIN_MODE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Recipe backend the gateway proxies /api/v1/* to.
	InternalAPIBase string `env:"INTERNAL_API_BASE" envDefault:"http://go-wongnok:8080"`

	Keycloak Keycloak

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`

	MySQLDSN string `env:"MYSQL_DSN"`
	Redis    Redis

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	StaticDir          string   `env:"STATIC_DIR"`

	// TrueType font with Thai glyphs for the favorites PDF.
	PDFFontPath string `env:"PDF_FONT_PATH"`
}

type Keycloak struct {
	URL                   string `env:"KEYCLOAK_URL" envDefault:"http://localhost:8081"`
	Realm                 string `env:"KEYCLOAK_REALM"`
	ClientID              string `env:"KEYCLOAK_CLIENT_ID"`
	ClientSecret          string `env:"KEYCLOAK_CLIENT_SECRET"`
	RedirectURL           string `env:"KEYCLOAK_REDIRECT_URL" envDefault:"http://localhost:3000/api/auth/callback/keycloak"`
	PostLogoutRedirectURI string `env:"KEYCLOAK_POST_LOGOUT_REDIRECT_URI"`
}

// Issuer is the realm URL, empty when the realm is not configured.
func (k Keycloak) Issuer() string {
	if strings.TrimSpace(k.Realm) == "" {
		return ""
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadEnv reads the process environment, after an optional .env file.
func LoadEnv() (Env, error) {
	_ = godotenv.Load(".env")

	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppAddr = strings.TrimSpace(cfg.AppAddr)
	if cfg.AppAddr == "" {
		cfg.AppAddr = ":3000"
	}
	cfg.InternalAPIBase = strings.TrimRight(strings.TrimSpace(cfg.InternalAPIBase), "/")
	cfg.GinMode = strings.TrimSpace(cfg.GinMode)
	return cfg, nil
}

// Validate reports settings the gateway cannot serve without.
func (e Env) Validate() error {
	if strings.TrimSpace(e.SessionSecret) == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if strings.TrimSpace(e.MySQLDSN) == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	return nil
}
