package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from the environment (a local .env file is honored when
// present). DATABASE_URL empty means the seeded in-memory store; REDIS_ADDR
// empty means no report cache.
type Config struct {
	Port          int    `envconfig:"PORT" default:"8080"`
	Environment   string `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"*"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	GeminiAPIKey string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-lite"`
	Resolver     string        `envconfig:"RESOLVER" default:"auto"`
	LLMTimeout   time.Duration `envconfig:"LLM_TIMEOUT" default:"20s"`

	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"30s"`

	AuthSecret     string        `envconfig:"AUTH_SECRET"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"8h"`
	AdminUsername  string        `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 characters")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	switch c.Resolver {
	case "auto", "gemini", "rules":
	default:
		return fmt.Errorf("RESOLVER must be auto, gemini, or rules (got %q)", c.Resolver)
	}
	if c.ResolverKind() == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when RESOLVER=gemini")
	}
	return nil
}

// ResolverKind collapses "auto" onto a concrete resolver: gemini when an
// API key is configured, rules otherwise.
func (c Config) ResolverKind() string {
	if c.Resolver == "auto" {
		if c.GeminiAPIKey != "" {
			return "gemini"
		}
		return "rules"
	}
	return c.Resolver
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
