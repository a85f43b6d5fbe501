package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mukamba/internal/domain/lead"
)

const (
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultJWTAccessTTL = "15m"
	defaultDatabaseURL  = "file:mukamba.db?_pragma=foreign_keys(1)"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NotifyStream  string

	LogLevel  string
	LogFormat string
	LogOutput string

	CORSAllowedOrigins []string

	StageLimits    lead.StageLimits
	GestureTimeout time.Duration
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_STREAM", "pipeline:bulk")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("PIPELINE_STAGE_LIMITS", "")
	v.SetDefault("PIPELINE_GESTURE_TIMEOUT", "0s")
	return v
}

// FromViper builds and validates a Config from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		Port:          strings.TrimSpace(v.GetString("PORT")),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(v.GetString("JWT_SECRET")),
		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		NotifyStream:  strings.TrimSpace(v.GetString("NOTIFY_STREAM")),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:     strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		LogOutput:     strings.TrimSpace(v.GetString("LOG_OUTPUT")),
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "dev"
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	var err error
	cfg.JWTAccessTTL, err = parseDuration(v, "JWT_ACCESS_TTL")
	if err != nil {
		return nil, err
	}
	cfg.GestureTimeout, err = parseDuration(v, "PIPELINE_GESTURE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	cfg.StageLimits, err = lead.ParseStageLimits(v.GetString("PIPELINE_STAGE_LIMITS"))
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_STAGE_LIMITS: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the app runs in a prod-like environment
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.GestureTimeout < 0 {
		return fmt.Errorf("PIPELINE_GESTURE_TIMEOUT must be >= 0")
	}
	if cfg.RedisAddr != "" && cfg.NotifyStream == "" {
		return fmt.Errorf("NOTIFY_STREAM must be set when REDIS_ADDR is set")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
