// Package config loads service configuration from the environment and an
// optional config.yaml, with viper defaults for local development.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	Env  string `mapstructure:"ENV"`
	Port string `mapstructure:"PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// JWTSecret enables bearer-JWT auth; StaticTokens is a comma-separated
	// fallback list for service-to-service calls.
	JWTSecret    string `mapstructure:"JWT_HMAC_SECRET"`
	StaticTokens string `mapstructure:"STATIC_TOKENS"`

	// Google OAuth2 credentials for the read-only calendar overlay.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	// DragTTLSeconds bounds how long an abandoned drag session lives.
	DragTTLSeconds int `mapstructure:"DRAG_TTL_SECONDS"`
}

// Load reads configuration: env vars win, then config.yaml, then defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DRAG_TTL_SECONDS", 120)

	// Keys without a useful default still need to be registered so
	// AutomaticEnv feeds them into Unmarshal.
	for _, key := range []string{
		"DATABASE_URL", "REDIS_PASSWORD", "JWT_HMAC_SECRET", "STATIC_TOKENS",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
	} {
		v.SetDefault(key, "")
	}

	// Missing config file is fine; env vars and defaults cover it.
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return &cfg, nil
}
