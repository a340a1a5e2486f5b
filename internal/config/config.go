// Package config loads the server configuration.
//
// Sources, highest priority first:
//  1. environment variables (PORT, DB_PATH, ...)
//  2. a .env file in the working directory, loaded into the environment
//  3. an optional config.yaml in the working directory
//  4. the defaults below
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/event-board/internal/model"
)

// Config holds everything main needs to build the server.
type Config struct {
	Port        int
	DBPath      string
	TemplateDir string // empty: templates embedded in the binary
	StaticDir   string // empty: assets embedded in the binary

	JWTSecret string
	// JWTSecretGenerated is true when JWT_SECRET was unset and a random
	// secret was made up; sessions then do not survive a restart.
	JWTSecretGenerated bool
	SessionTTL         time.Duration
	SecureCookies      bool
	BcryptCost         int
	DefaultRoles       []string

	LogLevel slog.Level

	LoginRateLimit float64 // requests per second per client
	LoginRateBurst int

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads the configuration from the environment, .env and config.yaml.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config.yaml: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "data/events.db")
	v.SetDefault("TEMPLATE_DIR", "")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("DEFAULT_ROLES", model.RoleUser)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOGIN_RATE_LIMIT", 1.0)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetInt("PORT"),
		DBPath:             v.GetString("DB_PATH"),
		TemplateDir:        v.GetString("TEMPLATE_DIR"),
		StaticDir:          v.GetString("STATIC_DIR"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		SecureCookies:      v.GetBool("COOKIE_SECURE"),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		DefaultRoles:       roles(v.Get("DEFAULT_ROLES")),
		LoginRateLimit:     v.GetFloat64("LOGIN_RATE_LIMIT"),
		LoginRateBurst:     v.GetInt("LOGIN_RATE_BURST"),
		GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  v.GetString("GITHUB_CALLBACK_URL"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		cfg.JWTSecretGenerated = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if len(c.DefaultRoles) == 0 {
		errs = append(errs, errors.New("DEFAULT_ROLES must name at least one role"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst < 1 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must be positive and LOGIN_RATE_BURST at least 1"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// roles accepts "ROLE_USER,ROLE_EDITOR" from the environment as well as a
// YAML list from config.yaml.
func roles(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' })
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
