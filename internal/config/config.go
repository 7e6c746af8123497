package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/chidiebere/linkrotor/internal/resolver"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Admin    AdminConfig
	Redirect RedirectConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" required:"true"`
	Host            string        `envconfig:"SERVER_HOST" required:"true"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// StoreConfig selects and configures the key-value backend. The DB_*
// fields only matter for the postgres driver.
type StoreConfig struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"memory"`
	Host     string `envconfig:"DB_HOST"`
	Port     string `envconfig:"DB_PORT"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case StoreMemory:
		return nil
	case StorePostgres:
	default:
		return fmt.Errorf("invalid store driver: %s (must be one of: memory, postgres)", c.Driver)
	}

	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *StoreConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// AdminConfig holds credentials for the management API.
type AdminConfig struct {
	Username string `envconfig:"ADMIN_USERNAME" required:"true"`
	Password string `envconfig:"ADMIN_PASSWORD" required:"true"`
	Realm    string `envconfig:"ADMIN_REALM" default:"admin"`
}

// Validate validates the admin configuration.
func (c *AdminConfig) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	return nil
}

// RedirectConfig holds redirect resolution configuration.
type RedirectConfig struct {
	TargetBaseURL       string `envconfig:"REDIRECT_TARGET_BASE_URL" required:"true"`
	Policy              string `envconfig:"REDIRECT_POLICY" default:"random"`
	ResolvePrimaryIDs   bool   `envconfig:"REDIRECT_RESOLVE_IDS" default:"false"`
	RotateUnaliasedOnly bool   `envconfig:"REDIRECT_ROTATE_UNALIASED_ONLY" default:"false"`
	AccessLogEnabled    bool   `envconfig:"ACCESS_LOG_ENABLED" default:"true"`
}

// Validate validates the redirect configuration.
func (c *RedirectConfig) Validate() error {
	if c.TargetBaseURL == "" {
		return fmt.Errorf("target base URL cannot be empty")
	}

	switch c.Policy {
	case resolver.PolicyRandom, resolver.PolicyRoundRobin, resolver.PolicyLeastRecentlyUsed:
	default:
		return fmt.Errorf("invalid redirect policy: %s (must be one of: %s, %s, %s)",
			c.Policy, resolver.PolicyRandom, resolver.PolicyRoundRobin, resolver.PolicyLeastRecentlyUsed)
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Load loads configuration from environment variables only.
// (Do .env loading in cmd/server/main.go for dev, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Store); err != nil {
		return nil, fmt.Errorf("failed to load Store config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Store config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Admin); err != nil {
		return nil, fmt.Errorf("failed to load Admin config: %w", err)
	}
	if err := cfg.Admin.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Admin config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Redirect); err != nil {
		return nil, fmt.Errorf("failed to load Redirect config: %w", err)
	}
	if err := cfg.Redirect.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redirect config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	return cfg, nil
}
