package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all SDK and daemon configuration.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"Portal Session"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// BFF endpoints
	BFFBaseURL     string        `env:"BFF_BASE_URL,required"`
	SessionPath    string        `env:"SESSION_PATH" envDefault:"/api/auth/session"`
	RefreshPath    string        `env:"REFRESH_PATH" envDefault:"/api/auth/refresh"`
	CSRFPath       string        `env:"CSRF_PATH" envDefault:"/api/auth/csrf"`
	LoginPath      string        `env:"LOGIN_PATH" envDefault:"/api/auth/login"`
	LogoutPath     string        `env:"LOGOUT_PATH" envDefault:"/api/auth/logout"`
	OAuthClientID  string        `env:"OAUTH_CLIENT_ID" envDefault:"admin-portal"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Refresh scheduling
	RefreshThreshold       time.Duration `env:"REFRESH_THRESHOLD" envDefault:"5m"`
	MaxCheckInterval       time.Duration `env:"MAX_CHECK_INTERVAL" envDefault:"5m"`
	IdleTimeout            time.Duration `env:"IDLE_TIMEOUT" envDefault:"15m"`
	VisibilityDebounce     time.Duration `env:"VISIBILITY_DEBOUNCE" envDefault:"30s"`
	MaxConsecutiveFailures int           `env:"MAX_CONSECUTIVE_FAILURES" envDefault:"5"`

	// Tenant resolution
	BaseDomain string `env:"BASE_DOMAIN" envDefault:"myshopadmin.com"`
	Hostname   string `env:"PORTAL_HOSTNAME" envDefault:""`

	// Durable preference storage
	RedisAddr     string `env:"REDIS_ADDR" envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`

	// Dev identity provider (never enabled implicitly)
	DevMode     bool   `env:"DEV_MODE" envDefault:"false"`
	DevUserFile string `env:"DEV_USER_FILE" envDefault:""`

	// Daemon
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":9465"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks settings the env tags cannot express.
func (c *Config) Validate() error {
	if c.RefreshThreshold <= 0 {
		return fmt.Errorf("REFRESH_THRESHOLD must be positive")
	}
	if c.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("MAX_CONSECUTIVE_FAILURES must be at least 1")
	}
	if c.MaxCheckInterval <= 0 {
		return fmt.Errorf("MAX_CHECK_INTERVAL must be positive")
	}
	return nil
}
