package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port              int           `env:"PORT" envDefault:"8080"`
	DatabaseURL       string        `env:"DATABASE_URL" envDefault:"sqlite://./data/cancelbuddy.db"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error
	GinMode           string        `env:"GIN_MODE" envDefault:"release"`
	CORSAllowedOrigin string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:5173"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"sessionKey"`
	SessionHeader     string        `env:"SESSION_HEADER" envDefault:"X-Session-Key"`
	SessionCookieTTL  time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"8760h"`
	DefaultCurrency   string        `env:"DEFAULT_CURRENCY" envDefault:"EUR"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// LoadDotEnv reads a .env file into the process environment without overriding
// variables that are already set. A missing file is reported but harmless.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load reads environment variables into Config and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE %q must be debug, release or test", c.GinMode))
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}
	if strings.TrimSpace(c.SessionHeader) == "" {
		errs = append(errs, errors.New("SESSION_HEADER is required"))
	}
	if c.SessionCookieTTL <= 0 {
		errs = append(errs, errors.New("SESSION_COOKIE_MAX_AGE must be positive"))
	}
	if len(c.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Errorf("DEFAULT_CURRENCY %q must be a 3-letter code", c.DefaultCurrency))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
