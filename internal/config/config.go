package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// InsecureJWTSecret is used when JWT_SECRET is not set. Startup warns about it.
const InsecureJWTSecret = "playdegen-insecure-dev-secret"

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config contains server configuration parameters.
type Config struct {
	AppEnv   string   `env:"APP_ENV" envDefault:"development"`
	LogLevel string   `env:"LOG_LEVEL" envDefault:"info"`
	HTTP     HTTP     `envPrefix:"HTTP_"`
	JWT      JWT      `envPrefix:"JWT_"`
	Store    Store    `envPrefix:"STORE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Database Database `envPrefix:"DATABASE_"`
	Game     Game     `envPrefix:"GAME_"`
	Realtime Realtime `envPrefix:"REALTIME_"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Addr            string        `env:"ADDR" envDefault:":9000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// JWT contains session token parameters.
type JWT struct {
	Secret string        `env:"SECRET" envDefault:"playdegen-insecure-dev-secret"`
	TTL    time.Duration `env:"TTL" envDefault:"24h"`
}

// Store selects the user and settings backend.
type Store struct {
	Driver string `env:"DRIVER" envDefault:"memory"`
}

// Redis contains redis connection parameters. Redis also carries events when set.
type Redis struct {
	URL string `env:"URL"`
}

// Database contains database connection parameters.
type Database struct {
	DSN string `env:"DSN"`
}

// Game contains play authorization parameters.
type Game struct {
	MinBalance decimal.Decimal `env:"MIN_BALANCE" envDefault:"0.5"`
	Disabled   bool            `env:"DISABLED" envDefault:"false"`
}

// Realtime contains websocket parameters. Empty AllowedOrigins keeps the
// same-origin check.
type Realtime struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// NewConfig loads configuration from an optional .env file and the environment.
func NewConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Game.MinBalance.IsNegative() {
		return errors.New("GAME_MIN_BALANCE must not be negative")
	}

	return nil
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsesInsecureSecret reports whether the built-in development secret is in use
func (c *Config) UsesInsecureSecret() bool {
	return c.JWT.Secret == InsecureJWTSecret
}
