package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"yumyumCoachAPI/services"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port          string `env:"PORT" envDefault:"3333"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"yumyum.db"`
	SeedFile      string `env:"SEED_FILE"`

	ClerkSecretKey string `env:"CLERK_SECRET_KEY,required,notEmpty"`

	Timezone     string `env:"CHALLENGE_TIMEZONE" envDefault:"Asia/Seoul"`
	RejoinPolicy string `env:"REJOIN_POLICY" envDefault:"any_row"`

	ProgressEvalInterval time.Duration `env:"PROGRESS_EVAL_INTERVAL" envDefault:"1h"`
	ProgressEvalWorkers  int           `env:"PROGRESS_EVAL_WORKERS" envDefault:"4"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"30"`

	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`

	FCMCredentialsFile    string `env:"FCM_CREDENTIALS_FILE" envDefault:"./serviceAccountKey.json"`
	FCMServiceAccountJSON string `env:"FCM_SERVICE_ACCOUNT_JSON"`

	location *time.Location
}

// Load reads .env when present and parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return Parse()
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch services.RejoinPolicy(c.RejoinPolicy) {
	case services.RejoinBlockAnyRow, services.RejoinBlockActiveOnly:
	default:
		return fmt.Errorf("unknown REJOIN_POLICY %q", c.RejoinPolicy)
	}

	if c.ProgressEvalInterval <= 0 {
		return errors.New("PROGRESS_EVAL_INTERVAL must be positive")
	}
	if c.ProgressEvalWorkers < 1 {
		return errors.New("PROGRESS_EVAL_WORKERS must be at least 1")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid CHALLENGE_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the time zone challenge dates are interpreted in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) Rejoin() services.RejoinPolicy {
	return services.RejoinPolicy(c.RejoinPolicy)
}
