package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds application configuration
type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`

	// SQL backend
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite" validate:"oneof=sqlite sqlite3 postgres postgresql mysql"`
	DatabasePath string `env:"DB_PATH" envDefault:"./crackledate.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// Key-value backend selection
	StoreBackend  string `env:"STORE_BACKEND" envDefault:"sql" validate:"oneof=sql redis badger memory"`
	StorePrefix   string `env:"STORE_PREFIX" envDefault:"crackle-date" validate:"required"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0,lte=15"`
	BadgerPath    string `env:"BADGER_PATH" envDefault:"./data/badger"`

	// Gameplay
	TimeZone       string        `env:"PUZZLE_TIMEZONE" envDefault:"America/New_York"`
	SaveDebounce   time.Duration `env:"SAVE_DEBOUNCE" envDefault:"100ms" validate:"gte=0"`
	MaxHintsPerDay int           `env:"MAX_HINTS_PER_DAY" envDefault:"3" validate:"gte=0"`
	ShareSecret    string        `env:"SHARE_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120" validate:"gt=0"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"20" validate:"gt=0"`

	// Proxies whose X-Forwarded-For is believed, as IPs or CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," validate:"dive,cidr|ip"`
}

var validate = validator.New()

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the puzzle time zone exists
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.StoreBackend == "sql" && c.DatabaseType != "sqlite" && c.DatabaseType != "sqlite3" && c.DatabaseURL == "" {
		return fmt.Errorf("invalid config: DATABASE_URL is required for %s", c.DatabaseType)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid config: PUZZLE_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location returns the time zone used to decide which puzzle is "today"
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
