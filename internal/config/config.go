package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Store drivers understood by the server.
const (
	StoreSurreal = "surreal"
	StoreMemory  = "memory"
)

// Provider is the read-only view of configuration handed to components.
type Provider interface {
	GetServerAddr() string
	GetStoreDriver() string
	GetDBURL() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
	GetSessionSecret() string
	GetWSSendBuffer() int
	GetWSReadLimit() int64
	GetWSPingInterval() time.Duration
	GetModerationScript() string
	GetModerationTimeout() time.Duration
	GetArchiveDir() string
	GetRateLimit() float64
}

// Config holds all configuration for the application.
type Config struct {
	ServerAddr  string `validate:"required"`
	StoreDriver string `validate:"oneof=surreal memory"`

	DBUrl            string `validate:"required_if=StoreDriver surreal"`
	DBNs             string `validate:"required_if=StoreDriver surreal"`
	DBDb             string `validate:"required_if=StoreDriver surreal"`
	DBUser           string
	DBPass           string
	DBQueryTimeout   time.Duration `validate:"gt=0"`
	DBExecuteTimeout time.Duration `validate:"gt=0"`

	SessionSecret string `validate:"required,min=16"`

	WSSendBuffer   int           `validate:"gte=1"`
	WSReadLimit    int64         `validate:"gte=1024"`
	WSPingInterval time.Duration `validate:"gt=0"`

	ModerationScript  string
	ModerationTimeout time.Duration `validate:"gt=0"`
	ArchiveDir        string

	RateLimit float64 `validate:"gt=0"`
}

var _ Provider = (*Config)(nil)

// New loads configuration from a .env file (if present) and the environment,
// then validates it.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching
// .env files. Tests use it after t.Setenv.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		StoreDriver:       getEnv("STORE_DRIVER", StoreSurreal),
		DBUrl:             os.Getenv("SURREAL_URL"),
		DBNs:              os.Getenv("SURREAL_NS"),
		DBDb:              os.Getenv("SURREAL_DB"),
		DBUser:            os.Getenv("SURREAL_USER"),
		DBPass:            os.Getenv("SURREAL_PASS"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		ModerationScript:  os.Getenv("MODERATION_SCRIPT"),
		ArchiveDir:        os.Getenv("ARCHIVE_DIR"),
		DBQueryTimeout:    5 * time.Second,
		DBExecuteTimeout:  5 * time.Second,
		WSSendBuffer:      256,
		WSReadLimit:       64 * 1024,
		WSPingInterval:    25 * time.Second,
		ModerationTimeout: 100 * time.Millisecond,
		RateLimit:         20,
	}

	var err error
	if cfg.DBQueryTimeout, err = durationEnv("DB_QUERY_TIMEOUT", cfg.DBQueryTimeout); err != nil {
		return nil, err
	}
	if cfg.DBExecuteTimeout, err = durationEnv("DB_EXECUTE_TIMEOUT", cfg.DBExecuteTimeout); err != nil {
		return nil, err
	}
	if cfg.WSPingInterval, err = durationEnv("WS_PING_INTERVAL", cfg.WSPingInterval); err != nil {
		return nil, err
	}
	if cfg.ModerationTimeout, err = durationEnv("MODERATION_TIMEOUT", cfg.ModerationTimeout); err != nil {
		return nil, err
	}
	if v := os.Getenv("WS_SEND_BUFFER"); v != "" {
		if cfg.WSSendBuffer, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid WS_SEND_BUFFER %q: %w", v, err)
		}
	}
	if v := os.Getenv("WS_READ_LIMIT"); v != "" {
		if cfg.WSReadLimit, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid WS_READ_LIMIT %q: %w", v, err)
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags above.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func (c *Config) GetServerAddr() string               { return c.ServerAddr }
func (c *Config) GetStoreDriver() string              { return c.StoreDriver }
func (c *Config) GetDBURL() string                    { return c.DBUrl }
func (c *Config) GetDBNs() string                     { return c.DBNs }
func (c *Config) GetDBDb() string                     { return c.DBDb }
func (c *Config) GetDBUser() string                   { return c.DBUser }
func (c *Config) GetDBPass() string                   { return c.DBPass }
func (c *Config) GetDBQueryTimeout() time.Duration    { return c.DBQueryTimeout }
func (c *Config) GetDBExecuteTimeout() time.Duration  { return c.DBExecuteTimeout }
func (c *Config) GetSessionSecret() string            { return c.SessionSecret }
func (c *Config) GetWSSendBuffer() int                { return c.WSSendBuffer }
func (c *Config) GetWSReadLimit() int64               { return c.WSReadLimit }
func (c *Config) GetWSPingInterval() time.Duration    { return c.WSPingInterval }
func (c *Config) GetModerationScript() string         { return c.ModerationScript }
func (c *Config) GetModerationTimeout() time.Duration { return c.ModerationTimeout }
func (c *Config) GetArchiveDir() string               { return c.ArchiveDir }
func (c *Config) GetRateLimit() float64               { return c.RateLimit }
