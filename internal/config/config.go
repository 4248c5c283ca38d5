package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type Redis struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWT struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type Config struct {
	Port    string
	Storage string

	DB         Database
	SQLitePath string
	Redis      Redis
	JWT        JWT

	TemplatesFile     string
	SchedulerInterval time.Duration
	ReminderInterval  time.Duration
	RetryMaxAttempts  int
	RateLimit         int
	Timezone          *time.Location
}

// Load reads the environment, after merging an optional .env file found in
// the working directory. Values already set in the environment win.
func Load() (*Config, error) {
	return load(true)
}

// LoadStorage is Load for tools that never issue tokens: JWT_SECRET may be unset.
func LoadStorage() (*Config, error) {
	return load(false)
}

func load(requireSecret bool) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded .env file")
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		Storage: strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		DB: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "kanso_user"),
			Password: getEnv("DB_PASSWORD", "secret"),
			Name:     getEnv("DB_NAME", "kanso_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "kanso.db"),
		Redis: Redis{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWT{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getEnv("JWT_ISSUER", "kanso-challenge-engine"),
		},
		TemplatesFile: os.Getenv("TEMPLATES_FILE"),
	}

	var err error
	if cfg.Redis.Enabled, err = getBool("REDIS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JWT.TTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SchedulerInterval, err = getDuration("SCHEDULER_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderInterval, err = getDuration("REMINDER_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryMaxAttempts, err = getInt("RETRY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.Timezone, err = time.LoadLocation(getEnv("TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("config: invalid TIMEZONE: %w", err)
	}

	if err := cfg.validate(requireSecret); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StorageDSN is the connection string for the configured backend.
func (c *Config) StorageDSN() string {
	switch c.Storage {
	case StoragePostgres:
		return c.DB.DSN()
	case StorageSQLite:
		return c.SQLitePath
	}
	return ""
}

func (c *Config) validate(requireSecret bool) error {
	switch c.Storage {
	case StoragePostgres, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("config: invalid STORAGE %q (must be postgres, sqlite or memory)", c.Storage)
	}
	if requireSecret && c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("config: RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.SchedulerInterval <= 0 || c.ReminderInterval <= 0 {
		return fmt.Errorf("config: worker intervals must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return d, nil
}
