package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Handoff store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr  string
	WebAppURL string

	Auth     AuthConfig
	Store    string
	Database DatabaseConfig
	Redis    RedisConfig
}

// AuthConfig holds Telegram handoff settings.
// Fields may be empty: the auth endpoints report missing values per request.
type AuthConfig struct {
	BotToken         string
	ExternalAppURL   string
	SessionJWTSecret string
	CookieDomain     string
	SessionIssuer    string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB must be a number: %w", err)
	}

	cfg := &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		WebAppURL: os.Getenv("WEBAPP_URL"),
		Auth: AuthConfig{
			BotToken:         os.Getenv("TG_BOT_TOKEN"),
			ExternalAppURL:   os.Getenv("EXTERNAL_APP_URL"),
			SessionJWTSecret: os.Getenv("SESSION_JWT_SECRET"),
			CookieDomain:     os.Getenv("COOKIE_DOMAIN"),
			SessionIssuer:    getEnv("SESSION_ISSUER", "tg-storefront"),
		},
		Store: getEnv("HANDOFF_STORE", StoreMemory),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "storefront"),
			User:     getEnv("DB_USER", "storefront"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}

	switch cfg.Store {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required for HANDOFF_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown HANDOFF_STORE %q", cfg.Store)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
