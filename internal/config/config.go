package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Push     PushConfig
	Reminder ReminderConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server settings. WriteTimeout defaults to zero:
// a write deadline would sever the long-lived appointment stream about a
// minute after each dashboard connects. Deployments that do not use the
// stream can set SERVER_WRITE_TIMEOUT.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// AuthConfig holds bearer-token verification settings. Credential issuance
// happens in the external identity provider; this service only verifies.
type AuthConfig struct {
	JWTSecret string
}

// PushConfig holds push-provider settings.
type PushConfig struct {
	Endpoint    string
	ServerKey   string
	VAPIDKey    string
	SendTimeout time.Duration
}

// ReminderConfig holds reminder sweeper settings.
type ReminderConfig struct {
	Interval  time.Duration
	Lookahead time.Duration
}

// CacheConfig holds the offline snapshot cache settings.
type CacheConfig struct {
	Dir string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 0),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "mayor_schedule"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Push: PushConfig{
			Endpoint:    getEnv("PUSH_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
			ServerKey:   os.Getenv("PUSH_SERVER_KEY"),
			VAPIDKey:    os.Getenv("PUSH_VAPID_KEY"),
			SendTimeout: getDurationEnv("PUSH_SEND_TIMEOUT", 10*time.Second),
		},
		Reminder: ReminderConfig{
			Interval:  getDurationEnv("REMINDER_INTERVAL", time.Minute),
			Lookahead: getDurationEnv("REMINDER_LOOKAHEAD", 30*time.Minute),
		},
		Cache: CacheConfig{
			Dir: getEnv("CACHE_DIR", "./data/cache"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Reminder.Lookahead <= 0 {
		return fmt.Errorf("REMINDER_LOOKAHEAD must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
