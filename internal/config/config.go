package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Remote document store (backup mirror)
	RemoteURL string

	// Sync
	SyncCooldown   time.Duration
	OutboxInterval time.Duration

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "khata"),
		DBPassword: getEnv("DB_PASSWORD", "khata"),
		DBName:     getEnv("DB_NAME", "khata"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Remote store
		RemoteURL: getEnv("REMOTE_URL", "redis://localhost:6379/0"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
	}

	config.SyncCooldown = getEnvDuration("SYNC_COOLDOWN", 5*time.Minute)
	config.OutboxInterval = getEnvDuration("OUTBOX_INTERVAL", 5*time.Second)
	config.JWTExpirationDur = getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable, falling back to the
// default on absence or parse failure.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
