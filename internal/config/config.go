package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service configuration loaded from environment variables
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Cache / events
	RedisURL string

	// MoySklad API
	MoySkladToken   string
	MoySkladBaseURL string
	RateLimitRPS    int

	// Sync
	CategoryPageSize int
	ProductPageSize  int
	UpsertChunkSize  int
	DeleteChunkSize  int
	SyncTimeout      time.Duration

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from the environment. Missing required values
// (the MoySklad token and the database connection) abort startup.
func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		MoySkladToken:   getEnv("MOYSKLAD_TOKEN", ""),
		MoySkladBaseURL: getEnv("MOYSKLAD_BASE_URL", ""),
		RateLimitRPS:    getEnvAsInt("MOYSKLAD_RATE_LIMIT_RPS", 5),

		CategoryPageSize: getEnvAsInt("CATEGORY_PAGE_SIZE", 100),
		ProductPageSize:  getEnvAsInt("PRODUCT_PAGE_SIZE", 50),
		UpsertChunkSize:  getEnvAsInt("UPSERT_CHUNK_SIZE", 100),
		DeleteChunkSize:  getEnvAsInt("DELETE_CHUNK_SIZE", 500),
		SyncTimeout:      getEnvAsDuration("SYNC_TIMEOUT", 10*time.Minute),

		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts()
	}

	if cfg.MoySkladToken == "" {
		log.Fatal("MOYSKLAD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL (or DB_HOST/DB_USER/DB_PASSWORD/DB_NAME) is required")
	}

	return cfg
}

// databaseURLFromParts assembles a DSN from the discrete DB_* variables used
// in older deployments.
func databaseURLFromParts() string {
	host := getEnv("DB_HOST", "")
	user := getEnv("DB_USER", "")
	password := getEnv("DB_PASSWORD", "")
	name := getEnv("DB_NAME", "")
	if host == "" || user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, getEnv("DB_PORT", "5432"), user, password, name, getEnv("DB_SSLMODE", "disable"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
