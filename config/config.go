package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Catalog sources understood by CATALOG_SOURCE.
const (
	SourceDemo       = "demo"
	SourceCSV        = "csv"
	SourcePostgres   = "postgres"
	SourceStorefront = "storefront"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PageSize      int
	CatalogSource string
	LogLevel      string

	CatalogCSVPath string
	ExportCSVPath  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	StorefrontURL   string
	StorefrontPages int
	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	ChromeBin       string
}

// Load reads the .env file (if any) and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PageSize:      getEnvInt("PAGE_SIZE", 9),
		CatalogSource: strings.ToLower(getEnv("CATALOG_SOURCE", SourceDemo)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		CatalogCSVPath: getEnv("CATALOG_CSV_PATH", "./data/catalog.csv"),
		ExportCSVPath:  getEnv("EXPORT_CSV_PATH", ""),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "catalog"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "catalog"),
		PostgresDB:       getEnv("POSTGRES_DB", "catalog_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StorefrontURL:   getEnv("STOREFRONT_URL", ""),
		StorefrontPages: getEnvInt("STOREFRONT_PAGES", 1),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		ChromeBin:       getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
