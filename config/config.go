package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LookbackHours  int
	DOBOnlyGeneral bool
	SodaAppToken   string

	TRDMaxLinks    int
	MaxConcurrency int
	RateLimitMs    int
	HTTPTimeoutSec int
	UserAgent      string

	CSVOutputPath string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		LookbackHours:  getEnvInt("LOOKBACK_HOURS", 24),
		DOBOnlyGeneral: getEnvBool("DOB_ONLY_GENERAL", true),
		SodaAppToken:   getEnv("NYC_SODA_APP_TOKEN", ""),

		TRDMaxLinks:    getEnvInt("TRD_MAX_LINKS", 40),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 25),
		UserAgent: getEnv("USER_AGENT",
			"AcreNY-DevBot/1.0 (+https://acre.example) GoResty"),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/nyc_developers_daily.csv"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "nycdev_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "1" || val == "true"
	}
	return fallback
}
