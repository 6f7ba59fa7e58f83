package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// Config holds all runtime settings. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL    string
	DBMaxIdleConns int
	DBMaxOpenConns int
	DBConnLifetime time.Duration
	DBLogLevel     logger.LogLevel
	DBConnectTries int
	DBConnectWait  time.Duration

	JWTSecret    string
	JWTExpiresIn time.Duration
	// DevUserID, when non-zero, authenticates requests that carry no bearer token.
	DevUserID int64

	// AdminEmail and AdminPassword seed an admin account at boot when both are set.
	AdminEmail    string
	AdminPassword string

	OTLPEndpoint string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the .env file (if any) and the environment. Variables already
// set in the environment win over .env entries.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 50),
		DBConnLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBLogLevel:     getEnvLogLevel("DB_LOG_LEVEL", logger.Warn),
		DBConnectTries: getEnvInt("DB_CONNECT_TRIES", 5),
		DBConnectWait:  getEnvDuration("DB_CONNECT_WAIT", 2*time.Second),

		JWTSecret:    getEnv("JWT_SECRET", "realtycore-dev-secret-change-me"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		DevUserID:    int64(getEnvInt("AUTH_DEV_USER_ID", 0)),

		AdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvLogLevel(key string, fallback logger.LogLevel) logger.LogLevel {
	switch os.Getenv(key) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return fallback
	}
}
