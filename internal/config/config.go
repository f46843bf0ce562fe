package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Recalculation modes.
const (
	RecalcModeSync  = "sync"
	RecalcModeQueue = "queue"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Schedule ScheduleConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name            string
	Version         string
	Port            int
	Env             string
	LogLevel        string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// RedisConfig is optional. An empty Addr disables the plan cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PlanTTL  time.Duration
}

type RabbitMQConfig struct {
	URL            string
	Queue          string
	Prefetch       int
	PublishTimeout time.Duration
}

type ScheduleConfig struct {
	// Timezone decides what "today" means for the engine.
	Timezone   string
	RecalcMode string
	// SweepInterval is how often the daily reclassification checks for a
	// new day. Zero disables it.
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	autoMigrate, err := strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "workforce"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(dbMaxConns),
		AutoMigrate: autoMigrate,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(getEnv("APP_SHUTDOWN_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_SHUTDOWN_TIMEOUT: %w", err)
	}

	config.App = AppConfig{
		Name:            getEnv("APP_NAME", "workforce-scheduling"),
		Version:         getEnv("APP_VERSION", "v1.0.0"),
		Port:            appPort,
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:  getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		ShutdownTimeout: shutdownTimeout,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	planTTL, err := time.ParseDuration(getEnv("REDIS_PLAN_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PLAN_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
		PlanTTL:  planTTL,
	}

	// RabbitMQ configuration
	prefetch, err := strconv.Atoi(getEnv("RABBITMQ_PREFETCH", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RABBITMQ_PREFETCH: %w", err)
	}
	publishTimeout, err := time.ParseDuration(getEnv("RABBITMQ_PUBLISH_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RABBITMQ_PUBLISH_TIMEOUT: %w", err)
	}

	config.RabbitMQ = RabbitMQConfig{
		URL:            getEnv("RABBITMQ_URL", ""),
		Queue:          getEnv("RABBITMQ_QUEUE", "schedule_recalculation"),
		Prefetch:       prefetch,
		PublishTimeout: publishTimeout,
	}

	// Schedule engine configuration
	sweepInterval, err := time.ParseDuration(getEnv("SCHEDULE_SWEEP_INTERVAL", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_SWEEP_INTERVAL: %w", err)
	}

	config.Schedule = ScheduleConfig{
		Timezone:      getEnv("SCHEDULE_TIMEZONE", "UTC"),
		RecalcMode:    strings.ToLower(getEnv("RECALC_MODE", RecalcModeSync)),
		SweepInterval: sweepInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}
	if c.Schedule.SweepInterval < 0 {
		return fmt.Errorf("SCHEDULE_SWEEP_INTERVAL must not be negative")
	}

	switch c.Schedule.RecalcMode {
	case RecalcModeSync:
	case RecalcModeQueue:
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when RECALC_MODE is %q", RecalcModeQueue)
		}
	default:
		return fmt.Errorf("RECALC_MODE must be %q or %q", RecalcModeSync, RecalcModeQueue)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the engine's time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
