package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Org      OrgConfig
	Lock     LockConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Jobs     JobsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	Store       string
	CORSOrigins []string
	CompanyName string
}

// OrgConfig holds the organization-wide timekeeping settings.
type OrgConfig struct {
	Timezone          string
	Location          *time.Location
	WeekendDays       []time.Weekday
	DefaultShiftStart string
	DefaultShiftEnd   string
}

type LockConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	PunchTopic string
	GroupID    string
}

type JobsConfig struct {
	DeviceSyncEnabled   bool
	DeviceSyncInterval  time.Duration
	DeviceSyncBatchSize int
	MarkAbsentEnabled   bool
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	LockMemory = "memory"
	LockRedis  = "redis"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_timekeeping"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Store:       getEnv("STORE", StorePostgres),
		CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
		CompanyName: getEnv("PAYSLIP_COMPANY_NAME", ""),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Organization
	config.Org = OrgConfig{
		Timezone:          getEnv("ORG_TIMEZONE", "Asia/Dhaka"),
		DefaultShiftStart: getEnv("DEFAULT_SHIFT_START", "09:00"),
		DefaultShiftEnd:   getEnv("DEFAULT_SHIFT_END", "18:00"),
	}
	if config.Org.Location, err = time.LoadLocation(config.Org.Timezone); err != nil {
		return nil, fmt.Errorf("invalid ORG_TIMEZONE: %w", err)
	}
	weekend := getEnvSlice("WEEKEND_DAYS")
	if len(weekend) == 0 {
		weekend = []string{"Friday", "Saturday"}
	}
	if config.Org.WeekendDays, err = ParseWeekdays(weekend); err != nil {
		return nil, fmt.Errorf("invalid WEEKEND_DAYS: %w", err)
	}

	// Locking
	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}
	config.Lock = LockConfig{
		Backend: getEnv("LOCK_BACKEND", LockMemory),
		TTL:     lockTTL,
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.Kafka = KafkaConfig{
		Brokers:    getEnvSlice("KAFKA_BROKERS"),
		PunchTopic: getEnv("KAFKA_PUNCH_TOPIC", "device.punches"),
		GroupID:    getEnv("KAFKA_GROUP_ID", "hris-timekeeping"),
	}

	// Background jobs
	syncInterval, err := time.ParseDuration(getEnv("DEVICE_SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_SYNC_INTERVAL: %w", err)
	}
	batchSize, err := strconv.Atoi(getEnv("DEVICE_SYNC_BATCH_SIZE", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_SYNC_BATCH_SIZE: %w", err)
	}
	config.Jobs = JobsConfig{
		DeviceSyncEnabled:   getEnvBool("DEVICE_SYNC_ENABLED", false),
		DeviceSyncInterval:  syncInterval,
		DeviceSyncBatchSize: batchSize,
		MarkAbsentEnabled:   getEnvBool("MARK_ABSENT_ENABLED", true),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Store != StorePostgres && c.App.Store != StoreMemory {
		return fmt.Errorf("STORE must be %s or %s", StorePostgres, StoreMemory)
	}
	if c.App.Store == StorePostgres && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, _, err := timeutil.ParseHHMM(c.Org.DefaultShiftStart); err != nil {
		return fmt.Errorf("DEFAULT_SHIFT_START: %w", err)
	}
	if _, _, err := timeutil.ParseHHMM(c.Org.DefaultShiftEnd); err != nil {
		return fmt.Errorf("DEFAULT_SHIFT_END: %w", err)
	}
	if c.Lock.Backend != LockMemory && c.Lock.Backend != LockRedis {
		return fmt.Errorf("LOCK_BACKEND must be %s or %s", LockMemory, LockRedis)
	}
	if c.Jobs.DeviceSyncEnabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when DEVICE_SYNC_ENABLED is set")
	}
	if c.Jobs.DeviceSyncInterval <= 0 {
		return fmt.Errorf("DEVICE_SYNC_INTERVAL must be positive")
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

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
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

func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.EqualFold(strings.TrimSpace(name), d.String()) {
				days = append(days, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
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
