package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DecisionRules = "rules"
	DecisionModel = "model"

	DiscountHistory = "history"
	DiscountModel   = "model"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Port string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	JWTSecret string

	RedisAddr string
	RedisTTL  time.Duration

	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  time.Duration
	LLMMaxSteps int

	DecisionMode string
	DiscountMode string

	SeedCoverage float64
	SeedRandom   int64
	InitialCash  string
	StartDate    string

	LogLevel string
	Debug    bool
}

// Load reads .env (if present) and the process environment. The returned
// bool is false when no .env file was found.
func Load() (*Config, bool) {
	found := godotenv.Load() == nil
	return FromEnv(), found
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		Port:         getenvDefault("PORT", "3000"),
		DBDriver:     getenvDefault("DB_DRIVER", DriverPostgres),
		DatabaseURL:  databaseURL(),
		SQLitePath:   getenvDefault("SQLITE_PATH", "paper_orders.db"),
		JWTSecret:    getenvDefault("JWT_SECRET", "change-me-in-production"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisTTL:     getenvDuration("REDIS_TTL", 24*time.Hour),
		LLMProvider:  getenvDefault("LLM_PROVIDER", ProviderNone),
		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
		LLMBaseURL:   getenvDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:     os.Getenv("LLM_MODEL"),
		LLMTimeout:   getenvDuration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxSteps:  getenvInt("LLM_MAX_STEPS", 6),
		DecisionMode: getenvDefault("DECISION_MODE", DecisionRules),
		DiscountMode: getenvDefault("DISCOUNT_MODE", DiscountHistory),
		SeedCoverage: getenvFloat("SEED_COVERAGE", 0.4),
		SeedRandom:   int64(getenvInt("SEED_RANDOM", 137)),
		InitialCash:  getenvDefault("INITIAL_CASH", "50000"),
		StartDate:    getenvDefault("START_DATE", "2025-01-01"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		Debug:        getenvBool("DEBUG", false),
	}
}

// Validate rejects unknown modes and nonsensical limits.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown DB_DRIVER %q", ErrInvalidConfig, c.DBDriver)
	}
	switch c.LLMProvider {
	case ProviderNone, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalidConfig, c.LLMProvider)
	}
	switch c.DecisionMode {
	case DecisionRules, DecisionModel:
	default:
		return fmt.Errorf("%w: unknown DECISION_MODE %q", ErrInvalidConfig, c.DecisionMode)
	}
	switch c.DiscountMode {
	case DiscountHistory, DiscountModel:
	default:
		return fmt.Errorf("%w: unknown DISCOUNT_MODE %q", ErrInvalidConfig, c.DiscountMode)
	}
	if c.LLMProvider == ProviderNone && (c.DecisionMode == DecisionModel || c.DiscountMode == DiscountModel) {
		return fmt.Errorf("%w: model modes need LLM_PROVIDER", ErrInvalidConfig)
	}
	if c.LLMProvider != ProviderNone && c.LLMAPIKey == "" {
		return fmt.Errorf("%w: LLM_API_KEY is required for provider %s", ErrInvalidConfig, c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("%w: LLM_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.LLMMaxSteps <= 0 {
		return fmt.Errorf("%w: LLM_MAX_STEPS must be positive", ErrInvalidConfig)
	}
	if c.SeedCoverage < 0 || c.SeedCoverage > 1 {
		return fmt.Errorf("%w: SEED_COVERAGE must be within [0, 1]", ErrInvalidConfig)
	}
	if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
		return fmt.Errorf("%w: START_DATE must be YYYY-MM-DD", ErrInvalidConfig)
	}
	return nil
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getenvDefault("DB_HOST", "localhost"),
		getenvDefault("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getenvDefault("DB_NAME", "paper_orders"),
		getenvDefault("DB_PORT", "5432"),
	)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
