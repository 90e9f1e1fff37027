package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Draft store backends selectable through DRAFT_STORE.
const (
	DraftStoreMemory   = "memory"
	DraftStoreFile     = "file"
	DraftStorePostgres = "postgres"
	DraftStoreRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string

	// APIURL is the base URL of the remote event API.
	APIURL    string
	JWTSecret string

	DraftStore    string
	DraftFileDir  string
	DBUrl         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DraftTTL      time.Duration

	SubmitTimeout time.Duration
	// WizardIdleTimeout is how long an untouched wizard stays in memory.
	WizardIdleTimeout time.Duration

	CORSAllowedOrigins []string

	Email EmailConfig
}

// EmailConfig selects and configures the outgoing mail provider.
type EmailConfig struct {
	Provider           string
	FromAddress        string
	FromName           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production .env might not exist and we rely on system environment variables
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{
		Environment:   env,
		Port:          getEnv("PORT", "8080"),
		APIURL:        strings.TrimSuffix(firstEnv("API_URL", "BASE_URL"), "/"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		DraftStore:    strings.ToLower(getEnv("DRAFT_STORE", DraftStoreMemory)),
		DraftFileDir:  getEnv("DRAFT_FILE_DIR", "./data/drafts"),
		DBUrl:         os.Getenv("DATABASE_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		Email: EmailConfig{
			Provider:           strings.ToLower(getEnv("EMAIL_PROVIDER", "noop")),
			FromAddress:        os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:           getEnv("EMAIL_FROM_NAME", "Ticket Wizard"),
			AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.DraftTTL, err = getDuration("DRAFT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SubmitTimeout, err = getDuration("SUBMIT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.WizardIdleTimeout, err = getDuration("WIZARD_IDLE_TIMEOUT", time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DraftStore {
	case DraftStoreMemory, DraftStoreFile, DraftStoreRedis:
	case DraftStorePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DATABASE_URL is required when DRAFT_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown DRAFT_STORE %q", c.DraftStore)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
