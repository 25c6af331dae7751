package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yatube/backend/internal/validation"
)

const devSecretKey = "yatube-dev-secret-change-me"

// Config is the process-wide configuration, resolved once at startup
type Config struct {
	Environment string
	Port        string
	BaseURL     string
	SecretKey   string

	PostsPerPage int
	PageCacheTTL time.Duration
	SessionTTL   time.Duration

	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Email     EmailConfig
	Telemetry TelemetryConfig
	Log       LogConfig

	// RequiredServices must pass their startup check or the server refuses to start
	RequiredServices []string
}

// DatabaseConfig selects and addresses the relational store
type DatabaseConfig struct {
	Driver     string // "sqlite" or "postgres"
	URL        string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
}

// RedisConfig addresses the shared page cache. Host empty means in-process cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// StorageConfig selects where post images are written
type StorageConfig struct {
	Backend   string // "local" or "s3"
	MediaRoot string
	MediaURL  string
	AWSRegion string
	S3Bucket  string
	CDNURL    string
}

// EmailConfig configures outbound mail. Empty FromEmail means mail is logged, not sent.
type EmailConfig struct {
	AWSRegion string
	FromEmail string
	FromName  string
}

// TelemetryConfig configures OpenTelemetry tracing
type TelemetryConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level string
	File  string
}

// Load reads .env (if present), then the optional YATUBE_CONFIG file, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("YATUBE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Environment:  v.GetString("ENVIRONMENT"),
		Port:         v.GetString("PORT"),
		BaseURL:      strings.TrimRight(v.GetString("BASE_URL"), "/"),
		SecretKey:    v.GetString("SECRET_KEY"),
		PostsPerPage: v.GetInt("POSTS_PER_PAGE"),
		PageCacheTTL: v.GetDuration("PAGE_CACHE_TTL"),
		SessionTTL:   v.GetDuration("SESSION_TTL"),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			URL:        v.GetString("DATABASE_URL"),
			SQLitePath: v.GetString("SQLITE_PATH"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(v.GetString("STORAGE_BACKEND")),
			MediaRoot: v.GetString("MEDIA_ROOT"),
			MediaURL:  v.GetString("MEDIA_URL"),
			AWSRegion: v.GetString("AWS_REGION"),
			S3Bucket:  v.GetString("AWS_BUCKET"),
			CDNURL:    v.GetString("CDN_URL"),
		},
		Email: EmailConfig{
			AWSRegion: v.GetString("AWS_REGION"),
			FromEmail: v.GetString("SES_FROM_EMAIL"),
			FromName:  v.GetString("SES_FROM_NAME"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("OTEL_ENABLED"),
			Endpoint:     v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SamplingRate: v.GetFloat64("OTEL_SAMPLING_RATE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	for _, name := range validation.KnownServices {
		if v.GetBool("YATUBE_REQUIRE_" + strings.ToUpper(name)) {
			cfg.RequiredServices = append(cfg.RequiredServices, name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("BASE_URL", "http://localhost:8000")
	v.SetDefault("SECRET_KEY", devSecretKey)
	v.SetDefault("POSTS_PER_PAGE", 10)
	v.SetDefault("PAGE_CACHE_TTL", "20s")
	v.SetDefault("SESSION_TTL", "336h")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "yatube.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "yatube")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media/")
	v.SetDefault("AWS_REGION", "us-east-1")

	v.SetDefault("SES_FROM_NAME", "Yatube")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SAMPLING_RATE", 1.0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "yatube.log")
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.IsProduction() && c.SecretKey == devSecretKey {
		return fmt.Errorf("SECRET_KEY must be set in production")
	}
	if c.PostsPerPage < 1 {
		return fmt.Errorf("POSTS_PER_PAGE must be positive, got %d", c.PostsPerPage)
	}
	if c.PageCacheTTL < 0 {
		return fmt.Errorf("PAGE_CACHE_TTL must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("AWS_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if !strings.HasSuffix(c.Storage.MediaURL, "/") {
		c.Storage.MediaURL += "/"
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresDSN builds a postgres DSN from the DB_* fields when DATABASE_URL is empty
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}
