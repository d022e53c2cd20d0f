package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Quota      QuotaConfig
	Generation GenerationConfig
	Payment    PaymentConfig
	Queue      QueueConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds session and password settings
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
	CookieSecure  bool
	BcryptCost    int
}

// QuotaConfig holds free tier limits
type QuotaConfig struct {
	FreeLimit int
}

// ProviderConfig configures one text-generation backend
type ProviderConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// GenerationConfig holds text-generation provider settings
type GenerationConfig struct {
	Timeout time.Duration
	OpenAI  ProviderConfig
	Cohere  ProviderConfig
}

// PaymentConfig holds payment gateway settings
type PaymentConfig struct {
	Gateway             string // simulated, stripe
	Currency            string
	PublicKey           string
	StripeSecretKey     string
	StripeWebhookSecret string
	MonthlyAmount       int64
	YearlyAmount        int64
	Timeout             time.Duration
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
	Exchange string
}

// MetricsConfig holds prometheus exporter settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds jaeger settings
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// Load reads configuration from an optional .env file, an optional yaml file and
// environment variables. Nested keys map to env vars with dots replaced by
// underscores, e.g. AUTH_SESSIONSECRET.
func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return errors.New("auth.sessionSecret is required")
	}
	if c.Quota.FreeLimit < 0 {
		return errors.New("quota.freeLimit must not be negative")
	}
	switch c.Payment.Gateway {
	case "simulated":
	case "stripe":
		if c.Payment.StripeSecretKey == "" {
			return errors.New("payment.stripeSecretKey is required for the stripe gateway")
		}
	default:
		return fmt.Errorf("unknown payment gateway %q", c.Payment.Gateway)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:5000"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "zubari_flashcards")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 2)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults; the session secret has none on purpose
	v.SetDefault("auth.sessionSecret", "")
	v.SetDefault("auth.sessionTTL", "168h")
	v.SetDefault("auth.cookieName", "session")
	v.SetDefault("auth.cookieSecure", true)
	v.SetDefault("auth.bcryptCost", 12)

	v.SetDefault("quota.freeLimit", 5)

	// Generation defaults
	v.SetDefault("generation.timeout", "20s")
	v.SetDefault("generation.openai.apiKey", "")
	v.SetDefault("generation.openai.model", "gpt-3.5-turbo")
	v.SetDefault("generation.openai.baseURL", "https://api.openai.com/v1")
	v.SetDefault("generation.openai.maxTokens", 1000)
	v.SetDefault("generation.cohere.apiKey", "")
	v.SetDefault("generation.cohere.model", "command")
	v.SetDefault("generation.cohere.baseURL", "https://api.cohere.ai/v1")
	v.SetDefault("generation.cohere.maxTokens", 800)

	// Payment defaults
	v.SetDefault("payment.gateway", "simulated")
	v.SetDefault("payment.currency", "KES")
	v.SetDefault("payment.publicKey", "")
	v.SetDefault("payment.stripeSecretKey", "")
	v.SetDefault("payment.stripeWebhookSecret", "")
	v.SetDefault("payment.monthlyAmount", 1000)
	v.SetDefault("payment.yearlyAmount", 10000)
	v.SetDefault("payment.timeout", "15s")

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")
	v.SetDefault("queue.exchange", "studyaid.events")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "studyaid-api")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("rateLimit.rps", 5)
	v.SetDefault("rateLimit.burst", 10)
}
