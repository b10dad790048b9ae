package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"5000"`

	Log       LogConfig       `envPrefix:"LOG_"`
	Mail      MailConfig
	Quota     QuotaConfig
	LLM       LLMConfig       `envPrefix:"OPENAI_"`
	HTTP      HTTPConfig
	Telemetry TelemetryConfig

	// Maximum concurrent SMTP and LLM calls
	OutboundMaxInFlight int64 `env:"OUTBOUND_MAX_INFLIGHT" envDefault:"8"`

	// Optional bearer token guarding the email counter reset
	AdminToken string `env:"ADMIN_TOKEN"`

	// YAML persona file; the embedded default is used when empty
	PersonaFile string `env:"PERSONA_FILE"`
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	File       string `env:"FILE"`
	MaxSize    int    `env:"MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"MAX_AGE_DAYS" envDefault:"7"`
	Requests   bool   `env:"REQUESTS" envDefault:"false"`
}

// MailConfig describes the outbound mail account. The SMTP account is both
// sender and recipient of every relayed contact message.
type MailConfig struct {
	Provider      string        `env:"MAIL_PROVIDER" envDefault:"smtp"`
	Username      string        `env:"GMAIL_USER"`
	Password      string        `env:"GMAIL_APP_PASSWORD"`
	Host          string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port          int           `env:"SMTP_PORT" envDefault:"587"`
	Timeout       time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`
	ResendAPIKey  string        `env:"RESEND_API_KEY"`
	SubjectPrefix string        `env:"EMAIL_SUBJECT_PREFIX" envDefault:"Portfolio Contact: "`
}

type QuotaConfig struct {
	MaxEmails int           `env:"MAX_EMAILS_PER_DAY" envDefault:"50"`
	Window    time.Duration `env:"EMAIL_LIMIT_WINDOW" envDefault:"0s"`
	RedisURL  string        `env:"REDIS_URL"`
}

type LLMConfig struct {
	APIKey      string        `env:"API_KEY"`
	BaseURL     string        `env:"BASE_URL"`
	Model       string        `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	MaxTokens   int           `env:"MAX_TOKENS" envDefault:"500"`
	Temperature float32       `env:"TEMPERATURE" envDefault:"0.7"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Enabled reports whether a provider key was configured at startup.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// HTTPConfig tunes CORS and the per-IP limiter on the contact form. An
// API_RATE_LIMIT_RPS of 0 turns the limiter off.
type HTTPConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitRPS   float64  `env:"API_RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst int      `env:"API_RATE_LIMIT_BURST" envDefault:"5"`
}

// TelemetryConfig holds tracing and metrics settings. OTLPEndpoint takes
// either a URL (http://collector:4317) or a plain host:port.
type TelemetryConfig struct {
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"portfolio"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	envLocations := []string{".env"}

	// If ENV is set, try to load that specific file first
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that env parsing cannot express
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return fmt.Errorf("invalid ENV: %s", c.Environment)
	}

	c.Mail.Provider = strings.ToLower(strings.TrimSpace(c.Mail.Provider))
	if c.Mail.Provider != "smtp" && c.Mail.Provider != "resend" {
		return fmt.Errorf("invalid MAIL_PROVIDER: %s", c.Mail.Provider)
	}

	if c.Quota.MaxEmails < 0 {
		return fmt.Errorf("MAX_EMAILS_PER_DAY must be non-negative")
	}
	if c.Quota.Window < 0 {
		return fmt.Errorf("EMAIL_LIMIT_WINDOW must be non-negative")
	}
	if c.OutboundMaxInFlight <= 0 {
		return fmt.Errorf("OUTBOUND_MAX_INFLIGHT must be positive")
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("API_RATE_LIMIT_RPS must be non-negative")
	}
	if c.HTTP.RateLimitRPS > 0 && c.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	return nil
}
