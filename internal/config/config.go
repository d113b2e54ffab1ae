package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings for the server and CLI
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	AWS       AWSConfig
	Email     EmailConfig
	Telemetry TelemetryConfig

	ClientOrigins []string
	ChatbotURL    string

	// RequiredServices must be reachable at startup (redis, storage, chatbot)
	RequiredServices []string
}

// DatabaseConfig selects the gorm dialect and its connection string
type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig configures the response cache backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig configures token signing
type AuthConfig struct {
	JWTSecret           string
	LoginTokenTTL       time.Duration
	VerifiedTokenTTL    time.Duration
	VerificationCodeTTL time.Duration
}

// AWSConfig configures object storage
type AWSConfig struct {
	Region     string
	Bucket     string
	CDNBaseURL string
}

// EmailConfig configures outbound verification mail
type EmailConfig struct {
	From     string
	FromName string
}

// TelemetryConfig configures OpenTelemetry tracing
type TelemetryConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

// Load reads .env (if present) and the process environment into a Config.
// JWT_SECRET is required.
func Load() (*Config, error) {
	// .env is optional; the environment always wins
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFile:     v.GetString("LOG_FILE"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret:           v.GetString("JWT_SECRET"),
			LoginTokenTTL:       v.GetDuration("LOGIN_TOKEN_TTL"),
			VerifiedTokenTTL:    v.GetDuration("VERIFIED_TOKEN_TTL"),
			VerificationCodeTTL: v.GetDuration("VERIFICATION_CODE_TTL"),
		},
		AWS: AWSConfig{
			Region:     v.GetString("AWS_REGION"),
			Bucket:     v.GetString("AWS_BUCKET"),
			CDNBaseURL: v.GetString("CDN_BASE_URL"),
		},
		Email: EmailConfig{
			From:     v.GetString("EMAIL_FROM"),
			FromName: v.GetString("EMAIL_FROM_NAME"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("OTEL_ENABLED"),
			Endpoint:     v.GetString("OTEL_ENDPOINT"),
			SamplingRate: v.GetFloat64("OTEL_SAMPLING_RATE"),
		},
		ClientOrigins: splitList(v.GetString("CLIENT_URL")),
		ChatbotURL:    strings.TrimRight(v.GetString("CHATBOT_URL"), "/"),

		RequiredServices: splitList(v.GetString("REQUIRED_SERVICES")),
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", cfg.Database.Driver)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN builds the gorm connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite" {
		return d.Name
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "server.log")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "uniconnect")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOGIN_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("VERIFIED_TOKEN_TTL", 30*24*time.Hour)
	v.SetDefault("VERIFICATION_CODE_TTL", 10*time.Minute)

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("EMAIL_FROM_NAME", "UniConnect")

	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("CHATBOT_URL", "http://localhost:8000")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SAMPLING_RATE", 1.0)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
