package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the profile risk service.
type Config struct {
	GRPCPort    string `validate:"required,numeric"`
	HTTPPort    string `validate:"required,numeric"`
	Environment string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn warning error"`
	LogFormat   string `validate:"oneof=json text"`

	// DatabaseURL selects the PostgreSQL history store; empty keeps history in memory.
	DatabaseURL     string
	MigrationsDir   string
	DBMaxConns      int `validate:"gte=1"`
	DBMinConns      int `validate:"gte=0,ltefield=DBMaxConns"`
	HistoryCapacity int `validate:"gte=1"`

	// RecordTimeout bounds each history write and event publish.
	RecordTimeout time.Duration `validate:"gt=0"`

	// KafkaBrokers enables event publishing to Kafka; empty logs events instead.
	KafkaBrokers []string `validate:"dive,hostname_port"`
	KafkaTopic   string   `validate:"required"`

	ClassifierArtifactPath string
	ScoringPolicyFile      string
	FeatureMaxCount        int64 `validate:"gte=1"`

	LLMBaseURL string        `validate:"required,url"`
	LLMModel   string        `validate:"required"`
	LLMTimeout time.Duration `validate:"gt=0"`
	LLMAPIKey  string

	RateLimit    float64 `validate:"gte=0"`
	RateBurst    int     `validate:"gte=0"`
	MaxBodyBytes int64   `validate:"gte=1024"`

	OTLPEndpoint     string
	TLSCertFile      string `validate:"required_with=TLSKeyFile"`
	TLSKeyFile       string `validate:"required_with=TLSCertFile"`
	EnableReflection bool
}

// Load reads configuration from environment variables with sensible defaults
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		GRPCPort:    getEnv("GRPC_PORT", "8090"),
		HTTPPort:    getEnv("HTTP_PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "json")),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", ""),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:      getEnvInt("DB_MIN_CONNS", 1),
		HistoryCapacity: getEnvInt("HISTORY_CAPACITY", 1000),
		RecordTimeout:   getEnvDuration("RECORD_TIMEOUT", 2*time.Second),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "profile.assessments"),

		ClassifierArtifactPath: getEnv("CLASSIFIER_ARTIFACT_PATH", "models/classifier.json"),
		ScoringPolicyFile:      getEnv("SCORING_POLICY_FILE", ""),
		FeatureMaxCount:        int64(getEnvInt("FEATURE_MAX_COUNT", 10_000_000)),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:   getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMAPIKey:  getEnv("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
		LLMTimeout: getEnvDuration("LLM_TIMEOUT", 5*time.Second),

		RateLimit:    getEnvFloat("RATE_LIMIT", 20),
		RateBurst:    getEnvInt("RATE_BURST", 40),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 64<<10)),

		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		EnableReflection: getEnvBool("GRPC_REFLECTION", true),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// TLSEnabled reports whether a certificate pair is configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
