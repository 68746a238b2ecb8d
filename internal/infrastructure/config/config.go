package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model sources.
const (
	ModelSourceFile   = "file"
	ModelSourceRemote = "remote"
)

// Config holds all configuration for the fraud detection service.
type Config struct {
	GRPCPort    string
	HTTPPort    string
	Environment string
	LogLevel    string
	LogFormat   string
	LogFile     string

	OTLPEndpoint string

	KafkaBrokers       []string
	KafkaTopic         string
	KafkaTLS           bool
	KafkaSASLMechanism string
	KafkaSASLUsername  string
	KafkaSASLPassword  string

	GRPCTLSCert    string
	GRPCTLSKey     string
	GRPCReflection bool

	ModelSource    string
	ModelFile      string
	ModelServerURL string
	ModelServerCA  string
	ModelTimeout   time.Duration
	ModelWait      time.Duration
	ModelCacheSize int

	BatchWorkers   int
	BatchChunkSize int
	MaxUploadBytes int64
	RateLimitRPS   float64

	ClassifierLabel string
	DetectorLabel   string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GRPCPort:    getEnv("GRPC_PORT", "8088"),
		HTTPPort:    getEnv("HTTP_PORT", "9088"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		LogFile:     getEnv("LOG_FILE", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "fraud.events"),
		KafkaTLS:           getEnvBool("KAFKA_TLS", false),
		KafkaSASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
		KafkaSASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
		KafkaSASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),

		GRPCTLSCert:    getEnv("GRPC_TLS_CERT", ""),
		GRPCTLSKey:     getEnv("GRPC_TLS_KEY", ""),
		GRPCReflection: getEnvBool("GRPC_REFLECTION", false),

		ModelSource:    strings.ToLower(getEnv("MODEL_SOURCE", ModelSourceFile)),
		ModelFile:      getEnv("MODEL_FILE", "models/models.yaml"),
		ModelServerURL: getEnv("MODEL_SERVER_URL", ""),
		ModelServerCA:  getEnv("MODEL_SERVER_CA", ""),
		ModelTimeout:   getEnvDuration("MODEL_TIMEOUT", 5*time.Second),
		ModelWait:      getEnvDuration("MODEL_WAIT", 2*time.Minute),
		ModelCacheSize: getEnvInt("MODEL_CACHE_SIZE", 4096),

		BatchWorkers:   getEnvInt("BATCH_WORKERS", runtime.NumCPU()),
		BatchChunkSize: getEnvInt("BATCH_CHUNK_SIZE", 512),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 32<<20)),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 100),

		ClassifierLabel: getEnv("CLASSIFIER_LABEL", "Random Forest"),
		DetectorLabel:   getEnv("DETECTOR_LABEL", "Isolation Forest"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.ModelSource {
	case ModelSourceFile:
		if c.ModelFile == "" {
			errs = append(errs, errors.New("MODEL_FILE is required when MODEL_SOURCE=file"))
		}
	case ModelSourceRemote:
		if c.ModelServerURL == "" {
			errs = append(errs, errors.New("MODEL_SERVER_URL is required when MODEL_SOURCE=remote"))
		} else if u, err := url.Parse(c.ModelServerURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("MODEL_SERVER_URL %q is not an absolute URL", c.ModelServerURL))
		}
	default:
		errs = append(errs, fmt.Errorf("MODEL_SOURCE must be %q or %q, got %q", ModelSourceFile, ModelSourceRemote, c.ModelSource))
	}

	if c.ModelTimeout <= 0 {
		errs = append(errs, errors.New("MODEL_TIMEOUT must be positive"))
	}
	if c.ModelCacheSize < 0 {
		errs = append(errs, errors.New("MODEL_CACHE_SIZE must not be negative"))
	}
	if c.BatchWorkers < 1 {
		errs = append(errs, errors.New("BATCH_WORKERS must be at least 1"))
	}
	if c.BatchChunkSize < 1 {
		errs = append(errs, errors.New("BATCH_CHUNK_SIZE must be at least 1"))
	}
	if c.MaxUploadBytes < 1 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be at least 1"))
	}
	if (c.GRPCTLSCert == "") != (c.GRPCTLSKey == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT and GRPC_TLS_KEY must be set together"))
	}

	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
