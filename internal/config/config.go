package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Pricing    PricingConfig
	Demand     DemandConfig
	Competitor CompetitorConfig
	Kafka      KafkaConfig
	LogLevel   string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	RequestTimeout  int
	MaxBodyBytes    int
}

type AuthConfig struct {
	APIKeys []string // Valid API keys; empty disables authentication
}

type PricingConfig struct {
	MinMarkup           float64
	MaxMarkup           float64
	CategoryMultipliers map[string]float64
	Workers             int
	MaxBatchSize        int
	FailurePolicy       string
}

type DemandConfig struct {
	Estimator string // formula, linear or remote
	ModelPath string
	URL       string
	Timeout   time.Duration
}

type CompetitorConfig struct {
	Source      string // static, feed, mysql or remote
	FeedURLs    []string
	MySQLDSN    string
	URL         string
	Timeout     time.Duration
	BloomFPRate float64
}

type KafkaConfig struct {
	Brokers        []string // empty disables publishing
	Topic          string
	PublishTimeout time.Duration
}

// Load reads configuration from environment variables, after applying ENV_FILE (default .env) if present
func Load() (*Config, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, err
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// FromEnv reads configuration from the environment without validating it
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
			RequestTimeout:  getEnvAsInt("REQUEST_TIMEOUT", 60),
			MaxBodyBytes:    getEnvAsInt("MAX_BODY_BYTES", 1<<20),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsSlice("API_KEYS", nil),
		},
		Pricing: PricingConfig{
			MinMarkup: getEnvAsFloat("PRICING_MIN_MARKUP", 1.1),
			MaxMarkup: getEnvAsFloat("PRICING_MAX_MARKUP", 1.5),
			CategoryMultipliers: getEnvAsMap("PRICING_CATEGORY_MULTIPLIERS", map[string]float64{
				"Electronics": 1.2,
				"Apparel":     1.0,
				"Home":        0.9,
			}),
			Workers:       getEnvAsInt("PRICING_WORKERS", 8),
			MaxBatchSize:  getEnvAsInt("MAX_BATCH_SIZE", 1000),
			FailurePolicy: strings.ToLower(getEnv("BATCH_FAILURE_POLICY", "fail")),
		},
		Demand: DemandConfig{
			Estimator: strings.ToLower(getEnv("DEMAND_ESTIMATOR", "formula")),
			ModelPath: getEnv("DEMAND_MODEL_PATH", ""),
			URL:       getEnv("DEMAND_MODEL_URL", ""),
			Timeout:   time.Duration(getEnvAsInt("DEMAND_TIMEOUT_MS", 2000)) * time.Millisecond,
		},
		Competitor: CompetitorConfig{
			Source:      strings.ToLower(getEnv("COMPETITOR_SOURCE", "static")),
			FeedURLs:    getEnvAsSlice("COMPETITOR_FEED_URLS", nil),
			MySQLDSN:    getEnv("COMPETITOR_MYSQL_DSN", ""),
			URL:         getEnv("COMPETITOR_URL", ""),
			Timeout:     time.Duration(getEnvAsInt("COMPETITOR_TIMEOUT_MS", 2000)) * time.Millisecond,
			BloomFPRate: getEnvAsFloat("COMPETITOR_BLOOM_FP_RATE", 0.01),
		},
		Kafka: KafkaConfig{
			Brokers:        getEnvAsSlice("KAFKA_BROKERS", nil),
			Topic:          getEnv("KAFKA_TOPIC", "pricing.decisions"),
			PublishTimeout: time.Duration(getEnvAsInt("KAFKA_PUBLISH_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if !(c.Pricing.MinMarkup > 0) || c.Pricing.MaxMarkup < c.Pricing.MinMarkup {
		return fmt.Errorf("invalid markup band [%v, %v]", c.Pricing.MinMarkup, c.Pricing.MaxMarkup)
	}
	if c.Pricing.Workers < 1 {
		return fmt.Errorf("PRICING_WORKERS must be at least 1")
	}
	if c.Pricing.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be at least 1")
	}
	if c.Pricing.FailurePolicy != "fail" && c.Pricing.FailurePolicy != "partial" {
		return fmt.Errorf("invalid BATCH_FAILURE_POLICY: %s (must be fail or partial)", c.Pricing.FailurePolicy)
	}

	switch c.Demand.Estimator {
	case "formula":
	case "linear":
		if c.Demand.ModelPath == "" {
			return fmt.Errorf("DEMAND_MODEL_PATH is required for the linear estimator")
		}
	case "remote":
		if c.Demand.URL == "" {
			return fmt.Errorf("DEMAND_MODEL_URL is required for the remote estimator")
		}
	default:
		return fmt.Errorf("invalid DEMAND_ESTIMATOR: %s (must be formula, linear, or remote)", c.Demand.Estimator)
	}

	switch c.Competitor.Source {
	case "static":
	case "feed":
		if len(c.Competitor.FeedURLs) == 0 {
			return fmt.Errorf("COMPETITOR_FEED_URLS is required for the feed source")
		}
	case "mysql":
		if c.Competitor.MySQLDSN == "" {
			return fmt.Errorf("COMPETITOR_MYSQL_DSN is required for the mysql source")
		}
		if !(c.Competitor.BloomFPRate > 0 && c.Competitor.BloomFPRate < 1) {
			return fmt.Errorf("COMPETITOR_BLOOM_FP_RATE must be between 0 and 1")
		}
	case "remote":
		if c.Competitor.URL == "" {
			return fmt.Errorf("COMPETITOR_URL is required for the remote source")
		}
	default:
		return fmt.Errorf("invalid COMPETITOR_SOURCE: %s (must be static, feed, mysql, or remote)", c.Competitor.Source)
	}

	return nil
}

// AuthEnabled reports whether API keys are configured
func (c AuthConfig) AuthEnabled() bool {
	return len(c.APIKeys) > 0
}

// LoadEnvFile applies the file named by ENV_FILE (default .env), if present,
// without overriding variables already set
func LoadEnvFile() error {
	return loadDotEnv(getEnv("ENV_FILE", ".env"))
}

// loadDotEnv applies a .env file without overriding variables already set
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// getEnvAsMap parses "Name=1.2,Other=0.9". Malformed input yields the default.
func getEnvAsMap(key string, defaultValue map[string]float64) map[string]float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	values := make(map[string]float64)
	for _, pair := range strings.Split(valueStr, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return defaultValue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return defaultValue
		}
		values[name] = value
	}
	return values
}
