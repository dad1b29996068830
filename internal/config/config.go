package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// MongoDB
	MongoURI      string
	MongoDatabase string

	// Memory backend
	MemorySeedFile string

	// Response cache
	RedisAddr string
	CacheTTL  time.Duration

	// Per-request deadline applied to every reporting query.
	QueryTimeout time.Duration

	// AMQP (reseed notifications)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Seed loader
	SeedURL string
}

// Load reads configuration from a local .env file (if present) and the
// environment, falling back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8082"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/salestats.db"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "salestats"),

		MemorySeedFile: getEnv("MEMORY_SEED_FILE", "./data/transactions.json"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		QueryTimeout: getEnvDuration("QUERY_TIMEOUT", 7*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salestats"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_events"),

		SeedURL: getEnv("SEED_URL", "https://s3.amazonaws.com/roxiler.com/product_transaction.json"),
	}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite", "mongo":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite mongo]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataBackend == "mongo" {
		if c.MongoURI == "" {
			errs = append(errs, "Mongo URI cannot be empty when using mongo backend")
		}
		if c.MongoDatabase == "" {
			errs = append(errs, "Mongo database name cannot be empty when using mongo backend")
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SeedURL != "" {
		if parsed, err := url.Parse(c.SeedURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid seed URL '%s': %v", c.SeedURL, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid seed URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}

	if c.QueryTimeout < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid query timeout %v: must be at least 100ms", c.QueryTimeout))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
