package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	// Catalog
	BrandsFile string `envconfig:"PKDEALS_BRANDS_FILE" default:"brands.yml"`

	// Crawling etiquette
	RespectRobots bool   `envconfig:"PKDEALS_RESPECT_ROBOTS" default:"true"`
	DelayProfile  string `envconfig:"PKDEALS_DELAY_PROFILE" default:"normal"` // "cautious", "normal", "aggressive"
	UserAgent     string `envconfig:"PKDEALS_USER_AGENT" default:""`
	ProxyFile     string `envconfig:"PKDEALS_PROXIES" default:""`

	// Rate limiting
	RatePerSecond float64       `envconfig:"PKDEALS_RATE_PER_SECOND" default:"2"`
	RateBurst     int           `envconfig:"PKDEALS_RATE_BURST" default:"3"`
	MaxInFlight   int64         `envconfig:"PKDEALS_MAX_IN_FLIGHT" default:"8"`
	MaxConcurrent int           `envconfig:"PKDEALS_MAX_CONCURRENT" default:"4"`
	ReviewWorkers int           `envconfig:"PKDEALS_REVIEW_WORKERS" default:"8"`
	MaxRetries    int           `envconfig:"PKDEALS_MAX_RETRIES" default:"2"`
	RetryDelay    time.Duration `envconfig:"PKDEALS_RETRY_DELAY" default:"500ms"`

	// Storage
	StoreType       string `envconfig:"PKDEALS_STORE" default:"mongodb"` // mongodb, sqlite, postgres
	SQLitePath      string `envconfig:"PKDEALS_SQLITE_PATH" default:"./data/pkdeals.db"`
	PostgresDSN     string `envconfig:"PKDEALS_POSTGRES_DSN" default:""`
	MongoURI        string `envconfig:"MONGO_URI" default:"mongodb://127.0.0.1:27017"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"fwd_project"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"products"`

	// Review page cache
	CacheType     string        `envconfig:"PKDEALS_CACHE" default:"memory"` // memory, redis, none
	CacheTTL      time.Duration `envconfig:"PKDEALS_CACHE_TTL" default:"6h"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`

	// Change events; publishing is off while no broker is set.
	KafkaBrokers []string `envconfig:"PKDEALS_KAFKA_BROKERS" default:""`
	KafkaTopic   string   `envconfig:"PKDEALS_KAFKA_TOPIC" default:"pkdeals.products"`

	// HTTP server
	HTTPPort string `envconfig:"PORT" default:"8080"`
	APIKey   string `envconfig:"PKDEALS_API_KEY" default:""`

	LogLevel string `envconfig:"PKDEALS_LOG_LEVEL" default:"info"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	return &cfg, nil
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// EventsEnabled reports whether a Kafka broker is configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func compact(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
