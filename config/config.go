package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// HTTP server, Postgres (instrument master data), Redis (snapshot cache backing store),
// cache TTLs, the upstream quote provider and the market session.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=stockpulse
//	REDIS_ADDR=localhost:6379
//	QUOTE_PROVIDER=finnhub
//	FINNHUB_API_KEY=xxxx
//	MARKET_TIMEZONE=America/New_York
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
	Redis    RedisConfig    // Redis connection settings (optional)
	Cache    CacheConfig    // Snapshot cache TTLs
	Quotes   QuotesConfig   // Upstream quote provider
	Market   MarketConfig   // Trading session and index feature flag
	Warmer   WarmerConfig   // Scheduled cache warming
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RequestTimeout time.Duration // Per-request deadline; must exceed the quote batch timeout
	RateLimit      int           // Requests per minute allowed per client IP
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// RedisConfig points the snapshot cache at a Redis server. An empty Addr keeps
// the cache in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig holds the TTL of each snapshot key family.
type CacheConfig struct {
	PricesTTL   time.Duration
	TrendingTTL time.Duration
	IndicesTTL  time.Duration
	ProfileTTL  time.Duration
}

// QuotesConfig selects and tunes the upstream quote provider.
type QuotesConfig struct {
	Provider          string // "finnhub" or "yahoo"
	FinnhubAPIKey     string
	FinnhubBaseURL    string
	RatePerSec        float64
	Burst             int
	Concurrency       int
	BatchTimeout      time.Duration
	RequestTimeout    time.Duration
	ProfileEnrichment bool
}

// MarketConfig describes the trading session used by the market status clock.
type MarketConfig struct {
	Timezone       string
	Open           string // HH:MM
	Close          string // HH:MM
	Holidays       []string
	IndicesEnabled bool // paid tier: fetch index quotes on indices cache miss
}

// WarmerConfig holds the cron schedule of the cache warmer. Empty disables it.
type WarmerConfig struct {
	Schedule string
}

const (
	ProviderFinnhub = "finnhub"
	ProviderYahoo   = "yahoo"
)

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or malformed, validateConfig() terminates the app
//     with a descriptive log message.
func LoadConfig() {
	setDefaults()

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
			RateLimit:      viper.GetInt("SERVER_RATE_LIMIT_PER_MIN"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			PricesTTL:   viper.GetDuration("CACHE_PRICES_TTL"),
			TrendingTTL: viper.GetDuration("CACHE_TRENDING_TTL"),
			IndicesTTL:  viper.GetDuration("CACHE_INDICES_TTL"),
			ProfileTTL:  viper.GetDuration("CACHE_PROFILE_TTL"),
		},
		Quotes: QuotesConfig{
			Provider:          strings.ToLower(strings.TrimSpace(viper.GetString("QUOTE_PROVIDER"))),
			FinnhubAPIKey:     viper.GetString("FINNHUB_API_KEY"),
			FinnhubBaseURL:    viper.GetString("FINNHUB_BASE_URL"),
			RatePerSec:        viper.GetFloat64("QUOTE_RATE_PER_SEC"),
			Burst:             viper.GetInt("QUOTE_BURST"),
			Concurrency:       viper.GetInt("QUOTE_CONCURRENCY"),
			BatchTimeout:      viper.GetDuration("QUOTE_BATCH_TIMEOUT"),
			RequestTimeout:    viper.GetDuration("QUOTE_REQUEST_TIMEOUT"),
			ProfileEnrichment: viper.GetBool("PROFILE_ENRICHMENT"),
		},
		Market: MarketConfig{
			Timezone:       viper.GetString("MARKET_TIMEZONE"),
			Open:           viper.GetString("MARKET_OPEN"),
			Close:          viper.GetString("MARKET_CLOSE"),
			Holidays:       splitList(viper.GetString("MARKET_HOLIDAYS")),
			IndicesEnabled: viper.GetBool("MARKET_INDICES_ENABLED"),
		},
		Warmer: WarmerConfig{
			Schedule: viper.GetString("WARMER_SCHEDULE"),
		},
	}

	AppConfig.Postgres.URL = AppConfig.Postgres.DSN()

	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "70s")
	viper.SetDefault("SERVER_RATE_LIMIT_PER_MIN", 60)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "stockpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("CACHE_PRICES_TTL", "1m")
	viper.SetDefault("CACHE_TRENDING_TTL", "5m")
	viper.SetDefault("CACHE_INDICES_TTL", "5m")
	viper.SetDefault("CACHE_PROFILE_TTL", "24h")

	viper.SetDefault("QUOTE_PROVIDER", ProviderFinnhub)
	viper.SetDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1")
	viper.SetDefault("QUOTE_RATE_PER_SEC", 1.0)
	viper.SetDefault("QUOTE_BURST", 5)
	viper.SetDefault("QUOTE_CONCURRENCY", 4)
	viper.SetDefault("QUOTE_BATCH_TIMEOUT", "60s")
	viper.SetDefault("QUOTE_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("PROFILE_ENRICHMENT", true)

	viper.SetDefault("MARKET_TIMEZONE", "Local")
	viper.SetDefault("MARKET_OPEN", "09:15")
	viper.SetDefault("MARKET_CLOSE", "15:30")
	viper.SetDefault("MARKET_HOLIDAYS", "")
	viper.SetDefault("MARKET_INDICES_ENABLED", false)

	viper.SetDefault("WARMER_SCHEDULE", "")
}

// DSN builds the PostgreSQL connection string used by database/sql.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// Location resolves the configured market timezone.
func (m MarketConfig) Location() (*time.Location, error) {
	if m.Timezone == "" || strings.EqualFold(m.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(m.Timezone)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Problems returns a description of every missing or malformed setting.
func (c Config) Problems() []string {
	var problems []string

	if c.Server.Port == "" {
		problems = append(problems, "SERVER_PORT")
	}
	if c.Postgres.Host == "" {
		problems = append(problems, "POSTGRES_HOST")
	}
	if c.Postgres.Port == 0 {
		problems = append(problems, "POSTGRES_PORT")
	}
	if c.Postgres.User == "" {
		problems = append(problems, "POSTGRES_USER")
	}
	if c.Postgres.Password == "" {
		problems = append(problems, "POSTGRES_PASSWORD")
	}
	if c.Postgres.DBName == "" {
		problems = append(problems, "POSTGRES_DB")
	}

	switch c.Quotes.Provider {
	case ProviderFinnhub:
		if c.Quotes.FinnhubAPIKey == "" {
			problems = append(problems, "FINNHUB_API_KEY")
		}
	case ProviderYahoo:
	default:
		problems = append(problems, fmt.Sprintf("QUOTE_PROVIDER (unknown %q)", c.Quotes.Provider))
	}
	if c.Quotes.RatePerSec <= 0 {
		problems = append(problems, "QUOTE_RATE_PER_SEC")
	}
	if c.Quotes.BatchTimeout <= 0 {
		problems = append(problems, "QUOTE_BATCH_TIMEOUT")
	}

	if _, err := c.Market.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("MARKET_TIMEZONE (%v)", err))
	}
	for _, key := range []struct{ name, val string }{{"MARKET_OPEN", c.Market.Open}, {"MARKET_CLOSE", c.Market.Close}} {
		if _, err := time.Parse("15:04", key.val); err != nil {
			problems = append(problems, key.name)
		}
	}
	for _, h := range c.Market.Holidays {
		if _, err := time.Parse(time.DateOnly, h); err != nil {
			problems = append(problems, fmt.Sprintf("MARKET_HOLIDAYS (%q)", h))
		}
	}

	return problems
}

// validateConfig terminates the application when AppConfig is incomplete or malformed.
func validateConfig() {
	if problems := AppConfig.Problems(); len(problems) > 0 {
		log.Fatalf("❌ Missing or invalid configuration: %v\n", problems)
	}
}
