package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL string
	Store       string

	// Pool sizing; zero keeps the pgxpool defaults.
	DBMaxConns       int32
	DBMinConns       int32
	DBConnectTimeout time.Duration

	MigrationsPath string
	LogLevel       string
	DefaultActor   string

	// Redis backs payment idempotency and the ledger event channel.
	// Both fall back to in-process implementations when RedisAddr is empty.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	IdempotencyTTL time.Duration
	EventsChannel  string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("STORE", StorePostgres)
	viper.SetDefault("DB_MAX_CONNS", 0)
	viper.SetDefault("DB_MIN_CONNS", 0)
	viper.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DEFAULT_ACTOR", "ledgerctl")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("EVENTS_CHANNEL", "ledger_events")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.Store = strings.ToLower(viper.GetString("STORE"))
	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		log.Printf("Warning: Invalid value for STORE ('%s'). Defaulting to %s.\n", cfg.Store, StorePostgres)
		cfg.Store = StorePostgres
	}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" && cfg.Store == StorePostgres {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	ttlStr := viper.GetString("IDEMPOTENCY_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
		log.Printf("Warning: Invalid value for IDEMPOTENCY_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl.String())
	}

	cfg.DBMaxConns = viper.GetInt32("DB_MAX_CONNS")
	cfg.DBMinConns = viper.GetInt32("DB_MIN_CONNS")
	cfg.DBConnectTimeout = viper.GetDuration("DB_CONNECT_TIMEOUT")

	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")
	cfg.LogLevel = viper.GetString("LOG_LEVEL")
	cfg.DefaultActor = viper.GetString("DEFAULT_ACTOR")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.IdempotencyTTL = ttl
	cfg.EventsChannel = viper.GetString("EVENTS_CHANNEL")

	return cfg, nil
}
