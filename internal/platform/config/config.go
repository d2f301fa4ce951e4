package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	LogLevel      string
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string
	EnableDBCheck bool
	RunMigrations bool
	JWTSecret     string
	JWTIssuer     string

	// Coordination and fan-out; empty URLs disable the integration
	RedisURL          string
	LockTTL           time.Duration
	LockWait          time.Duration
	NatsURL           string
	NatsSubjectPrefix string
	PosthogAPIKey     string
	PosthogEndpoint   string

	RateLimit          string `mapstructure:"RATE_LIMIT"`
	CORSAllowedOrigins []string
	FrontendBaseURL    string `mapstructure:"FRONTEND_BASE_URL"`

	SchedulerEnabled   bool
	SchedulerInterval  time.Duration
	UserCacheTTL       time.Duration
	MutationMaxRetries int
	JoinCodeMachineID  uint16
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", StoragePostgres)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("SQLITE_PATH", "rosca.db")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RUN_MIGRATIONS", true)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "rosca-app")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("LOCK_WAIT", "10s")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("NATS_SUBJECT_PREFIX", "rosca.groups")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SCHEDULER_INTERVAL", "1m")
	viper.SetDefault("USER_CACHE_TTL", "5m")
	viper.SetDefault("MUTATION_MAX_RETRIES", 3)
	viper.SetDefault("JOIN_CODE_MACHINE_ID", 1)

	// Values from .env can be overridden by actual environment variables.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.StorageDriver = strings.ToLower(viper.GetString("STORAGE_DRIVER"))
	switch cfg.StorageDriver {
	case StoragePostgres, StorageSQLite, StorageMemory:
	default:
		log.Printf("Warning: Unknown STORAGE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StorageDriver, StoragePostgres)
		cfg.StorageDriver = StoragePostgres
	}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" && cfg.StorageDriver == StoragePostgres {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	// Load JWT Secret
	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "rosca-app"
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", cfg.JWTIssuer)
	}

	cfg.LockTTL = durationOrDefault("LOCK_TTL", 30*time.Second)
	cfg.LockWait = durationOrDefault("LOCK_WAIT", 10*time.Second)
	cfg.SchedulerInterval = durationOrDefault("SCHEDULER_INTERVAL", time.Minute)
	cfg.UserCacheTTL = durationOrDefault("USER_CACHE_TTL", 5*time.Minute)

	cfg.MutationMaxRetries = viper.GetInt("MUTATION_MAX_RETRIES")
	if cfg.MutationMaxRetries < 1 {
		log.Printf("Warning: Invalid value for MUTATION_MAX_RETRIES (%d). Defaulting to 3.\n", cfg.MutationMaxRetries)
		cfg.MutationMaxRetries = 3
	}

	machineID := viper.GetInt("JOIN_CODE_MACHINE_ID")
	if machineID < 0 || machineID > 0xFFFF {
		log.Printf("Warning: Invalid value for JOIN_CODE_MACHINE_ID (%d). Defaulting to 1.\n", machineID)
		machineID = 1
	}
	cfg.JoinCodeMachineID = uint16(machineID)

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.LogLevel = viper.GetString("LOG_LEVEL")
	cfg.SQLitePath = viper.GetString("SQLITE_PATH")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RunMigrations = viper.GetBool("RUN_MIGRATIONS")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.NatsURL = viper.GetString("NATS_URL")
	cfg.NatsSubjectPrefix = viper.GetString("NATS_SUBJECT_PREFIX")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")
	cfg.SchedulerEnabled = viper.GetBool("SCHEDULER_ENABLED")

	return cfg, nil
}

// durationOrDefault parses key as a duration and falls back to def with a warning.
func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}
