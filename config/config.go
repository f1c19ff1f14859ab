// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/PaulFidika/vipbridge/core"
	"github.com/joho/godotenv"
)

// Store backends selectable with VIP_STORE.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Config holds all configuration for vipbridge.
type Config struct {
	DiscordToken   string
	GuildID        string
	VIPRoleID      string
	VerifiedRoleID string

	WebhookAPIKey     string
	WebhookAuthHeader string
	Port              int

	Store             string
	DataFile          string
	SQLitePath        string
	DatabaseURL       string
	RedisURL          string
	RedisKey          string
	UpdateOnDuplicate bool
	SerializeUpserts  bool

	GrantStages []core.Stage

	IngestPerMinute int
	GrantPerMinute  int

	LogLevel           string
	LogFormat          string
	MetricsRefreshSpec string
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// NeedsRedis reports whether any component uses REDIS_URL.
func (c *Config) NeedsRedis() bool {
	return c.Store == StoreRedis || c.RedisURL != ""
}

// Load reads configuration from environment variables.
// A .env file is loaded if present but not required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := envOrDefaultInt("PORT", 3000)
	if err != nil {
		return nil, err
	}
	updateOnDup, err := envOrDefaultBool("VIP_UPDATE_ON_DUPLICATE", false)
	if err != nil {
		return nil, err
	}
	serialize, err := envOrDefaultBool("VIP_SERIALIZE_UPSERTS", true)
	if err != nil {
		return nil, err
	}
	ingestRate, err := envOrDefaultInt("RATE_LIMIT_INGEST_PER_MINUTE", 0)
	if err != nil {
		return nil, err
	}
	grantRate, err := envOrDefaultInt("RATE_LIMIT_GRANT_PER_MINUTE", 0)
	if err != nil {
		return nil, err
	}
	stages, err := core.ParseStages(os.Getenv("VIP_GRANT_STAGES"))
	if err != nil {
		return nil, fmt.Errorf("VIP_GRANT_STAGES: %w", err)
	}

	cfg := &Config{
		DiscordToken:       strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		GuildID:            strings.TrimSpace(os.Getenv("GUILD_ID")),
		VIPRoleID:          strings.TrimSpace(os.Getenv("VIP_ROLE_ID")),
		VerifiedRoleID:     strings.TrimSpace(os.Getenv("VERIFIED_ROLE_ID")),
		WebhookAPIKey:      strings.TrimSpace(os.Getenv("VIP_WEBHOOK_API_KEY")),
		WebhookAuthHeader:  envOrDefault("VIP_WEBHOOK_AUTH_HEADER", "Authorization"),
		Port:               port,
		Store:              strings.ToLower(envOrDefault("VIP_STORE", StoreFile)),
		DataFile:           envOrDefault("VIP_DATA_FILE", "vipPlayers.json"),
		SQLitePath:         envOrDefault("VIP_SQLITE_PATH", "vip.db"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisKey:           envOrDefault("VIP_REDIS_KEY", "vip:entitlements"),
		UpdateOnDuplicate:  updateOnDup,
		SerializeUpserts:   serialize,
		GrantStages:        stages,
		IngestPerMinute:    ingestRate,
		GrantPerMinute:     grantRate,
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "text"),
		MetricsRefreshSpec: envOrDefault("METRICS_REFRESH_SPEC", "@every 1m"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_BOT_TOKEN")
	}
	if c.GuildID == "" {
		missing = append(missing, "GUILD_ID")
	}
	if c.VIPRoleID == "" {
		missing = append(missing, "VIP_ROLE_ID")
	}
	if c.VerifiedRoleID == "" && slices.Contains(c.GrantStages, core.StageVerified) {
		missing = append(missing, "VERIFIED_ROLE_ID")
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("VIP_STORE must be one of file, sqlite, postgres, redis, memory, got %q", c.Store)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.IngestPerMinute < 0 || c.GrantPerMinute < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
		}
		return n, nil
	}
	return fallback, nil
}

func envOrDefaultBool(key string, fallback bool) (bool, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		return b, nil
	}
	return fallback, nil
}
