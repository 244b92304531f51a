package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SIBYL_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SIBYL_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "SIBYL_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SIBYL_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SIBYL_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SIBYL_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "SIBYL_SERVER_RATE_LIMIT_WINDOW")

	// ── Database ──
	setStr(&cfg.Database.DSN, "SIBYL_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "SIBYL_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "SIBYL_DATABASE_HOST")
	setInt(&cfg.Database.Port, "SIBYL_DATABASE_PORT")
	setStr(&cfg.Database.Database, "SIBYL_DATABASE_NAME")
	setStr(&cfg.Database.User, "SIBYL_DATABASE_USER")
	setStr(&cfg.Database.Password, "SIBYL_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "SIBYL_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "SIBYL_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "SIBYL_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "SIBYL_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SIBYL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SIBYL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SIBYL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SIBYL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SIBYL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SIBYL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "SIBYL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SIBYL_S3_REGION")
	setStr(&cfg.S3.Bucket, "SIBYL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SIBYL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SIBYL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SIBYL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SIBYL_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "SIBYL_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "SIBYL_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "SIBYL_ARCHIVE_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SIBYL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SIBYL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SIBYL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SIBYL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Storage, "SIBYL_STORAGE")
	setStr(&cfg.LogLevel, "SIBYL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
