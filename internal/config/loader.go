package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYTRADER_* environment variable overrides,
// and returns the final Config. A missing config file is not an error; the
// defaults plus environment overrides are used instead. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYTRADER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Bot ──
	setBool(&cfg.Bot.DryRun, "POLYTRADER_DRY_RUN")
	setStr(&cfg.Bot.MarketMode, "POLYTRADER_MARKET_MODE")
	setDuration(&cfg.Bot.CheckInterval, "POLYTRADER_CHECK_INTERVAL")
	setInt(&cfg.Bot.FetchLimit, "POLYTRADER_FETCH_LIMIT")
	setInt(&cfg.Bot.MaxMarkets, "POLYTRADER_MAX_MARKETS")
	setInt(&cfg.Bot.WindowCount, "POLYTRADER_WINDOW_COUNT")
	setDuration(&cfg.Bot.DedupTTL, "POLYTRADER_DEDUP_TTL")
	setBool(&cfg.Bot.UseWebsocket, "POLYTRADER_USE_WEBSOCKET")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYTRADER_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYTRADER_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "POLYTRADER_WS_HOST")
	setStr(&cfg.Polymarket.Address, "POLYTRADER_ADDRESS")
	setStr(&cfg.Polymarket.ApiKey, "POLYTRADER_API_KEY")
	setStr(&cfg.Polymarket.ApiSecret, "POLYTRADER_API_SECRET")
	setStr(&cfg.Polymarket.ApiPassphrase, "POLYTRADER_API_PASSPHRASE")

	// ── Storage ──
	setStr(&cfg.Storage.Backend, "POLYTRADER_STORAGE_BACKEND")
	setStr(&cfg.Storage.PositionsPath, "POLYTRADER_POSITIONS_PATH")
	setStr(&cfg.Storage.PaperTradesPath, "POLYTRADER_PAPER_TRADES_PATH")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLYTRADER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYTRADER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYTRADER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYTRADER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYTRADER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYTRADER_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "POLYTRADER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYTRADER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYTRADER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYTRADER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYTRADER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYTRADER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYTRADER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.MaxConns, "POLYTRADER_POSTGRES_MAX_CONNS")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "POLYTRADER_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "POLYTRADER_ARCHIVE_INTERVAL")
	setStr(&cfg.Archive.Endpoint, "POLYTRADER_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "POLYTRADER_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "POLYTRADER_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "POLYTRADER_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "POLYTRADER_ARCHIVE_SECRET_KEY")
	setBool(&cfg.Archive.ForcePathStyle, "POLYTRADER_ARCHIVE_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYTRADER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYTRADER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYTRADER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYTRADER_NOTIFY_EVENTS")

	// ── Strategies ──
	setBool(&cfg.Strategy.Arbitrage.Enabled, "POLYTRADER_STRATEGY_ARBITRAGE_ENABLED")
	setBool(&cfg.Strategy.MeanReversion.Enabled, "POLYTRADER_STRATEGY_MEAN_REVERSION_ENABLED")
	setBool(&cfg.Strategy.Balanced.Enabled, "POLYTRADER_STRATEGY_BALANCED_ENABLED")
	setBool(&cfg.Strategy.Momentum.Enabled, "POLYTRADER_STRATEGY_MOMENTUM_ENABLED")
	setBool(&cfg.Strategy.VolumeSpike.Enabled, "POLYTRADER_STRATEGY_VOLUME_SPIKE_ENABLED")
	setBool(&cfg.Strategy.TimeBased.Enabled, "POLYTRADER_STRATEGY_TIME_BASED_ENABLED")
	setBool(&cfg.Strategy.HighConfidence.Enabled, "POLYTRADER_STRATEGY_HIGH_CONFIDENCE_ENABLED")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "POLYTRADER_LOG_LEVEL")
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
