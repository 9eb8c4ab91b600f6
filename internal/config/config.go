// Package config defines the top-level configuration for the trading bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYTRADER_* environment
// variables.
type Config struct {
	Bot        BotConfig        `toml:"bot"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Storage    StorageConfig    `toml:"storage"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Archive    ArchiveConfig    `toml:"archive"`
	Notify     NotifyConfig     `toml:"notify"`
	Strategy   StrategyConfig   `toml:"strategy"`
	LogLevel   string           `toml:"log_level"`
}

// BotConfig holds the orchestration loop parameters.
type BotConfig struct {
	// DryRun selects paper trading; when false, trades are submitted to the
	// CLOB for real.
	DryRun bool `toml:"dry_run"`

	// MarketMode selects market discovery: "scan" paginates the full active
	// market list, "btc15m" looks up the 15-minute BTC up/down slug windows.
	MarketMode string `toml:"market_mode"`

	CheckInterval duration `toml:"check_interval"`
	FetchLimit    int      `toml:"fetch_limit"`     // markets per Gamma page
	MaxMarkets    int      `toml:"max_markets"`     // cap on total markets per cycle
	WindowCount   int      `toml:"window_count"`    // future 15-min windows to fetch
	DedupTTL      duration `toml:"dedup_ttl"`       // duplicate-intent suppression window
	UseWebsocket  bool     `toml:"use_websocket"`   // enable the real-time book feed
}

// PolymarketConfig holds API endpoints and the CLOB API credential blob.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
	WsHost    string `toml:"ws_host"`

	Address       string `toml:"address"`
	ApiKey        string `toml:"api_key"`
	ApiSecret     string `toml:"api_secret"`
	ApiPassphrase string `toml:"api_passphrase"`
}

// StorageConfig selects the ledger snapshot backend.
type StorageConfig struct {
	// Backend is one of "file", "redis", "postgres".
	Backend         string `toml:"backend"`
	PositionsPath   string `toml:"positions_path"`
	PaperTradesPath string `toml:"paper_trades_path"`
}

// RedisConfig holds Redis connection parameters for the redis storage backend.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the postgres
// storage backend.
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`
	MaxConns int    `toml:"max_conns"`
}

// ArchiveConfig holds S3-compatible snapshot archival parameters.
type ArchiveConfig struct {
	Enabled        bool     `toml:"enabled"`
	Interval       duration `toml:"interval"`
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	ForcePathStyle bool     `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// StrategyConfig groups per-strategy parameter blocks.
type StrategyConfig struct {
	Arbitrage      ArbitrageConfig      `toml:"arbitrage"`
	MeanReversion  MeanReversionConfig  `toml:"mean_reversion"`
	Balanced       BalancedConfig       `toml:"balanced"`
	Momentum       MomentumConfig       `toml:"momentum"`
	VolumeSpike    VolumeSpikeConfig    `toml:"volume_spike"`
	TimeBased      TimeBasedConfig      `toml:"time_based"`
	HighConfidence HighConfidenceConfig `toml:"high_confidence"`
}

// ArbitrageConfig tunes the price-sum arbitrage strategy.
type ArbitrageConfig struct {
	Enabled            bool    `toml:"enabled"`
	SharesPerTrade     int     `toml:"shares_per_trade"`
	DeviationThreshold float64 `toml:"deviation_threshold"`
}

// MeanReversionConfig tunes the extreme-price fading strategy.
type MeanReversionConfig struct {
	Enabled          bool    `toml:"enabled"`
	SharesPerTrade   int     `toml:"shares_per_trade"`
	ExtremeThreshold float64 `toml:"extreme_threshold"`
}

// BalancedConfig tunes the buy-the-underdog contrarian strategy.
type BalancedConfig struct {
	Enabled        bool    `toml:"enabled"`
	SharesPerTrade int     `toml:"shares_per_trade"`
	MinEdge        float64 `toml:"min_edge"`
}

// MomentumConfig tunes the price-momentum strategy.
type MomentumConfig struct {
	Enabled           bool    `toml:"enabled"`
	SharesPerTrade    int     `toml:"shares_per_trade"`
	MomentumThreshold float64 `toml:"momentum_threshold"`
}

// VolumeSpikeConfig tunes the high-volume imbalance strategy.
type VolumeSpikeConfig struct {
	Enabled         bool    `toml:"enabled"`
	SharesPerTrade  int     `toml:"shares_per_trade"`
	VolumeThreshold float64 `toml:"volume_threshold"`
	MinImbalance    float64 `toml:"min_imbalance"`
}

// TimeBasedConfig tunes the near-close strategy.
type TimeBasedConfig struct {
	Enabled            bool    `toml:"enabled"`
	SharesPerTrade     int     `toml:"shares_per_trade"`
	MinutesBeforeClose float64 `toml:"minutes_before_close"`
	MinEdge            float64 `toml:"min_edge"`
}

// HighConfidenceConfig tunes the high-confidence-near-close strategy.
type HighConfidenceConfig struct {
	Enabled             bool    `toml:"enabled"`
	SharesPerTrade      int     `toml:"shares_per_trade"`
	HoursUntilClose     float64 `toml:"hours_until_close"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MinVolume           float64 `toml:"min_volume"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "30s" or "5m".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Bot: BotConfig{
			DryRun:        true,
			MarketMode:    "btc15m",
			CheckInterval: duration{30 * time.Second},
			FetchLimit:    100,
			MaxMarkets:    2000,
			WindowCount:   4,
			DedupTTL:      duration{time.Hour},
			UseWebsocket:  true,
		},
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			ClobHost:  "https://clob.polymarket.com",
			WsHost:    "wss://ws-subscriptions-clob.polymarket.com/ws/market",
		},
		Storage: StorageConfig{
			Backend:         "file",
			PositionsPath:   "positions.json",
			PaperTradesPath: "paper_trades.json",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "polytrader",
			User:     "postgres",
			SSLMode:  "disable",
			MaxConns: 5,
		},
		Archive: ArchiveConfig{
			Enabled:        false,
			Interval:       duration{1 * time.Hour},
			Region:         "us-east-1",
			Bucket:         "polytrader-snapshots",
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"trade_executed", "trade_resolved", "cycle_error"},
		},
		Strategy: StrategyConfig{
			Arbitrage: ArbitrageConfig{
				Enabled:            true,
				SharesPerTrade:     10,
				DeviationThreshold: 0.01,
			},
			MeanReversion: MeanReversionConfig{
				Enabled:          true,
				SharesPerTrade:   10,
				ExtremeThreshold: 0.55,
			},
			Balanced: BalancedConfig{
				Enabled:        true,
				SharesPerTrade: 10,
				MinEdge:        0.02,
			},
			Momentum: MomentumConfig{
				Enabled:           true,
				SharesPerTrade:    10,
				MomentumThreshold: 0.03,
			},
			VolumeSpike: VolumeSpikeConfig{
				Enabled:         true,
				SharesPerTrade:  10,
				VolumeThreshold: 2000.0,
				MinImbalance:    0.03,
			},
			TimeBased: TimeBasedConfig{
				Enabled:            true,
				SharesPerTrade:     15,
				MinutesBeforeClose: 5.0,
				MinEdge:            0.01,
			},
			HighConfidence: HighConfidenceConfig{
				Enabled:             false,
				SharesPerTrade:      1,
				HoursUntilClose:     1.0,
				ConfidenceThreshold: 0.85,
				MinVolume:           100.0,
			},
		},
		LogLevel: "info",
	}
}

// validMarketModes enumerates the accepted values for Bot.MarketMode.
var validMarketModes = map[string]bool{
	"scan":   true,
	"btc15m": true,
}

// validBackends enumerates the accepted values for Storage.Backend.
var validBackends = map[string]bool{
	"file":     true,
	"redis":    true,
	"postgres": true,
}

// validLogLevels enumerates the accepted values for LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validMarketModes[strings.ToLower(c.Bot.MarketMode)] {
		errs = append(errs, fmt.Sprintf("bot: unknown market_mode %q (valid: scan, btc15m)", c.Bot.MarketMode))
	}
	if c.Bot.CheckInterval.Duration <= 0 {
		errs = append(errs, "bot: check_interval must be positive")
	}
	if c.Bot.FetchLimit < 1 || c.Bot.FetchLimit > 100 {
		errs = append(errs, fmt.Sprintf("bot: fetch_limit must be 1-100, got %d", c.Bot.FetchLimit))
	}
	if c.Bot.WindowCount < 1 {
		errs = append(errs, "bot: window_count must be >= 1")
	}
	if c.Bot.DedupTTL.Duration <= 0 {
		errs = append(errs, "bot: dedup_ttl must be positive")
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	// Live trading requires the CLOB credential blob.
	if !c.Bot.DryRun {
		if c.Polymarket.ClobHost == "" {
			errs = append(errs, "polymarket: clob_host is required for live trading")
		}
		ak := c.Polymarket.ApiKey != ""
		as := c.Polymarket.ApiSecret != ""
		ap := c.Polymarket.ApiPassphrase != ""
		if !(ak && as && ap) {
			errs = append(errs, "polymarket: api_key, api_secret, and api_passphrase must all be set for live trading")
		}
		if c.Polymarket.Address == "" {
			errs = append(errs, "polymarket: address is required for live trading")
		}
	}

	backend := strings.ToLower(c.Storage.Backend)
	if !validBackends[backend] {
		errs = append(errs, fmt.Sprintf("storage: unknown backend %q (valid: file, redis, postgres)", c.Storage.Backend))
	}
	if backend == "file" {
		if c.Storage.PositionsPath == "" {
			errs = append(errs, "storage: positions_path must not be empty for the file backend")
		}
		if c.Storage.PaperTradesPath == "" {
			errs = append(errs, "storage: paper_trades_path must not be empty for the file backend")
		}
	}
	if backend == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty for the redis backend")
	}
	if backend == "postgres" && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
	}

	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			errs = append(errs, "archive: bucket must not be empty when enabled")
		}
		if c.Archive.Region == "" {
			errs = append(errs, "archive: region must not be empty when enabled")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be positive when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// EnabledStrategies returns the names of all strategies switched on in this
// config, in registration order.
func (c *Config) EnabledStrategies() []string {
	var names []string
	if c.Strategy.Arbitrage.Enabled {
		names = append(names, "price_arbitrage")
	}
	if c.Strategy.MeanReversion.Enabled {
		names = append(names, "mean_reversion")
	}
	if c.Strategy.Balanced.Enabled {
		names = append(names, "balanced")
	}
	if c.Strategy.Momentum.Enabled {
		names = append(names, "momentum")
	}
	if c.Strategy.VolumeSpike.Enabled {
		names = append(names, "volume_spike")
	}
	if c.Strategy.TimeBased.Enabled {
		names = append(names, "time_based")
	}
	if c.Strategy.HighConfidence.Enabled {
		names = append(names, "high_confidence")
	}
	return names
}
