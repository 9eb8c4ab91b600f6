package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/ZanKramar/polymarket-trading/internal/blob/s3"
	"github.com/ZanKramar/polymarket-trading/internal/cache"
	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/crypto"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
	"github.com/ZanKramar/polymarket-trading/internal/feed"
	"github.com/ZanKramar/polymarket-trading/internal/notify"
	"github.com/ZanKramar/polymarket-trading/internal/platform/polymarket"
	"github.com/ZanKramar/polymarket-trading/internal/store/file"
	redisstore "github.com/ZanKramar/polymarket-trading/internal/store/redis"
	"github.com/ZanKramar/polymarket-trading/internal/store/postgres"
)

// Dependencies bundles every collaborator the bot loop needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store    domain.SnapshotStore
	Gamma    *polymarket.GammaClient
	Clob     *polymarket.ClobClient
	Books    *cache.BookCache
	Listener *feed.Listener // nil unless the websocket feed is enabled
	Notifier *notify.Notifier
	S3Writer *s3blob.Writer // nil unless archival is enabled
}

// Wire constructs the concrete dependency implementations from cfg and
// returns them with a cleanup function that releases resources in reverse
// construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Ledger snapshot backend.
	switch cfg.Storage.Backend {
	case "file":
		deps.Store = file.New(cfg.Storage.PositionsPath, cfg.Storage.PaperTradesPath)
	case "redis":
		store, err := redisstore.New(ctx, redisstore.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		deps.Store = store
	case "postgres":
		store, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		deps.Store = store
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported storage backend %q", cfg.Storage.Backend)
	}

	// Polymarket API clients.
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost, logger)

	var auth *crypto.HMACAuth
	if cfg.Polymarket.ApiKey != "" {
		auth = &crypto.HMACAuth{
			Key:        cfg.Polymarket.ApiKey,
			Secret:     cfg.Polymarket.ApiSecret,
			Passphrase: cfg.Polymarket.ApiPassphrase,
		}
	}
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, cfg.Polymarket.Address, auth, logger)

	// Real-time book feed.
	deps.Books = cache.NewBookCache()
	if cfg.Bot.UseWebsocket {
		deps.Listener = feed.NewListener(cfg.Polymarket.WsHost, deps.Books, logger)
	}

	// Snapshot archival.
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.S3Writer = s3blob.NewWriter(s3Client)
	}

	deps.Notifier = notify.FromConfig(cfg.Notify, logger)

	return deps, cleanup, nil
}
