// Package app owns the application lifecycle. It wires the storage backend,
// API clients, book feed, notifier, and archiver together, builds the
// ledgers and strategy registry, and runs everything until the context is
// cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/ZanKramar/polymarket-trading/internal/blob/s3"
	"github.com/ZanKramar/polymarket-trading/internal/bot"
	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/ledger"
	"github.com/ZanKramar/polymarket-trading/internal/strategy"
)

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the bot loop plus any optional
// goroutines (book feed, archiver), and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Bool("dry_run", a.cfg.Bot.DryRun),
		slog.String("storage_backend", a.cfg.Storage.Backend),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	positions := ledger.NewPositionLedger(ctx, deps.Store, a.logger)
	papers := ledger.NewPaperTradeLedger(ctx, deps.Store, a.logger)

	registry := strategy.FromConfig(a.cfg.Strategy)
	if len(registry.Names()) == 0 {
		return errors.New("app: no strategies enabled")
	}

	opts := bot.Options{
		Books:    deps.Books,
		Notifier: deps.Notifier,
	}
	if deps.Listener != nil {
		opts.Watcher = deps.Listener
	}

	trader := bot.New(a.cfg.Bot, deps.Gamma, deps.Clob, deps.Gamma,
		registry, positions, papers, opts, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return trader.Run(ctx)
	})
	if deps.Listener != nil {
		g.Go(func() error {
			return deps.Listener.Run(ctx)
		})
	}
	if deps.S3Writer != nil {
		archiver := s3blob.NewArchiver(deps.S3Writer, positions, papers,
			a.cfg.Archive.Interval.Duration, a.logger)
		g.Go(func() error {
			return archiver.Run(ctx)
		})
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to
// call multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
