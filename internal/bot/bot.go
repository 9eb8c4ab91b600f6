// Package bot drives the trading cycle: fetch market snapshots, run each
// enabled strategy against them, validate the resulting trade intents against
// ledger state, dispatch to paper or live execution, and report. One logical
// thread owns the loop and is the only mutator of the ledgers.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
	"github.com/ZanKramar/polymarket-trading/internal/executor"
	"github.com/ZanKramar/polymarket-trading/internal/ledger"
	"github.com/ZanKramar/polymarket-trading/internal/notify"
	"github.com/ZanKramar/polymarket-trading/internal/platform/polymarket"
	"github.com/ZanKramar/polymarket-trading/internal/strategy"
)

// MarketSource supplies tradeable market snapshots. Implementations never
// fail the caller: a transport problem reads as an empty batch.
type MarketSource interface {
	FetchActiveMarkets(ctx context.Context, limit, maxTotal int) []domain.Market
	FetchWindowMarkets(ctx context.Context, count int) ([]domain.Market, map[string]domain.TokenRef)
}

// TradeSubmitter executes live trades. It reports success or failure and
// never raises to the caller.
type TradeSubmitter interface {
	SubmitTrade(ctx context.Context, intent domain.TradeIntent) bool
}

// ResolutionSource reports whether a market has settled and which side won.
type ResolutionSource interface {
	GetMarketResolution(ctx context.Context, marketID string) (polymarket.MarketResolution, error)
}

// BookWatcher registers outcome tokens for real-time book streaming.
type BookWatcher interface {
	Watch(tokens map[string]domain.TokenRef)
}

// Bot is the strategy orchestrator. Construct with New, then call Run.
type Bot struct {
	cfg       config.BotConfig
	source    MarketSource
	submitter TradeSubmitter
	resolver  ResolutionSource

	registry  *strategy.Registry
	positions *ledger.PositionLedger
	papers    *ledger.PaperTradeLedger
	dedup     *executor.Dedup

	books    domain.BookCache // optional enrichment, may be nil
	watcher  BookWatcher      // optional, may be nil
	notifier *notify.Notifier // optional, may be nil

	log *slog.Logger
}

// Options carries the optional collaborators.
type Options struct {
	Books    domain.BookCache
	Watcher  BookWatcher
	Notifier *notify.Notifier
}

// New assembles a Bot. source, submitter, resolver, registry, and both
// ledgers are required; opts members may be nil.
func New(
	cfg config.BotConfig,
	source MarketSource,
	submitter TradeSubmitter,
	resolver ResolutionSource,
	registry *strategy.Registry,
	positions *ledger.PositionLedger,
	papers *ledger.PaperTradeLedger,
	opts Options,
	log *slog.Logger,
) *Bot {
	return &Bot{
		cfg:       cfg,
		source:    source,
		submitter: submitter,
		resolver:  resolver,
		registry:  registry,
		positions: positions,
		papers:    papers,
		dedup:     executor.NewDedup(cfg.DedupTTL.Duration),
		books:     opts.Books,
		watcher:   opts.Watcher,
		notifier:  opts.Notifier,
		log:       log.With("component", "bot"),
	}
}

// Run executes trading cycles at the configured interval until ctx is
// cancelled. Panics and errors inside a cycle are logged and the loop
// continues; only cancellation ends it, with a best-effort final flush and
// report on the way out.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot starting",
		"dry_run", b.cfg.DryRun,
		"market_mode", b.cfg.MarketMode,
		"interval", b.cfg.CheckInterval.Duration,
		"strategies", b.registry.Names())

	ticker := time.NewTicker(b.cfg.CheckInterval.Duration)
	defer ticker.Stop()

	for {
		b.safeCycle(ctx)

		select {
		case <-ctx.Done():
			b.shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// safeCycle runs one cycle with panic containment so a bad cycle never takes
// the process down.
func (b *Bot) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("cycle panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			b.alert(ctx, notify.EventCycleError, "Cycle error", fmt.Sprint(r))
		}
	}()
	b.cycle(ctx)
}

// cycle is one pass of the fetch -> strategize -> validate -> dispatch ->
// report state machine.
func (b *Bot) cycle(ctx context.Context) {
	start := time.Now()
	b.dedup.Cleanup()

	markets := b.fetch(ctx)
	b.resolvePending(ctx)

	if len(markets) == 0 {
		b.log.Info("no tradeable markets this cycle")
		return
	}
	b.enrich(markets)

	executed := 0
	for _, strat := range b.registry.All() {
		signals := b.analyze(ctx, strat, markets)
		for _, sig := range signals {
			if b.execute(ctx, strat.Name(), sig) {
				executed++
			}
		}
	}

	b.report(executed, len(markets), time.Since(start))
}

// fetch obtains this cycle's market snapshots and, in window mode, points
// the book feed at the markets' outcome tokens.
func (b *Bot) fetch(ctx context.Context) []domain.Market {
	switch b.cfg.MarketMode {
	case "btc15m":
		markets, tokens := b.source.FetchWindowMarkets(ctx, b.cfg.WindowCount)
		if b.watcher != nil && len(tokens) > 0 {
			b.watcher.Watch(tokens)
		}
		return markets
	default:
		return b.source.FetchActiveMarkets(ctx, b.cfg.FetchLimit, b.cfg.MaxMarkets)
	}
}

// enrich merges cached real-time orderbooks into the snapshots by market ID.
// Best effort: markets without book data are left as-is.
func (b *Bot) enrich(markets []domain.Market) {
	if b.books == nil {
		return
	}
	for i := range markets {
		if book, ok := b.books.Get(markets[i].ID); ok {
			markets[i].Book = &book
		}
	}
}

// analyze invokes one strategy with its own positions only. A strategy that
// panics or errors is logged and skipped; the remaining strategies still run.
func (b *Bot) analyze(ctx context.Context, strat strategy.Strategy, markets []domain.Market) (signals []domain.Signal) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("strategy panicked",
				"strategy", strat.Name(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			signals = nil
		}
	}()

	own := b.positions.ListByStrategy(strat.Name())
	signals, err := strat.Analyze(ctx, markets, own)
	if err != nil {
		b.log.Error("strategy failed", "strategy", strat.Name(), "error", err)
		return nil
	}
	if len(signals) > 0 {
		b.log.Info("strategy produced signals", "strategy", strat.Name(), "count", len(signals))
	}
	return signals
}

// execute validates one intent against ledger state and dispatches it.
// Returns true when a ledger mutation happened.
func (b *Bot) execute(ctx context.Context, strategyName string, sig domain.Signal) bool {
	intent := sig.Intent

	// Key computed before any clamp so the retry check and the mark after a
	// successful trade refer to the same triple.
	dedupKey := intent.Key()
	if b.dedup.Seen(dedupKey) {
		b.log.Info("duplicate intent suppressed",
			"strategy", strategyName,
			"key", dedupKey)
		return false
	}

	existing, hasPosition := b.positions.Get(strategyName, intent.MarketID, intent.Side)

	switch intent.Action {
	case domain.ActionBuy:
		if hasPosition {
			b.log.Info("buy skipped, position already open",
				"strategy", strategyName,
				"key", existing.Key())
			return false
		}
	case domain.ActionSell:
		if !hasPosition {
			b.log.Warn("sell skipped, no position",
				"strategy", strategyName,
				"market_id", intent.MarketID,
				"side", intent.Side)
			return false
		}
		if intent.Amount > existing.Shares {
			b.log.Info("sell clamped to position size",
				"strategy", strategyName,
				"requested", intent.Amount,
				"held", existing.Shares)
			intent.Amount = existing.Shares
		}
	default:
		b.log.Warn("unknown action on intent", "action", intent.Action)
		return false
	}

	sharesDelta := intent.Amount
	if intent.Action == domain.ActionSell {
		sharesDelta = -intent.Amount
	}

	if b.cfg.DryRun {
		b.papers.Record(ctx, intent, sig.Market.CloseTime, sig.Market.Volume)
	} else {
		if !b.submitter.SubmitTrade(ctx, intent) {
			b.log.Error("live trade failed, ledgers unchanged",
				"strategy", strategyName,
				"market_id", intent.MarketID)
			return false
		}
	}

	b.positions.Upsert(ctx, strategyName, intent.MarketID, intent.Question,
		intent.Side, sharesDelta, intent.Price, sig.Market.CloseTime)

	// Suppression starts only once a trade actually lands; skipped or failed
	// intents stay retryable.
	b.dedup.Mark(dedupKey)

	b.alert(ctx, notify.EventTradeExecuted, "Trade executed",
		fmt.Sprintf("%s %s %d %s @ %.3f (%s)",
			strategyName, intent.Action, intent.Amount, intent.Side, intent.Price, intent.Reason))
	return true
}

// resolvePending settles paper trades whose markets have closed. Lookup
// failures are logged per market and retried next cycle.
func (b *Bot) resolvePending(ctx context.Context) {
	pending := b.papers.Pending()
	if len(pending) == 0 {
		return
	}

	now := time.Now()
	checked := make(map[string]polymarket.MarketResolution)

	for _, trade := range pending {
		if trade.MarketClose.IsZero() || trade.MarketClose.After(now) {
			continue
		}

		res, seen := checked[trade.MarketID]
		if !seen {
			var err error
			res, err = b.resolver.GetMarketResolution(ctx, trade.MarketID)
			if err != nil {
				b.log.Warn("resolution lookup failed",
					"market_id", trade.MarketID,
					"error", err)
				continue
			}
			checked[trade.MarketID] = res
		}
		if !res.Closed {
			continue
		}

		winner := domain.SideNo
		if res.YesWon {
			winner = domain.SideYes
		}
		b.papers.Resolve(ctx, trade.TradeID, winner)

		if settled, ok := b.papers.Get(trade.TradeID); ok && settled.ProfitLoss != nil {
			b.alert(ctx, notify.EventTradeResolved, "Trade resolved",
				fmt.Sprintf("%s %s: P&L %+.2f", trade.MarketID, trade.Side, *settled.ProfitLoss))
		}
	}
}

// report logs the cycle summary.
func (b *Bot) report(executed, markets int, elapsed time.Duration) {
	stats := b.papers.Stats()
	b.log.Info("cycle complete",
		"markets", markets,
		"executed", executed,
		"open_positions", b.positions.Len(),
		"total_exposure", b.positions.TotalExposure(),
		"paper_trades", stats.TotalTrades,
		"paper_profit", stats.TotalProfit,
		"elapsed", elapsed)
}

// shutdown flushes both ledgers and logs a final summary.
func (b *Bot) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.positions.Flush(ctx)
	b.papers.Flush(ctx)

	for _, p := range b.positions.ListAll() {
		b.log.Info("open position",
			"strategy", p.Strategy,
			"market_id", p.MarketID,
			"side", p.Side,
			"shares", p.Shares,
			"entry_price", p.EntryPrice)
	}

	stats := b.papers.Stats()
	b.log.Info("bot stopped",
		"open_positions", b.positions.Len(),
		"total_exposure", b.positions.TotalExposure(),
		"paper_trades", stats.TotalTrades,
		"win_rate", stats.WinRate,
		"total_profit", stats.TotalProfit,
		"roi", stats.ROI)
}

func (b *Bot) alert(ctx context.Context, event, title, message string) {
	if b.notifier != nil {
		b.notifier.Notify(ctx, event, title, message)
	}
}
