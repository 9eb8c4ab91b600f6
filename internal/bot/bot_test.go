package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
	"github.com/ZanKramar/polymarket-trading/internal/ledger"
	"github.com/ZanKramar/polymarket-trading/internal/platform/polymarket"
	"github.com/ZanKramar/polymarket-trading/internal/store/file"
	"github.com/ZanKramar/polymarket-trading/internal/strategy"
)

type fakeSource struct {
	markets []domain.Market
	tokens  map[string]domain.TokenRef
}

func (s *fakeSource) FetchActiveMarkets(ctx context.Context, limit, maxTotal int) []domain.Market {
	return s.markets
}

func (s *fakeSource) FetchWindowMarkets(ctx context.Context, count int) ([]domain.Market, map[string]domain.TokenRef) {
	return s.markets, s.tokens
}

type fakeSubmitter struct {
	ok       bool
	okSeq    []bool // consumed per submit when non-empty, then falls back to ok
	submits  int
	lastSize int
}

func (s *fakeSubmitter) SubmitTrade(ctx context.Context, intent domain.TradeIntent) bool {
	s.submits++
	s.lastSize = intent.Amount
	if len(s.okSeq) > 0 {
		ok := s.okSeq[0]
		s.okSeq = s.okSeq[1:]
		return ok
	}
	return s.ok
}

type fakeResolver struct {
	resolutions map[string]polymarket.MarketResolution
	calls       int
}

func (r *fakeResolver) GetMarketResolution(ctx context.Context, marketID string) (polymarket.MarketResolution, error) {
	r.calls++
	if res, ok := r.resolutions[marketID]; ok {
		return res, nil
	}
	return polymarket.MarketResolution{}, domain.ErrNotFound
}

// scriptedStrategy emits a fixed set of signals each cycle and can be made to
// panic or error on demand.
type scriptedStrategy struct {
	name    string
	signals []domain.Signal
	err     error
	panics  bool

	seenPositions []domain.Position
}

func (s *scriptedStrategy) Name() string { return s.name }

func (s *scriptedStrategy) Analyze(ctx context.Context, markets []domain.Market, positions []domain.Position) ([]domain.Signal, error) {
	s.seenPositions = positions
	if s.panics {
		panic("scripted panic")
	}
	return s.signals, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCfg(dryRun bool) config.BotConfig {
	cfg := config.Defaults().Bot
	cfg.DryRun = dryRun
	return cfg
}

func newTestBot(t *testing.T, cfg config.BotConfig, source MarketSource, sub TradeSubmitter, res ResolutionSource, strats ...strategy.Strategy) (*Bot, *ledger.PositionLedger, *ledger.PaperTradeLedger) {
	t.Helper()
	log := discardLogger()
	dir := t.TempDir()
	store := file.New(dir+"/positions.json", dir+"/paper_trades.json")
	positions := ledger.NewPositionLedger(context.Background(), store, log)
	papers := ledger.NewPaperTradeLedger(context.Background(), store, log)

	reg := strategy.NewRegistry()
	for _, s := range strats {
		reg.Register(s)
	}
	return New(cfg, source, sub, res, reg, positions, papers, Options{}, log), positions, papers
}

func testMarket(id string, yes, no float64) domain.Market {
	return domain.Market{
		ID:        id,
		Question:  "Bitcoin Up or Down?",
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    50000,
		Active:    true,
		CloseTime: time.Now().Add(10 * time.Minute),
	}
}

func buyIntent(m domain.Market, side domain.Side, amount int) domain.Signal {
	return domain.Signal{
		Intent: domain.TradeIntent{
			ID:       "intent-" + m.ID + string(side),
			MarketID: m.ID,
			Question: m.Question,
			Side:     side,
			Amount:   amount,
			Price:    m.Price(side),
			Action:   domain.ActionBuy,
			Reason:   "test",
		},
		Market: m,
	}
}

func TestCycleDryRunRecordsPaperTradeAndPosition(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{buyIntent(m, domain.SideYes, 10)}}
	b, positions, papers := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)

	b.cycle(context.Background())

	pos, ok := positions.Get("alpha", "mkt-1", domain.SideYes)
	if !ok {
		t.Fatal("expected a position after dry-run buy")
	}
	if pos.Shares != 10 || pos.EntryPrice != 0.40 {
		t.Errorf("position = %d @ %v, want 10 @ 0.40", pos.Shares, pos.EntryPrice)
	}
	if got := papers.Stats().TotalTrades; got != 1 {
		t.Errorf("paper trades = %d, want 1", got)
	}
}

func TestDuplicateIntentSuppressedAcrossCycles(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	// Sell so the second cycle is not rejected by the open-position check.
	sell := buyIntent(m, domain.SideYes, 5)
	sell.Intent.Action = domain.ActionSell

	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{sell}}
	b, positions, _ := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)
	positions.Upsert(context.Background(), "alpha", "mkt-1", m.Question, domain.SideYes, 20, 0.40, m.CloseTime)

	b.cycle(context.Background())
	b.cycle(context.Background())

	pos, _ := positions.Get("alpha", "mkt-1", domain.SideYes)
	if pos.Shares != 15 {
		t.Errorf("shares = %d, want 15 (second identical sell suppressed)", pos.Shares)
	}
}

func TestBuySkippedWhenPositionOpen(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{buyIntent(m, domain.SideYes, 10)}}
	b, positions, papers := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)
	positions.Upsert(context.Background(), "alpha", "mkt-1", m.Question, domain.SideYes, 5, 0.30, m.CloseTime)

	b.cycle(context.Background())

	pos, _ := positions.Get("alpha", "mkt-1", domain.SideYes)
	if pos.Shares != 5 || pos.EntryPrice != 0.30 {
		t.Errorf("position changed to %d @ %v, want untouched 5 @ 0.30", pos.Shares, pos.EntryPrice)
	}
	if got := papers.Stats().TotalTrades; got != 0 {
		t.Errorf("paper trades = %d, want 0", got)
	}
}

func TestSellSkippedWithoutPosition(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	sell := buyIntent(m, domain.SideYes, 10)
	sell.Intent.Action = domain.ActionSell

	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{sell}}
	b, positions, papers := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)

	b.cycle(context.Background())

	if positions.Len() != 0 {
		t.Errorf("positions = %d, want 0", positions.Len())
	}
	if got := papers.Stats().TotalTrades; got != 0 {
		t.Errorf("paper trades = %d, want 0", got)
	}
}

func TestOversellClampedToPositionSize(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	sell := buyIntent(m, domain.SideYes, 100)
	sell.Intent.Action = domain.ActionSell

	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{sell}}
	b, positions, _ := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)
	positions.Upsert(context.Background(), "alpha", "mkt-1", m.Question, domain.SideYes, 8, 0.40, m.CloseTime)

	b.cycle(context.Background())

	if _, ok := positions.Get("alpha", "mkt-1", domain.SideYes); ok {
		t.Error("expected position fully closed by clamped oversell")
	}
}

func TestLiveFailureLeavesLedgersUnchanged(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{buyIntent(m, domain.SideYes, 10)}}
	sub := &fakeSubmitter{ok: false}
	b, positions, papers := newTestBot(t, testCfg(false),
		&fakeSource{markets: []domain.Market{m}}, sub, &fakeResolver{}, strat)

	b.cycle(context.Background())

	if sub.submits != 1 {
		t.Fatalf("submits = %d, want 1", sub.submits)
	}
	if positions.Len() != 0 {
		t.Errorf("positions = %d, want 0 after failed live trade", positions.Len())
	}
	if got := papers.Stats().TotalTrades; got != 0 {
		t.Errorf("paper trades = %d, want 0 in live mode", got)
	}
}

func TestFailedLiveSubmissionRetriedNextCycle(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{buyIntent(m, domain.SideYes, 10)}}
	sub := &fakeSubmitter{okSeq: []bool{false, true}}
	b, positions, _ := newTestBot(t, testCfg(false),
		&fakeSource{markets: []domain.Market{m}}, sub, &fakeResolver{}, strat)

	b.cycle(context.Background())
	b.cycle(context.Background())

	if sub.submits != 2 {
		t.Fatalf("submits = %d, want 2 (failed submission must not suppress the retry)", sub.submits)
	}
	if _, ok := positions.Get("alpha", "mkt-1", domain.SideYes); !ok {
		t.Error("expected a position after the successful retry")
	}

	// Only the successful trade starts the suppression window.
	b.cycle(context.Background())
	if sub.submits != 2 {
		t.Errorf("submits = %d after third cycle, want 2 (executed trade suppressed)", sub.submits)
	}
}

func TestLiveSuccessUpdatesPositionsOnly(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{buyIntent(m, domain.SideYes, 10)}}
	b, positions, papers := newTestBot(t, testCfg(false),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)

	b.cycle(context.Background())

	if _, ok := positions.Get("alpha", "mkt-1", domain.SideYes); !ok {
		t.Error("expected a position after successful live trade")
	}
	if got := papers.Stats().TotalTrades; got != 0 {
		t.Errorf("paper trades = %d, want 0 in live mode", got)
	}
}

func TestPanickingStrategyDoesNotBlockOthers(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	bad := &scriptedStrategy{name: "bad", panics: true}
	good := &scriptedStrategy{name: "good", signals: []domain.Signal{buyIntent(m, domain.SideYes, 10)}}

	b, positions, _ := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, bad, good)

	b.cycle(context.Background())

	if _, ok := positions.Get("good", "mkt-1", domain.SideYes); !ok {
		t.Error("surviving strategy should still trade after another panicked")
	}
}

func TestStrategySeesOnlyOwnPositions(t *testing.T) {
	m := testMarket("mkt-1", 0.40, 0.58)
	alpha := &scriptedStrategy{name: "alpha"}
	beta := &scriptedStrategy{name: "beta"}

	b, positions, _ := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{m}}, &fakeSubmitter{ok: true}, &fakeResolver{}, alpha, beta)
	positions.Upsert(context.Background(), "alpha", "mkt-1", m.Question, domain.SideYes, 5, 0.40, m.CloseTime)

	b.cycle(context.Background())

	if len(alpha.seenPositions) != 1 {
		t.Errorf("alpha saw %d positions, want 1", len(alpha.seenPositions))
	}
	if len(beta.seenPositions) != 0 {
		t.Errorf("beta saw %d positions, want 0", len(beta.seenPositions))
	}
}

func TestEmptyFetchIsNoOp(t *testing.T) {
	strat := &scriptedStrategy{name: "alpha", signals: []domain.Signal{buyIntent(testMarket("mkt-1", 0.5, 0.5), domain.SideYes, 10)}}
	b, positions, _ := newTestBot(t, testCfg(true),
		&fakeSource{}, &fakeSubmitter{ok: true}, &fakeResolver{}, strat)

	b.cycle(context.Background())

	if strat.seenPositions != nil {
		t.Error("strategies should not run when the fetch is empty")
	}
	if positions.Len() != 0 {
		t.Errorf("positions = %d, want 0", positions.Len())
	}
}

func TestResolvePendingSettlesClosedMarkets(t *testing.T) {
	closed := testMarket("mkt-closed", 0.80, 0.20)
	closed.CloseTime = time.Now().Add(-time.Minute)
	open := testMarket("mkt-open", 0.50, 0.50)

	strat := &scriptedStrategy{name: "alpha"}
	resolver := &fakeResolver{resolutions: map[string]polymarket.MarketResolution{
		"mkt-closed": {Closed: true, YesWon: true},
	}}
	b, _, papers := newTestBot(t, testCfg(true),
		&fakeSource{markets: []domain.Market{open}}, &fakeSubmitter{ok: true}, resolver, strat)

	winID := papers.Record(context.Background(), buyIntent(closed, domain.SideYes, 10).Intent, closed.CloseTime, closed.Volume)
	papers.Record(context.Background(), buyIntent(open, domain.SideYes, 10).Intent, open.CloseTime, open.Volume)

	b.cycle(context.Background())

	win, _ := papers.Get(winID)
	if !win.Resolved {
		t.Fatal("trade on closed market should be resolved")
	}
	if win.ProfitLoss == nil || *win.ProfitLoss != 2.00 {
		t.Errorf("profit = %v, want 2.00", win.ProfitLoss)
	}
	if got := papers.Stats().PendingTrades; got != 1 {
		t.Errorf("pending = %d, want 1 (open market untouched)", got)
	}
}

func TestResolveLookupFailureRetriesNextCycle(t *testing.T) {
	closed := testMarket("mkt-x", 0.80, 0.20)
	closed.CloseTime = time.Now().Add(-time.Minute)

	strat := &scriptedStrategy{name: "alpha"}
	resolver := &fakeResolver{} // every lookup errors
	b, _, papers := newTestBot(t, testCfg(true),
		&fakeSource{}, &fakeSubmitter{ok: true}, resolver, strat)
	id := papers.Record(context.Background(), buyIntent(closed, domain.SideYes, 10).Intent, closed.CloseTime, closed.Volume)

	b.cycle(context.Background())

	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1", resolver.calls)
	}
	trade, _ := papers.Get(id)
	if trade.Resolved {
		t.Error("trade should stay pending when resolution lookup fails")
	}
}
