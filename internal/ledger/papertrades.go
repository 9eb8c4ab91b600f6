package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// PaperTradeLedger records simulated trades and resolves their P&L once the
// market outcome is known. Records are never deleted. Only the bot's
// orchestration goroutine mutates it, but the archiver reads it
// concurrently, so all access goes through an RWMutex.
type PaperTradeLedger struct {
	store  domain.PaperTradeSnapshotStore
	log    *slog.Logger
	mu     sync.RWMutex
	trades map[string]domain.PaperTrade
	now    func() time.Time
}

// NewPaperTradeLedger loads the persisted snapshot from store. A missing
// snapshot yields an empty ledger; a malformed one is logged and discarded.
func NewPaperTradeLedger(ctx context.Context, store domain.PaperTradeSnapshotStore, log *slog.Logger) *PaperTradeLedger {
	l := &PaperTradeLedger{
		store:  store,
		log:    log.With("component", "paper_ledger"),
		trades: make(map[string]domain.PaperTrade),
		now:    time.Now,
	}

	loaded, err := store.LoadPaperTrades(ctx)
	if err != nil {
		l.log.Error("failed to load paper trade snapshot, starting empty", "error", err)
		return l
	}
	if loaded != nil {
		l.trades = loaded
	}
	l.log.Info("paper trade ledger loaded", "trades", len(l.trades))
	return l
}

// Record creates a paper trade from an intent and persists immediately. The
// trade ID is derived from market, side, and the creation instant so that
// repeated intents on the same market and side in one cycle still get
// distinct IDs.
func (l *PaperTradeLedger) Record(ctx context.Context, intent domain.TradeIntent, marketClose time.Time, volume float64) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	entryTime := l.now().UTC()
	tradeID := fmt.Sprintf("%s_%s_%d", intent.MarketID, intent.Side, entryTime.UnixNano())

	l.trades[tradeID] = domain.PaperTrade{
		TradeID:       tradeID,
		MarketID:      intent.MarketID,
		Question:      intent.Question,
		Side:          intent.Side,
		Amount:        intent.Amount,
		EntryPrice:    intent.Price,
		EntryTime:     entryTime,
		Reason:        intent.Reason,
		VolumeAtEntry: volume,
		MarketClose:   marketClose,
	}

	l.log.Info("paper trade recorded",
		"trade_id", tradeID,
		"side", intent.Side,
		"amount", intent.Amount,
		"price", intent.Price,
		"reason", intent.Reason)
	l.persist(ctx)
	return tradeID
}

// Resolve settles a paper trade against the winning side. The winning side
// pays 1.00 per share, the losing side pays 0, and profit is payout minus
// entry cost. Unknown trade IDs log a warning; already-resolved trades are
// left untouched.
func (l *PaperTradeLedger) Resolve(ctx context.Context, tradeID string, winningSide domain.Side) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.trades[tradeID]
	if !ok {
		l.log.Warn("resolve requested for unknown paper trade", "trade_id", tradeID)
		return
	}
	if trade.Resolved {
		return
	}

	var exitPrice float64
	if trade.Side == winningSide {
		exitPrice = 1.0
	}
	profit := exitPrice*float64(trade.Amount) - trade.Cost()

	outcome := winningSide
	trade.Resolved = true
	trade.Outcome = &outcome
	trade.ExitPrice = &exitPrice
	trade.ProfitLoss = &profit
	l.trades[tradeID] = trade

	l.log.Info("paper trade resolved",
		"trade_id", tradeID,
		"winning_side", winningSide,
		"profit_loss", profit)
	l.persist(ctx)
}

// Get returns the paper trade for tradeID, if present.
func (l *PaperTradeLedger) Get(tradeID string) (domain.PaperTrade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.trades[tradeID]
	return t, ok
}

// Pending returns all unresolved paper trades, sorted by entry time.
func (l *PaperTradeLedger) Pending() []domain.PaperTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.PaperTrade
	for _, t := range l.trades {
		if !t.Resolved {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

// All returns every paper trade, resolved or not, sorted by entry time.
func (l *PaperTradeLedger) All() []domain.PaperTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.PaperTrade, 0, len(l.trades))
	for _, t := range l.trades {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

// Stats aggregates performance over every record. TotalInvested sums entry
// cost over all trades whether resolved or not. WinRate and ROI are zero
// when their denominators are zero.
func (l *PaperTradeLedger) Stats() domain.TradeStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var s domain.TradeStats
	for _, t := range l.trades {
		s.TotalTrades++
		s.TotalInvested += t.Cost()
		if !t.Resolved {
			s.PendingTrades++
			continue
		}
		s.ResolvedTrades++
		if t.ProfitLoss != nil {
			s.TotalProfit += *t.ProfitLoss
			if *t.ProfitLoss > 0 {
				s.WinningTrades++
			} else {
				s.LosingTrades++
			}
		}
	}
	if s.ResolvedTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.ResolvedTrades) * 100
	}
	if s.TotalInvested > 0 {
		s.ROI = s.TotalProfit / s.TotalInvested * 100
	}
	return s
}

// Flush writes the current snapshot to the store. Used during shutdown for a
// best-effort final save.
func (l *PaperTradeLedger) Flush(ctx context.Context) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.persist(ctx)
}

// persist writes the snapshot. Callers must hold mu (either mode).
func (l *PaperTradeLedger) persist(ctx context.Context) {
	if err := l.store.SavePaperTrades(ctx, l.trades); err != nil {
		l.log.Error("failed to persist paper trades, keeping in-memory state", "error", err)
	}
}
