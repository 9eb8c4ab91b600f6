// Package ledger owns the persisted trading state: open positions and
// simulated paper trades. Each ledger keeps an in-memory map as the
// authoritative copy and snapshots the whole map to its store after every
// mutation. Persistence failures are logged, never returned; the in-memory
// state stays authoritative and the next mutation's write supersedes the
// failed one.
package ledger

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// PositionLedger tracks open positions keyed by (strategy, market, side).
// Only the bot's orchestration goroutine mutates it, but the archiver reads
// it concurrently, so all access goes through an RWMutex.
type PositionLedger struct {
	store     domain.PositionSnapshotStore
	log       *slog.Logger
	mu        sync.RWMutex
	positions map[string]domain.Position
}

// NewPositionLedger loads the persisted snapshot from store. A missing
// snapshot yields an empty ledger; a malformed one is logged and discarded.
func NewPositionLedger(ctx context.Context, store domain.PositionSnapshotStore, log *slog.Logger) *PositionLedger {
	l := &PositionLedger{
		store:     store,
		log:       log.With("component", "position_ledger"),
		positions: make(map[string]domain.Position),
	}

	loaded, err := store.LoadPositions(ctx)
	if err != nil {
		l.log.Error("failed to load position snapshot, starting empty", "error", err)
		return l
	}
	if loaded != nil {
		l.positions = loaded
	}
	l.log.Info("position ledger loaded", "positions", len(l.positions))
	return l
}

// Upsert applies a signed share delta at the given price to the position for
// (strategy, marketID, side), creating it if absent. The entry price is the
// cost-weighted average of the old position and the delta, including on
// sells, which can shift the average basis of the remainder. A position whose
// shares net to exactly zero is deleted. Returns the composite ledger key.
func (l *PositionLedger) Upsert(ctx context.Context, strategy, marketID, question string, side domain.Side, sharesDelta int, price float64, marketClose time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := domain.PositionKey(strategy, marketID, side)

	existing, ok := l.positions[key]
	if !ok {
		l.positions[key] = domain.Position{
			Strategy:    strategy,
			MarketID:    marketID,
			Question:    question,
			Side:        side,
			Shares:      sharesDelta,
			EntryPrice:  price,
			EntryTime:   time.Now().UTC(),
			MarketClose: marketClose,
		}
		l.log.Info("position opened",
			"key", key,
			"shares", sharesDelta,
			"price", price)
		l.persist(ctx)
		return key
	}

	total := existing.Shares + sharesDelta
	if total == 0 {
		delete(l.positions, key)
		l.log.Info("position closed", "key", key)
		l.persist(ctx)
		return key
	}

	existing.EntryPrice = (float64(existing.Shares)*existing.EntryPrice + float64(sharesDelta)*price) / float64(total)
	existing.Shares = total
	l.positions[key] = existing

	l.log.Info("position updated",
		"key", key,
		"shares", total,
		"avg_price", existing.EntryPrice)
	l.persist(ctx)
	return key
}

// Get returns the position for (strategy, marketID, side), if present.
func (l *PositionLedger) Get(strategy, marketID string, side domain.Side) (domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[domain.PositionKey(strategy, marketID, side)]
	return p, ok
}

// ListByStrategy returns the open positions owned by one strategy, sorted by
// key for deterministic iteration.
func (l *PositionLedger) ListByStrategy(strategy string) []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Position
	for _, p := range l.positions {
		if p.Strategy == strategy {
			out = append(out, p)
		}
	}
	sortPositions(out)
	return out
}

// ListAll returns every open position, sorted by key.
func (l *PositionLedger) ListAll() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sortPositions(out)
	return out
}

// Len returns the number of open positions.
func (l *PositionLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// TotalExposure sums |shares * entry_price| over all open positions. It is a
// risk metric, not cash, and is recomputed on every call.
func (l *PositionLedger) TotalExposure() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total float64
	for _, p := range l.positions {
		total += math.Abs(p.CostBasis())
	}
	return total
}

// Flush writes the current snapshot to the store. Used during shutdown for a
// best-effort final save.
func (l *PositionLedger) Flush(ctx context.Context) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.persist(ctx)
}

// persist writes the snapshot. Callers must hold mu (either mode).
func (l *PositionLedger) persist(ctx context.Context) {
	if err := l.store.SavePositions(ctx, l.positions); err != nil {
		l.log.Error("failed to persist positions, keeping in-memory state", "error", err)
	}
}

func sortPositions(ps []domain.Position) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].Key() < ps[j].Key()
	})
}
