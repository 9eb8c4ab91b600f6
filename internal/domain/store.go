package domain

import "context"

// PositionSnapshotStore persists the whole position ledger as one snapshot
// keyed by composite position key. Load returns an empty map (not an error)
// when no snapshot has been written yet.
type PositionSnapshotStore interface {
	LoadPositions(ctx context.Context) (map[string]Position, error)
	SavePositions(ctx context.Context, positions map[string]Position) error
}

// PaperTradeSnapshotStore persists the whole paper-trade ledger as one
// snapshot keyed by trade ID. Load returns an empty map (not an error) when
// no snapshot has been written yet.
type PaperTradeSnapshotStore interface {
	LoadPaperTrades(ctx context.Context) (map[string]PaperTrade, error)
	SavePaperTrades(ctx context.Context, trades map[string]PaperTrade) error
}

// SnapshotStore is the combined persistence port used by the ledgers. The
// file, redis, and postgres backends each implement it; the ledgers do not
// know which backend they are writing to.
type SnapshotStore interface {
	PositionSnapshotStore
	PaperTradeSnapshotStore
}
