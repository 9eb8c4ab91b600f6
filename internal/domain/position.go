package domain

import (
	"fmt"
	"time"
)

// Position is an open position owned by one strategy in one market side.
// Shares is signed; a position whose shares net to zero is deleted from the
// ledger rather than retained at zero.
type Position struct {
	Strategy    string    `json:"strategy_name"`
	MarketID    string    `json:"market_id"`
	Question    string    `json:"question"`
	Side        Side      `json:"side"`
	Shares      int       `json:"shares"`
	EntryPrice  float64   `json:"entry_price"`
	EntryTime   time.Time `json:"entry_time"`
	MarketClose time.Time `json:"market_close_time"`
}

// PositionKey builds the composite ledger key for (strategy, market, side).
func PositionKey(strategy, marketID string, side Side) string {
	return fmt.Sprintf("%s:%s:%s", strategy, marketID, side)
}

// Key returns the position's composite ledger key.
func (p Position) Key() string {
	return PositionKey(p.Strategy, p.MarketID, p.Side)
}

// CostBasis returns shares times entry price.
func (p Position) CostBasis() float64 {
	return float64(p.Shares) * p.EntryPrice
}

// UnrealizedPnL returns the mark-to-market gain at the given current price.
func (p Position) UnrealizedPnL(currentPrice float64) float64 {
	return float64(p.Shares)*currentPrice - p.CostBasis()
}
