package domain

import "time"

// Market is a point-in-time snapshot of a binary-outcome Polymarket market.
// Snapshots are rebuilt from the Gamma API every trading cycle and are never
// persisted.
//
// YesPrice and NoPrice are independent fields reported by the API; they are
// NOT required to sum to 1.00, and several strategies trade exactly on that
// deviation.
type Market struct {
	ID        string
	Question  string
	Slug      string
	CloseTime time.Time
	YesPrice  float64
	NoPrice   float64
	Volume    float64
	Active    bool

	// Book is optional real-time orderbook enrichment merged in from the
	// WebSocket feed. Nil when no book data is available for the market.
	Book *Orderbook
}

// TimeUntilClose returns the duration until the market closes. Negative for
// markets that have already closed.
func (m Market) TimeUntilClose() time.Duration {
	return time.Until(m.CloseTime)
}

// Price returns the snapshot price for the given side.
func (m Market) Price(side Side) float64 {
	if side == SideYes {
		return m.YesPrice
	}
	return m.NoPrice
}

// Spread returns the best bid/ask spread for the given side, or false when no
// orderbook enrichment is present.
func (m Market) Spread(side Side) (float64, bool) {
	if m.Book == nil {
		return 0, false
	}
	return m.Book.Spread(side)
}
