package domain

import "time"

// BookLevel is a single price level in an orderbook.
type BookLevel struct {
	Price float64
	Size  float64
}

// BookSide holds the resting orders for one outcome token.
type BookSide struct {
	Bids []BookLevel // sorted best (highest) first
	Asks []BookLevel // sorted best (lowest) first
}

// Orderbook is the real-time book state for both outcome tokens of a market,
// as assembled from the WebSocket feed.
type Orderbook struct {
	MarketID  string
	Yes       BookSide
	No        BookSide
	UpdatedAt time.Time
}

func (b *Orderbook) side(side Side) BookSide {
	if side == SideYes {
		return b.Yes
	}
	return b.No
}

// Spread returns best ask minus best bid for the given side. The second
// return value is false when either side of the book is empty.
func (b *Orderbook) Spread(side Side) (float64, bool) {
	s := b.side(side)
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return 0, false
	}
	return s.Asks[0].Price - s.Bids[0].Price, true
}

// Depth sums resting bid and ask size over the top levels of the book for the
// given side.
func (b *Orderbook) Depth(side Side, levels int) (bidSize, askSize float64) {
	s := b.side(side)
	for i, lvl := range s.Bids {
		if i >= levels {
			break
		}
		bidSize += lvl.Size
	}
	for i, lvl := range s.Asks {
		if i >= levels {
			break
		}
		askSize += lvl.Size
	}
	return bidSize, askSize
}
