package domain

import (
	"fmt"
	"time"
)

// Side identifies one of the two complementary outcomes of a binary market.
// For BTC up/down markets YES maps to "Up" and NO to "Down".
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// TradeAction is the direction of a trade intent.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// TradeIntent is a strategy's proposed trade. It is consumed exactly once by
// the bot within the cycle that produced it; the bot may reject it or clamp
// its amount during validation.
type TradeIntent struct {
	ID       string // uuid, stamped at creation for logging and tracing
	MarketID string
	Question string
	Side     Side
	Amount   int // shares, > 0
	Price    float64
	Action   TradeAction
	Reason   string
}

// Key returns the duplicate-suppression key. Two intents with the same
// market, side, and amount are treated as the same trade.
func (t TradeIntent) Key() string {
	return fmt.Sprintf("%s:%s:%d", t.MarketID, t.Side, t.Amount)
}

// Signal bundles a trade intent with the market snapshot it was derived from,
// so the bot can reach close time and volume at dispatch.
type Signal struct {
	Intent TradeIntent
	Market Market
}

// PaperTrade is a persisted simulated trade record. Resolution fields are set
// exactly once; Resolved is true iff Outcome, ExitPrice, and ProfitLoss are
// all populated.
type PaperTrade struct {
	TradeID       string    `json:"trade_id"`
	MarketID      string    `json:"market_id"`
	Question      string    `json:"question"`
	Side          Side      `json:"side"`
	Amount        int       `json:"amount"`
	EntryPrice    float64   `json:"entry_price"`
	EntryTime     time.Time `json:"entry_time"`
	Reason        string    `json:"reason"`
	VolumeAtEntry float64   `json:"volume_at_entry"`
	MarketClose   time.Time `json:"market_close_time"`

	Resolved  bool     `json:"resolved"`
	Outcome   *Side    `json:"resolution_outcome,omitempty"`
	ExitPrice *float64 `json:"exit_price,omitempty"`
	ProfitLoss *float64 `json:"profit_loss,omitempty"`
}

// Cost returns the capital committed at entry.
func (t PaperTrade) Cost() float64 {
	return t.EntryPrice * float64(t.Amount)
}

// TradeStats aggregates paper-trading performance.
//
// TotalInvested sums entry cost over every record, resolved or not; WinRate
// and ROI are zero when their denominators are zero.
type TradeStats struct {
	TotalTrades   int
	ResolvedTrades int
	PendingTrades int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent
	TotalProfit   float64
	TotalInvested float64
	ROI           float64 // percent
}
