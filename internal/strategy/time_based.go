package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// TimeBased trades more aggressively in the final minutes before a market
// closes, assuming late-stage prices are better informed. It buys the
// cheaper side of any market inside the window with at least the minimum
// edge.
type TimeBased struct {
	shares  int
	window  time.Duration
	minEdge float64
}

// NewTimeBased builds the strategy from its config block.
func NewTimeBased(cfg config.TimeBasedConfig) *TimeBased {
	return &TimeBased{
		shares:  cfg.SharesPerTrade,
		window:  time.Duration(cfg.MinutesBeforeClose * float64(time.Minute)),
		minEdge: cfg.MinEdge,
	}
}

func (s *TimeBased) Name() string { return "time_based" }

func (s *TimeBased) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active {
			continue
		}

		left := m.TimeUntilClose()
		if left <= 0 || left > s.window {
			continue
		}
		if math.Abs(m.YesPrice-m.NoPrice) < s.minEdge {
			continue
		}

		side := domain.SideYes
		if m.NoPrice < m.YesPrice {
			side = domain.SideNo
		}
		reason := fmt.Sprintf("late trade: %.1fmin left, %s at %.3f", left.Minutes(), side, m.Price(side))
		signals = append(signals, buySignal(m, side, s.shares, reason))
	}
	return signals, nil
}
