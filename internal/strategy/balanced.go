package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// Balanced is a contrarian strategy: it buys whichever side is cheaper,
// betting on noise, as long as the gap between the sides is wide enough to
// matter.
type Balanced struct {
	shares  int
	minEdge float64
}

// NewBalanced builds the strategy from its config block.
func NewBalanced(cfg config.BalancedConfig) *Balanced {
	return &Balanced{
		shares:  cfg.SharesPerTrade,
		minEdge: cfg.MinEdge,
	}
}

func (s *Balanced) Name() string { return "balanced" }

func (s *Balanced) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active {
			continue
		}
		if math.Abs(m.YesPrice-m.NoPrice) < s.minEdge {
			continue
		}

		side := domain.SideYes
		if m.NoPrice < m.YesPrice {
			side = domain.SideNo
		}
		reason := fmt.Sprintf("contrarian: %s cheaper at %.3f vs %.3f", side, m.Price(side), m.Price(side.Opposite()))
		signals = append(signals, buySignal(m, side, s.shares, reason))
	}
	return signals, nil
}
