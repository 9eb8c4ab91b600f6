package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// PriceArbitrage exploits price imbalances between the two sides of a binary
// market. The sides should sum to roughly $1.00; when the sum drops below by
// more than the deviation threshold, it buys the cheaper side.
type PriceArbitrage struct {
	shares    int
	deviation float64
}

// NewPriceArbitrage builds the strategy from its config block.
func NewPriceArbitrage(cfg config.ArbitrageConfig) *PriceArbitrage {
	return &PriceArbitrage{
		shares:    cfg.SharesPerTrade,
		deviation: cfg.DeviationThreshold,
	}
}

func (s *PriceArbitrage) Name() string { return "price_arbitrage" }

func (s *PriceArbitrage) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active {
			continue
		}

		total := m.YesPrice + m.NoPrice
		if math.Abs(total-1.00) <= s.deviation || total >= 1.00 {
			continue
		}

		// Undervalued pair: buy the cheaper side.
		side := domain.SideYes
		if m.NoPrice < m.YesPrice {
			side = domain.SideNo
		}
		reason := fmt.Sprintf("arbitrage: %s underpriced at %.3f (total=%.3f)", side, m.Price(side), total)
		signals = append(signals, buySignal(m, side, s.shares, reason))
	}
	return signals, nil
}
