package strategy

import (
	"context"
	"fmt"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// Momentum follows price movement. It remembers each market's prices from
// the previous cycle and buys the side that moved up by at least the
// threshold. The first sighting of a market only seeds the memory.
type Momentum struct {
	shares    int
	threshold float64
	last      map[string]pricePair // market ID -> previous cycle prices
}

type pricePair struct {
	yes, no float64
}

// NewMomentum builds the strategy from its config block.
func NewMomentum(cfg config.MomentumConfig) *Momentum {
	return &Momentum{
		shares:    cfg.SharesPerTrade,
		threshold: cfg.MomentumThreshold,
		last:      make(map[string]pricePair),
	}
}

func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active {
			continue
		}

		if prev, ok := s.last[m.ID]; ok {
			yesChange := m.YesPrice - prev.yes
			noChange := m.NoPrice - prev.no

			switch {
			case yesChange >= s.threshold:
				reason := fmt.Sprintf("momentum: YES rising (+%.3f to %.3f)", yesChange, m.YesPrice)
				signals = append(signals, buySignal(m, domain.SideYes, s.shares, reason))
			case noChange >= s.threshold:
				reason := fmt.Sprintf("momentum: NO rising (+%.3f to %.3f)", noChange, m.NoPrice)
				signals = append(signals, buySignal(m, domain.SideNo, s.shares, reason))
			}
		}

		s.last[m.ID] = pricePair{yes: m.YesPrice, no: m.NoPrice}
	}
	return signals, nil
}
