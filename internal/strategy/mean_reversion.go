package strategy

import (
	"context"
	"fmt"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// MeanReversion fades extreme prices. When one side gets more expensive than
// the threshold, it buys the other side expecting reversion.
type MeanReversion struct {
	shares  int
	extreme float64
}

// NewMeanReversion builds the strategy from its config block.
func NewMeanReversion(cfg config.MeanReversionConfig) *MeanReversion {
	return &MeanReversion{
		shares:  cfg.SharesPerTrade,
		extreme: cfg.ExtremeThreshold,
	}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active {
			continue
		}

		switch {
		case m.YesPrice > s.extreme:
			reason := fmt.Sprintf("mean reversion: YES overpriced at %.3f, buying NO at %.3f", m.YesPrice, m.NoPrice)
			signals = append(signals, buySignal(m, domain.SideNo, s.shares, reason))
		case m.NoPrice > s.extreme:
			reason := fmt.Sprintf("mean reversion: NO overpriced at %.3f, buying YES at %.3f", m.NoPrice, m.YesPrice)
			signals = append(signals, buySignal(m, domain.SideYes, s.shares, reason))
		}
	}
	return signals, nil
}
