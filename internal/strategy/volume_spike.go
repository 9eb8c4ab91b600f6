package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// maxBookSpread is the widest best bid/ask spread a market may show before
// its snapshot price is considered unrealizable.
const maxBookSpread = 0.05

// VolumeSpike trades markets with unusually high volume on the assumption
// that volume reflects informed interest. It requires a price imbalance on
// top of the volume and buys the cheaper side.
type VolumeSpike struct {
	shares       int
	minVolume    float64
	minImbalance float64
}

// NewVolumeSpike builds the strategy from its config block.
func NewVolumeSpike(cfg config.VolumeSpikeConfig) *VolumeSpike {
	return &VolumeSpike{
		shares:       cfg.SharesPerTrade,
		minVolume:    cfg.VolumeThreshold,
		minImbalance: cfg.MinImbalance,
	}
}

func (s *VolumeSpike) Name() string { return "volume_spike" }

func (s *VolumeSpike) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active || m.Volume < s.minVolume {
			continue
		}
		if math.Abs(m.YesPrice-m.NoPrice) < s.minImbalance {
			continue
		}

		side := domain.SideYes
		if m.NoPrice < m.YesPrice {
			side = domain.SideNo
		}
		// A wide book spread means the snapshot price is not realizable.
		if spread, ok := m.Spread(side); ok && spread > maxBookSpread {
			continue
		}
		reason := fmt.Sprintf("volume spike: high vol ($%.0f), %s cheaper at %.3f", m.Volume, side, m.Price(side))
		signals = append(signals, buySignal(m, side, s.shares, reason))
	}
	return signals, nil
}
