package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// HighConfidence buys near-certain outcomes in markets closing soon: when a
// side trades above the confidence threshold and the market closes within
// the window, it buys that side for the small remaining edge.
type HighConfidence struct {
	shares     int
	window     time.Duration
	confidence float64
	minVolume  float64
}

// NewHighConfidence builds the strategy from its config block.
func NewHighConfidence(cfg config.HighConfidenceConfig) *HighConfidence {
	return &HighConfidence{
		shares:     cfg.SharesPerTrade,
		window:     time.Duration(cfg.HoursUntilClose * float64(time.Hour)),
		confidence: cfg.ConfidenceThreshold,
		minVolume:  cfg.MinVolume,
	}
}

func (s *HighConfidence) Name() string { return "high_confidence" }

func (s *HighConfidence) Analyze(_ context.Context, markets []domain.Market, _ []domain.Position) ([]domain.Signal, error) {
	var signals []domain.Signal

	for _, m := range markets {
		if !m.Active || m.Volume < s.minVolume {
			continue
		}

		left := m.TimeUntilClose()
		if left <= 0 || left > s.window {
			continue
		}

		switch {
		case m.YesPrice >= s.confidence:
			reason := fmt.Sprintf("high confidence YES (%.3f) with %.2fh until close", m.YesPrice, left.Hours())
			signals = append(signals, buySignal(m, domain.SideYes, s.shares, reason))
		case m.NoPrice >= s.confidence:
			reason := fmt.Sprintf("high confidence NO (%.3f) with %.2fh until close", m.NoPrice, left.Hours())
			signals = append(signals, buySignal(m, domain.SideNo, s.shares, reason))
		}
	}
	return signals, nil
}
