// Package strategy holds the pluggable trading strategies evaluated each
// cycle against fresh market snapshots.
package strategy

import (
	"context"

	"github.com/google/uuid"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

// Strategy is the contract every trading strategy implements. Analyze is
// called once per cycle with the cycle's market snapshots and only the
// positions this strategy owns. It must not mutate ledgers; it may keep
// internal memory across calls (previous-cycle prices, for example) scoped
// to the instance.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, markets []domain.Market, positions []domain.Position) ([]domain.Signal, error)
}

// buySignal builds a BUY signal for one side of a market, stamping a fresh
// intent ID for tracing.
func buySignal(m domain.Market, side domain.Side, amount int, reason string) domain.Signal {
	return domain.Signal{
		Intent: domain.TradeIntent{
			ID:       uuid.NewString(),
			MarketID: m.ID,
			Question: m.Question,
			Side:     side,
			Amount:   amount,
			Price:    m.Price(side),
			Action:   domain.ActionBuy,
			Reason:   reason,
		},
		Market: m,
	}
}
