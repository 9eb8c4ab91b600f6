package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/ZanKramar/polymarket-trading/internal/config"
	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

func activeMarket(id string, yes, no float64) domain.Market {
	return domain.Market{
		ID:        id,
		Question:  "q",
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    1000,
		Active:    true,
		CloseTime: time.Now().Add(time.Hour),
	}
}

func TestPriceArbitrageBuysCheaperSideWhenUnderpriced(t *testing.T) {
	s := NewPriceArbitrage(config.ArbitrageConfig{SharesPerTrade: 10, DeviationThreshold: 0.01})

	markets := []domain.Market{
		activeMarket("under", 0.44, 0.50),  // sums to 0.94, YES cheaper
		activeMarket("fair", 0.50, 0.50),   // no deviation
		activeMarket("over", 0.55, 0.55),   // overpriced pair, no buy
	}

	signals, err := s.Analyze(context.Background(), markets, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	sig := signals[0]
	if sig.Intent.MarketID != "under" || sig.Intent.Side != domain.SideYes {
		t.Errorf("signal = %s/%s, want under/YES", sig.Intent.MarketID, sig.Intent.Side)
	}
	if sig.Intent.Amount != 10 || sig.Intent.Action != domain.ActionBuy {
		t.Errorf("intent = %+v", sig.Intent)
	}
	if sig.Intent.ID == "" {
		t.Error("intent ID not stamped")
	}
}

func TestPriceArbitrageSkipsInactive(t *testing.T) {
	s := NewPriceArbitrage(config.ArbitrageConfig{SharesPerTrade: 10, DeviationThreshold: 0.01})
	m := activeMarket("m", 0.40, 0.50)
	m.Active = false

	signals, _ := s.Analyze(context.Background(), []domain.Market{m}, nil)
	if len(signals) != 0 {
		t.Errorf("inactive market produced %d signals", len(signals))
	}
}

func TestMeanReversionFadesExtremes(t *testing.T) {
	s := NewMeanReversion(config.MeanReversionConfig{SharesPerTrade: 5, ExtremeThreshold: 0.55})

	signals, _ := s.Analyze(context.Background(), []domain.Market{
		activeMarket("hotyes", 0.70, 0.32), // YES extreme -> buy NO
		activeMarket("hotno", 0.30, 0.72),  // NO extreme -> buy YES
		activeMarket("calm", 0.50, 0.50),
	}, nil)

	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(signals))
	}
	if signals[0].Intent.Side != domain.SideNo {
		t.Errorf("first signal side = %s, want NO", signals[0].Intent.Side)
	}
	if signals[1].Intent.Side != domain.SideYes {
		t.Errorf("second signal side = %s, want YES", signals[1].Intent.Side)
	}
}

func TestBalancedRequiresEdge(t *testing.T) {
	s := NewBalanced(config.BalancedConfig{SharesPerTrade: 10, MinEdge: 0.02})

	signals, _ := s.Analyze(context.Background(), []domain.Market{
		activeMarket("narrow", 0.50, 0.51), // 1 cent gap, below edge
		activeMarket("wide", 0.45, 0.57),   // YES cheaper
	}, nil)

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Intent.MarketID != "wide" || signals[0].Intent.Side != domain.SideYes {
		t.Errorf("signal = %s/%s", signals[0].Intent.MarketID, signals[0].Intent.Side)
	}
}

func TestMomentumNeedsTwoCycles(t *testing.T) {
	s := NewMomentum(config.MomentumConfig{SharesPerTrade: 10, MomentumThreshold: 0.03})
	ctx := context.Background()

	// First cycle only seeds price memory.
	signals, _ := s.Analyze(ctx, []domain.Market{activeMarket("m", 0.50, 0.50)}, nil)
	if len(signals) != 0 {
		t.Fatalf("first cycle produced %d signals", len(signals))
	}

	// Second cycle: YES moved up 5 cents.
	signals, _ = s.Analyze(ctx, []domain.Market{activeMarket("m", 0.55, 0.45)}, nil)
	if len(signals) != 1 {
		t.Fatalf("second cycle produced %d signals, want 1", len(signals))
	}
	if signals[0].Intent.Side != domain.SideYes {
		t.Errorf("side = %s, want YES", signals[0].Intent.Side)
	}

	// Third cycle: no further movement, no signal.
	signals, _ = s.Analyze(ctx, []domain.Market{activeMarket("m", 0.55, 0.45)}, nil)
	if len(signals) != 0 {
		t.Errorf("flat cycle produced %d signals", len(signals))
	}
}

func TestVolumeSpikeThresholds(t *testing.T) {
	s := NewVolumeSpike(config.VolumeSpikeConfig{SharesPerTrade: 10, VolumeThreshold: 2000, MinImbalance: 0.03})

	thin := activeMarket("thin", 0.40, 0.55)
	thin.Volume = 500
	busy := activeMarket("busy", 0.40, 0.55)
	busy.Volume = 5000
	flat := activeMarket("flat", 0.50, 0.51)
	flat.Volume = 5000

	signals, _ := s.Analyze(context.Background(), []domain.Market{thin, busy, flat}, nil)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Intent.MarketID != "busy" {
		t.Errorf("market = %s, want busy", signals[0].Intent.MarketID)
	}
}

func TestTimeBasedOnlyNearClose(t *testing.T) {
	s := NewTimeBased(config.TimeBasedConfig{SharesPerTrade: 15, MinutesBeforeClose: 5, MinEdge: 0.01})

	far := activeMarket("far", 0.40, 0.55)
	far.CloseTime = time.Now().Add(time.Hour)
	near := activeMarket("near", 0.40, 0.55)
	near.CloseTime = time.Now().Add(3 * time.Minute)
	expired := activeMarket("expired", 0.40, 0.55)
	expired.CloseTime = time.Now().Add(-time.Minute)

	signals, _ := s.Analyze(context.Background(), []domain.Market{far, near, expired}, nil)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Intent.MarketID != "near" || signals[0].Intent.Amount != 15 {
		t.Errorf("signal = %+v", signals[0].Intent)
	}
}

func TestHighConfidenceBuysNearCertainSide(t *testing.T) {
	s := NewHighConfidence(config.HighConfidenceConfig{
		SharesPerTrade:      1,
		HoursUntilClose:     1,
		ConfidenceThreshold: 0.85,
		MinVolume:           100,
	})

	confident := activeMarket("confident", 0.06, 0.91)
	confident.CloseTime = time.Now().Add(30 * time.Minute)
	uncertain := activeMarket("uncertain", 0.55, 0.47)
	uncertain.CloseTime = time.Now().Add(30 * time.Minute)

	signals, _ := s.Analyze(context.Background(), []domain.Market{confident, uncertain}, nil)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Intent.Side != domain.SideNo || signals[0].Intent.MarketID != "confident" {
		t.Errorf("signal = %+v", signals[0].Intent)
	}
}

func TestRegistryFromConfigOrderAndToggle(t *testing.T) {
	cfg := config.Defaults().Strategy
	cfg.HighConfidence.Enabled = false
	cfg.Momentum.Enabled = false

	r := FromConfig(cfg)
	names := r.Names()

	want := []string{"price_arbitrage", "mean_reversion", "balanced", "volume_spike", "time_based"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	if _, err := r.Get("momentum"); err == nil {
		t.Error("disabled strategy should not be registered")
	}
	if _, err := r.Get("balanced"); err != nil {
		t.Errorf("enabled strategy missing: %v", err)
	}
}
