package strategy

import (
	"fmt"
	"sync"

	"github.com/ZanKramar/polymarket-trading/internal/config"
)

// Registry manages the ordered collection of strategies the bot runs each
// cycle. Registration order is preserved so cycles are deterministic. It is
// safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies []Strategy
	byName     map[string]Strategy
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Strategy)}
}

// Register appends a strategy. Registering the same name twice replaces the
// earlier instance in place.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, ok := r.byName[name]; ok {
		for i, existing := range r.strategies {
			if existing.Name() == name {
				r.strategies[i] = s
				break
			}
		}
	} else {
		r.strategies = append(r.strategies, s)
	}
	r.byName[name] = s
}

// Get retrieves a strategy by name. It returns an error when the name is not
// registered.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q: not registered", name)
	}
	return s, nil
}

// All returns the registered strategies in registration order.
func (r *Registry) All() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Names returns the registered strategy names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	return names
}

// FromConfig builds a registry holding exactly the strategies enabled in
// cfg, each constructed with its configured parameters.
func FromConfig(cfg config.StrategyConfig) *Registry {
	r := NewRegistry()
	if cfg.Arbitrage.Enabled {
		r.Register(NewPriceArbitrage(cfg.Arbitrage))
	}
	if cfg.MeanReversion.Enabled {
		r.Register(NewMeanReversion(cfg.MeanReversion))
	}
	if cfg.Balanced.Enabled {
		r.Register(NewBalanced(cfg.Balanced))
	}
	if cfg.Momentum.Enabled {
		r.Register(NewMomentum(cfg.Momentum))
	}
	if cfg.VolumeSpike.Enabled {
		r.Register(NewVolumeSpike(cfg.VolumeSpike))
	}
	if cfg.TimeBased.Enabled {
		r.Register(NewTimeBased(cfg.TimeBased))
	}
	if cfg.HighConfidence.Enabled {
		r.Register(NewHighConfidence(cfg.HighConfidence))
	}
	return r
}
