package backtest

import (
	"context"
	"fmt"

	"github.com/wonny/quantfolio/internal/contracts"
)

// StrategySpec selects a signal source and its parameters
type StrategySpec struct {
	Strategy contracts.Strategy `json:"strategy"`

	// MA crossover
	ShortWindow int `json:"short_window,omitempty"`
	LongWindow  int `json:"long_window,omitempty"`

	// Bollinger
	Window int     `json:"window,omitempty"`
	K      float64 `json:"k,omitempty"`

	// Model
	Threshold   float64             `json:"threshold,omitempty"`
	FeatureLags int                 `json:"feature_lags,omitempty"`
	Predictor   contracts.Predictor `json:"-"`
}

// DefaultModel is the predictor used when a model strategy has none injected
func DefaultModel() contracts.Predictor {
	return NewEnsemble(
		LogisticMomentum{Scale: 1.0},
		LogisticMomentum{Scale: 2.0},
		LogisticMomentum{Scale: 4.0},
	)
}

// WithDefaults fills zero parameters with the defaults
func (s StrategySpec) WithDefaults() StrategySpec {
	if s.Strategy == "" {
		s.Strategy = contracts.StrategyBuyAndHold
	}
	if s.ShortWindow == 0 {
		s.ShortWindow = DefaultShortWindow
	}
	if s.LongWindow == 0 {
		s.LongWindow = DefaultLongWindow
	}
	if s.Window == 0 {
		s.Window = DefaultBollingerWindow
	}
	if s.K == 0 {
		s.K = DefaultBollingerK
	}
	if s.Threshold == 0 {
		s.Threshold = DefaultThreshold
	}
	if s.FeatureLags == 0 {
		s.FeatureLags = DefaultFeatureLags
	}
	if s.Predictor == nil {
		s.Predictor = DefaultModel()
	}
	return s
}

// Signal builds the signal series for closes
func (s StrategySpec) Signal(ctx context.Context, closes []float64) ([]float64, error) {
	s = s.WithDefaults()

	switch s.Strategy {
	case contracts.StrategyBuyAndHold:
		return BuyAndHold(len(closes)), nil
	case contracts.StrategyMACross:
		return MACrossover(closes, s.ShortWindow, s.LongWindow)
	case contracts.StrategyBollinger:
		return Bollinger(closes, s.Window, s.K)
	case contracts.StrategyModel:
		return ModelSignal(ctx, closes, s.Predictor, s.FeatureLags, s.Threshold)
	default:
		return nil, fmt.Errorf("unknown strategy %q", s.Strategy)
	}
}

// ParseStrategy validates a strategy name
func ParseStrategy(name string) (contracts.Strategy, error) {
	switch st := contracts.Strategy(name); st {
	case contracts.StrategyBuyAndHold, contracts.StrategyMACross, contracts.StrategyBollinger, contracts.StrategyModel:
		return st, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (buyhold|ma|bollinger|model)", name)
	}
}
