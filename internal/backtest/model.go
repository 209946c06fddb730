package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantfolio/internal/contracts"
)

// DefaultFeatureLags number of lagged returns fed to a Predictor
const DefaultFeatureLags = 5

// ErrNoPredictors ensemble without members
var ErrNoPredictors = errors.New("ensemble has no predictors")

// PredictorFunc adapts a function to contracts.Predictor
type PredictorFunc func(ctx context.Context, features []float64) (float64, error)

// Predict calls f
func (f PredictorFunc) Predict(ctx context.Context, features []float64) (float64, error) {
	return f(ctx, features)
}

// Ensemble averages member probabilities (soft voting)
type Ensemble struct {
	Members []contracts.Predictor
}

// NewEnsemble creates an ensemble predictor
func NewEnsemble(members ...contracts.Predictor) *Ensemble {
	return &Ensemble{Members: members}
}

// Predict returns the mean member probability
func (e *Ensemble) Predict(ctx context.Context, features []float64) (float64, error) {
	if len(e.Members) == 0 {
		return 0, ErrNoPredictors
	}

	var sum float64
	for i, m := range e.Members {
		p, err := m.Predict(ctx, features)
		if err != nil {
			return 0, fmt.Errorf("ensemble member %d: %w", i, err)
		}
		sum += clampProbability(p)
	}
	return sum / float64(len(e.Members)), nil
}

// LogisticMomentum scores the t-statistic of recent returns through a logistic link
// 학습 없는 기본 모델 (외부 분류기 대체용)
type LogisticMomentum struct {
	Scale float64
}

// Predict returns σ(Scale · mean/std) of the feature returns
func (m LogisticMomentum) Predict(_ context.Context, features []float64) (float64, error) {
	if len(features) < 2 {
		return 0.5, nil
	}
	mean, std := stat.MeanStdDev(features, nil)
	if std == 0 || math.IsNaN(std) {
		return 0.5, nil
	}
	return 1 / (1 + math.Exp(-m.Scale*mean/std)), nil
}

// Features returns the last lags returns ending at t (최근 값이 먼저)
// t < lags 이면 ok=false
func Features(closes []float64, t, lags int) ([]float64, bool) {
	if t < lags || t >= len(closes) {
		return nil, false
	}
	features := make([]float64, lags)
	for k := 0; k < lags; k++ {
		i := t - k
		features[k] = closes[i]/closes[i-1] - 1
	}
	return features, true
}

// Probabilities runs predictor over every day with enough history; others are NaN
func Probabilities(ctx context.Context, closes []float64, predictor contracts.Predictor, lags int) ([]float64, error) {
	if lags < 1 {
		return nil, fmt.Errorf("feature lags must be positive, got %d", lags)
	}

	probs := make([]float64, len(closes))
	for t := range closes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		features, ok := Features(closes, t, lags)
		if !ok {
			probs[t] = math.NaN()
			continue
		}

		p, err := predictor.Predict(ctx, features)
		if err != nil {
			return nil, fmt.Errorf("predict day %d: %w", t, err)
		}
		probs[t] = clampProbability(p)
	}
	return probs, nil
}

// ModelSignal thresholds predictor output into long/short positions
func ModelSignal(ctx context.Context, closes []float64, predictor contracts.Predictor, lags int, threshold float64) ([]float64, error) {
	probs, err := Probabilities(ctx, closes, predictor, lags)
	if err != nil {
		return nil, err
	}
	return ThresholdSignal(probs, threshold), nil
}

func clampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	return math.Max(0, math.Min(1, p))
}
