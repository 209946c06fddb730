package portfolio

import (
	"fmt"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/returns"
	"github.com/wonny/quantfolio/pkg/logger"
)

// Simulator applies a static weight vector to aligned asset returns
// ⭐ SSOT: 포트폴리오 시뮬레이션은 여기서만 (거래비용/리밸런싱 없음)
type Simulator struct {
	riskFreeRate float64
	logger       *logger.Logger
}

// NewSimulator creates a simulator using the given annual risk-free rate
func NewSimulator(riskFreeRate float64, log *logger.Logger) *Simulator {
	return &Simulator{
		riskFreeRate: riskFreeRate,
		logger:       log,
	}
}

// Simulate runs a static buy-and-hold allocation over the price matrix
func (s *Simulator) Simulate(prices *contracts.PriceMatrix, weights []float64) (*contracts.SimulationResult, error) {
	result, err := Simulate(prices, weights, s.riskFreeRate)
	if err != nil {
		s.logger.WithError(err).Warn("Portfolio simulation rejected")
		return nil, err
	}

	if result.Rescaled {
		s.logger.WithFields(map[string]interface{}{
			"input_sum": contracts.Weights(weights).Sum(),
			"weights":   result.Weights,
		}).Warn("Weights do not sum to 1, normalized")
	}

	s.logger.WithFields(map[string]interface{}{
		"assets":       result.Assets,
		"days":         result.Metrics.TradingDays,
		"total_return": result.Metrics.TotalReturn,
		"sharpe":       result.Metrics.Sharpe,
	}).Debug("Portfolio simulated")

	return result, nil
}

// Simulate normalizes weights, builds daily portfolio returns and the equity curve
// - 빈 행렬: 빈 시리즈 + Empty 지표 (에러 아님)
// - 합계 0 비중: ErrBadWeights (ErrInsufficientData 로도 매칭)
func Simulate(prices *contracts.PriceMatrix, weights []float64, riskFreeRate float64) (*contracts.SimulationResult, error) {
	if prices.IsEmpty() {
		return &contracts.SimulationResult{
			CumulativeReturns: []float64{},
			DailyReturns:      []float64{},
			Metrics:           contracts.PerformanceMetrics{Empty: true},
		}, nil
	}

	if len(weights) != prices.NumAssets() {
		return nil, fmt.Errorf("%w: %d weights for %d assets", contracts.ErrMisaligned, len(weights), prices.NumAssets())
	}

	// 1. Normalize weights
	w, err := NormalizeWeights(weights)
	if err != nil {
		return nil, err
	}

	r, err := returns.Compute(prices)
	if err != nil {
		return nil, err
	}

	// 2. Weighted daily returns (정적 비중)
	daily := PortfolioReturns(r, w)

	// 3. Cumulative, seeded at 1.0 on the first price date
	curve := EquityCurve(daily)

	return &contracts.SimulationResult{
		Assets:            append([]string(nil), prices.Assets...),
		Weights:           w,
		Rescaled:          NeedsRescale(weights, RescaleTol),
		Dates:             append(prices.Dates[:0:0], prices.Dates...),
		CumulativeReturns: curve,
		DailyReturns:      daily,
		// 4-7. Metrics
		Metrics: ComputeMetrics(daily, curve, riskFreeRate),
	}, nil
}

// PortfolioReturns returns Σ w[j]·r[t][j] for each row
func PortfolioReturns(r *contracts.ReturnMatrix, w []float64) []float64 {
	daily := make([]float64, r.Len())
	for t, row := range r.Returns {
		var sum float64
		for j, v := range row {
			sum += w[j] * v
		}
		daily[t] = sum
	}
	return daily
}
