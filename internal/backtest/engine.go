package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/portfolio"
	"github.com/wonny/quantfolio/pkg/logger"
)

// Engine runs single-asset signal backtests
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	config Config
	logger *logger.Logger
}

// Config holds backtest configuration
type Config struct {
	Lag          int     // 시그널 적용 지연 (기본 1, look-ahead 방지)
	RiskFreeRate float64 // Sharpe 용 연 무위험 수익률
}

// DefaultConfig returns the default backtest configuration
func DefaultConfig() Config {
	return Config{
		Lag:          1,
		RiskFreeRate: portfolio.DefaultRiskFreeRate,
	}
}

// NewEngine creates a new backtest engine
func NewEngine(config Config, log *logger.Logger) *Engine {
	return &Engine{
		config: config,
		logger: log,
	}
}

// Run applies a signal series to one asset's prices
func (e *Engine) Run(asset string, dates []time.Time, prices, signal []float64) (*contracts.BacktestResult, error) {
	result, err := Backtest(prices, signal, e.config.Lag, e.config.RiskFreeRate)
	if err != nil {
		return nil, err
	}
	result.Asset = asset
	result.Dates = dates

	e.logger.WithFields(map[string]interface{}{
		"asset":        asset,
		"days":         len(prices),
		"total_return": result.Metrics.TotalReturn,
		"benchmark":    result.BenchmarkMetrics.TotalReturn,
		"hit_ratio":    result.Metrics.HitRatio,
	}).Debug("Backtest completed")

	return result, nil
}

// RunStrategy builds the signal for spec and runs it over the asset's column
func (e *Engine) RunStrategy(ctx context.Context, prices *contracts.PriceMatrix, asset string, spec StrategySpec) (*contracts.BacktestResult, error) {
	j, ok := prices.AssetIndex(asset)
	if !ok {
		return nil, fmt.Errorf("%w: asset %s not in price matrix", contracts.ErrMisaligned, asset)
	}
	closes := prices.Column(j)

	signal, err := spec.Signal(ctx, closes)
	if err != nil {
		return nil, fmt.Errorf("build %s signal: %w", spec.Strategy, err)
	}

	result, err := e.Run(asset, prices.Dates, closes, signal)
	if err != nil {
		return nil, err
	}
	result.Strategy = spec.Strategy
	return result, nil
}

// Backtest shifts the signal by lag, multiplies by asset returns and compounds both curves
// - 빈 입력: 빈 결과 (에러 아님)
// - 항상 매수 시그널 → 벤치마크와 동일한 곡선
func Backtest(prices, signal []float64, lag int, riskFreeRate float64) (*contracts.BacktestResult, error) {
	if lag < 0 {
		return nil, fmt.Errorf("lag must be >= 0, got %d", lag)
	}
	if len(prices) == 0 {
		return &contracts.BacktestResult{
			Lag:              lag,
			Metrics:          contracts.PerformanceMetrics{Empty: true},
			BenchmarkMetrics: contracts.PerformanceMetrics{Empty: true},
		}, nil
	}
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: backtest needs at least 2 prices, got %d", contracts.ErrInsufficientData, len(prices))
	}
	if len(signal) != len(prices) {
		return nil, fmt.Errorf("%w: %d signals for %d prices", contracts.ErrMisaligned, len(signal), len(prices))
	}

	n := len(prices)
	assetReturns := make([]float64, n) // [0] = 0 (시드)
	position := make([]float64, n)
	strategyReturns := make([]float64, n)

	for t := 1; t < n; t++ {
		if prices[t-1] <= 0 {
			return nil, fmt.Errorf("%w: non-positive price at %d", contracts.ErrMisaligned, t-1)
		}
		assetReturns[t] = prices[t]/prices[t-1] - 1
	}

	for t := 0; t < n; t++ {
		if t >= lag {
			position[t] = signal[t-lag]
		}
		strategyReturns[t] = position[t] * assetReturns[t]
	}

	equity := portfolio.EquityCurve(strategyReturns[1:])
	benchmark := portfolio.EquityCurve(assetReturns[1:])

	result := &contracts.BacktestResult{
		Lag:              lag,
		Signal:           append([]float64(nil), signal...),
		Position:         position,
		AssetReturns:     assetReturns,
		StrategyReturns:  strategyReturns,
		Equity:           equity,
		Benchmark:        benchmark,
		Metrics:          portfolio.ComputeMetrics(strategyReturns[1:], equity, riskFreeRate),
		BenchmarkMetrics: portfolio.ComputeMetrics(assetReturns[1:], benchmark, riskFreeRate),
	}
	result.Metrics.HitRatio, result.Metrics.ActiveDays = hitRatio(position[1:], strategyReturns[1:])

	return result, nil
}

// hitRatio returns the share of positive strategy returns among days holding a position
func hitRatio(position, strategyReturns []float64) (float64, int) {
	var active, hits int
	for t, p := range position {
		if p == 0 {
			continue
		}
		active++
		if strategyReturns[t] > 0 {
			hits++
		}
	}
	if active == 0 {
		return 0, 0
	}
	return float64(hits) / float64(active), active
}
