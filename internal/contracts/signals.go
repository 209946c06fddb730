package contracts

import "time"

// Position values produced by signal generators
const (
	Short = -1.0
	Flat  = 0.0
	Long  = 1.0
)

// Strategy identifies a signal source for the backtester
type Strategy string

const (
	StrategyBuyAndHold Strategy = "buyhold"
	StrategyMACross    Strategy = "ma"
	StrategyBollinger  Strategy = "bollinger"
	StrategyModel      Strategy = "model"
)

// BacktestResult is the single-asset strategy equity curve with its benchmark
// ⭐ SSOT: 백테스트 결과 (Equity/Benchmark 첫 값 1.0)
type BacktestResult struct {
	Asset    string      `json:"asset"`
	Strategy Strategy    `json:"strategy"`
	Lag      int         `json:"lag"`
	Dates    []time.Time `json:"dates"` // 가격 날짜 (첫 날 포함)

	Signal          []float64 `json:"signal"`           // 날짜별 원 시그널 (-1, 0, 1)
	Position        []float64 `json:"position"`         // lag 만큼 밀린 시그널
	AssetReturns    []float64 `json:"asset_returns"`    // 첫 값 0 (시드)
	StrategyReturns []float64 `json:"strategy_returns"` // Position × AssetReturns
	Equity          []float64 `json:"equity"`
	Benchmark       []float64 `json:"benchmark"` // 단순 보유

	Metrics          PerformanceMetrics `json:"metrics"`
	BenchmarkMetrics PerformanceMetrics `json:"benchmark_metrics"`
}

// Excess returns the strategy's total return over buy-and-hold
func (r *BacktestResult) Excess() float64 {
	return r.Metrics.TotalReturn - r.BenchmarkMetrics.TotalReturn
}
