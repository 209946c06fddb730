package contracts

import (
	"math"
	"time"
)

// Weights is a weight vector aligned with a matrix's Assets
// 각 원소는 0.0 ~ 1.0, 정규화 후 합계 1.0
type Weights []float64

// Sum returns the sum of all weights
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// IsNormalized reports whether the weights are long-only and sum to 1 within tol
func (w Weights) IsNormalized(tol float64) bool {
	for _, v := range w {
		if v < -tol || v > 1+tol {
			return false
		}
	}
	return len(w) > 0 && math.Abs(w.Sum()-1) <= tol
}

// ByAsset maps weights onto asset names
func (w Weights) ByAsset(assets []string) map[string]float64 {
	out := make(map[string]float64, len(assets))
	for i, a := range assets {
		if i < len(w) {
			out[a] = w[i]
		}
	}
	return out
}

// SimulationResult is the output of a static-weight portfolio simulation
// ⭐ SSOT: 포트폴리오 시뮬레이션 결과
type SimulationResult struct {
	Assets            []string           `json:"assets"`
	Weights           Weights            `json:"weights"`             // 정규화된 비중
	Rescaled          bool               `json:"rescaled"`            // 입력 비중 합계 ≠ 1 → 정규화됨
	Dates             []time.Time        `json:"dates"`               // 가격 행렬 날짜 (첫 날 포함)
	CumulativeReturns []float64          `json:"cumulative_returns"`  // 첫 값 1.0
	DailyReturns      []float64          `json:"daily_returns"`       // len = len(Dates)-1
	Metrics           PerformanceMetrics `json:"metrics"`
}

// FrontierPoint is one Monte Carlo sample of the feasible region
type FrontierPoint struct {
	Volatility float64 `json:"volatility"` // 연환산 변동성
	Return     float64 `json:"return"`     // 연환산 기대수익률
	Sharpe     float64 `json:"sharpe"`
	Weights    Weights `json:"weights,omitempty"`
}

// OptimizationResult is the max-Sharpe allocation plus the sampled frontier
// ⭐ SSOT: 최적화 결과 (Frontier 는 시각화 전용)
type OptimizationResult struct {
	RunID        string          `json:"run_id"`
	Assets       []string        `json:"assets"`
	Weights      Weights         `json:"weights"`
	Return       float64         `json:"return"`
	Volatility   float64         `json:"volatility"`
	Sharpe       float64         `json:"sharpe"`
	RiskFreeRate float64         `json:"risk_free_rate"`
	Approximate  bool            `json:"approximate"`   // 솔버 실패 → MC 최선 샘플 사용
	SolverStatus string          `json:"solver_status"` // gonum optimize.Status
	Iterations   int             `json:"iterations"`
	BestSample   FrontierPoint   `json:"best_sample"`
	Frontier     []FrontierPoint `json:"frontier"`
	CreatedAt    time.Time       `json:"created_at"`
}

// WeightsByAsset returns the optimal weights keyed by asset
func (r *OptimizationResult) WeightsByAsset() map[string]float64 {
	return r.Weights.ByAsset(r.Assets)
}
