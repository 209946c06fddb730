package portfolio

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/returns"
)

// DefaultRiskFreeRate annual risk-free rate used by Sharpe
const DefaultRiskFreeRate = 0.02

// ComputeMetrics derives PerformanceMetrics from daily returns and their equity curve
// ⭐ SSOT: 시뮬레이터/백테스터 공통 성과 지표 계산
// curve[0] 은 시드 1.0, len(curve) = len(daily)+1
func ComputeMetrics(daily, curve []float64, riskFreeRate float64) contracts.PerformanceMetrics {
	if len(daily) == 0 || len(curve) == 0 {
		return contracts.PerformanceMetrics{Empty: true}
	}

	m := contracts.PerformanceMetrics{
		TradingDays: len(daily),
	}

	// Total return
	m.TotalReturn = curve[len(curve)-1]/curve[0] - 1

	// Annualized return (산술 평균 × 252)
	m.AnnualReturn = stat.Mean(daily, nil) * returns.TradingDays

	// Volatility (annualized, 표본 표준편차)
	m.Volatility = AnnualizedVolatility(daily)

	// Sharpe Ratio: 변동성 0 → 0
	m.Sharpe = SharpeRatio(m.AnnualReturn, m.Volatility, riskFreeRate)

	// Maximum Drawdown
	m.MaxDrawdown = MaxDrawdown(curve)

	return m
}

// AnnualizedVolatility returns sample std × √252, 0 for constant or single-point series
func AnnualizedVolatility(daily []float64) float64 {
	if len(daily) < 2 || returns.ZeroVariance(daily) {
		return 0
	}
	return stat.StdDev(daily, nil) * math.Sqrt(returns.TradingDays)
}

// SharpeRatio returns (annualReturn - rf) / vol, or 0 when vol is 0
func SharpeRatio(annualReturn, vol, riskFreeRate float64) float64 {
	if vol <= 0 {
		return 0
	}
	return (annualReturn - riskFreeRate) / vol
}

// EquityCurve compounds daily returns into a curve seeded at 1.0
func EquityCurve(daily []float64) []float64 {
	curve := make([]float64, len(daily)+1)
	curve[0] = 1.0
	for t, r := range daily {
		curve[t+1] = curve[t] * (1 + r)
	}
	return curve
}

// Drawdowns returns (curve - runningMax) / runningMax per point, all ≤ 0
func Drawdowns(curve []float64) []float64 {
	out := make([]float64, len(curve))
	if len(curve) == 0 {
		return out
	}

	peak := curve[0]
	for i, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = (v - peak) / peak
		}
	}
	return out
}

// MaxDrawdown returns the most negative drawdown, 0 for a non-decreasing curve
func MaxDrawdown(curve []float64) float64 {
	maxDrawdown := 0.0
	for _, dd := range Drawdowns(curve) {
		if dd < maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}
