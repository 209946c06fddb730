package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// Historical VaR / CVaR
// =============================================================================

// HistoricalVaR (1-confidence) 분위수, 선형 보간
// returns: 일별 수익률 (양수=이익, 음수=손실)
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return Percentile(sortedCopy(returns), (1-confidence)*100)
}

// HistoricalCVaR VaR 이하 수익률의 평균 (tail 평균)
func HistoricalCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := sortedCopy(returns)
	return tailMean(sorted, Percentile(sorted, (1-confidence)*100))
}

// tailMean sorted 에서 threshold 이하 값의 평균
func tailMean(sorted []float64, threshold float64) float64 {
	var sum float64
	var count int
	for _, r := range sorted {
		if r > threshold {
			break
		}
		sum += r
		count++
	}
	if count == 0 {
		// 보간값이 최솟값보다 작을 수 없으므로 도달하지 않음
		return threshold
	}
	return sum / float64(count)
}

// =============================================================================
// Parametric VaR / CVaR (정규분포 가정)
// =============================================================================

// ParametricVaR Normal(mean, stdDev) 의 (1-confidence) 분위수
func ParametricVaR(mean, stdDev, confidence float64) float64 {
	if stdDev <= 0 {
		return 0
	}
	z := distuv.UnitNormal.Quantile(1 - confidence)
	return mean + stdDev*z
}

// ParametricCVaR 정규분포 Expected Shortfall: μ - σ·φ(z)/(1-c)
func ParametricCVaR(mean, stdDev, confidence float64) float64 {
	if stdDev <= 0 {
		return 0
	}
	z := distuv.UnitNormal.Quantile(1 - confidence)
	return mean - stdDev*distuv.UnitNormal.Prob(z)/(1-confidence)
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// Percentile 백분위수 계산 (p: 0~100, numpy linear 보간과 동일)
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Percentiles 여러 백분위수를 한 번에 계산
func Percentiles(values []float64, ps []int) map[int]float64 {
	sorted := sortedCopy(values)
	out := make(map[int]float64, len(ps))
	for _, p := range ps {
		out[p] = Percentile(sorted, float64(p))
	}
	return out
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
