package risk

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MonteCarloSimulator Monte Carlo 시뮬레이터
type MonteCarloSimulator struct {
	config MonteCarloConfig
	rng    *rand.Rand
}

// NewMonteCarloSimulator 새 시뮬레이터 생성
func NewMonteCarloSimulator(config MonteCarloConfig) *MonteCarloSimulator {
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &MonteCarloSimulator{
		config: config,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SimulateSeries 포트폴리오 일간 수익률로 보유기간 수익률 분포 시뮬레이션
func (mc *MonteCarloSimulator) SimulateSeries(portfolioReturns []float64) (*MonteCarloResult, error) {
	if len(portfolioReturns) == 0 {
		return nil, fmt.Errorf("empty portfolio returns")
	}

	var simulated []float64
	switch mc.config.Method {
	case MethodParametricNormal:
		simulated = mc.parametricSimulation(portfolioReturns)
	default:
		simulated = mc.historicalSimulation(portfolioReturns)
	}

	return mc.calculateResult(simulated), nil
}

// historicalSimulation 과거 수익률을 랜덤하게 재샘플링 (복원추출)
func (mc *MonteCarloSimulator) historicalSimulation(returns []float64) []float64 {
	results := make([]float64, mc.config.NumSimulations)

	for i := range results {
		// 보유 기간 동안의 누적 수익률
		cumReturn := 1.0
		for d := 0; d < mc.config.HoldingPeriod; d++ {
			idx := mc.rng.IntN(len(returns))
			cumReturn *= 1 + returns[idx]
		}
		results[i] = cumReturn - 1
	}

	return results
}

// parametricSimulation 정규분포 가정 하에 보유기간 수익률 시뮬레이션
func (mc *MonteCarloSimulator) parametricSimulation(returns []float64) []float64 {
	results := make([]float64, mc.config.NumSimulations)

	mean, std := stat.PopMeanStdDev(returns, nil)
	period := float64(mc.config.HoldingPeriod)

	// 보유 기간 스케일링 (μT, σ√T)
	if std == 0 {
		for i := range results {
			results[i] = mean * period
		}
		return results
	}
	dist := distuv.Normal{
		Mu:    mean * period,
		Sigma: std * math.Sqrt(period),
		Src:   mc.rng,
	}

	for i := range results {
		results[i] = dist.Rand()
	}

	return results
}

// calculateResult 시뮬레이션 결과 통계 계산
func (mc *MonteCarloSimulator) calculateResult(simulated []float64) *MonteCarloResult {
	mean, stdDev := stat.MeanStdDev(simulated, nil)
	if len(simulated) < 2 {
		stdDev = 0
	}

	sorted := sortedCopy(simulated)
	tails := make([]TailEstimate, 0, len(mc.config.ConfidenceLevels))
	for _, c := range mc.config.ConfidenceLevels {
		v := Percentile(sorted, (1-c)*100)
		tails = append(tails, TailEstimate{
			Confidence: c,
			VaR:        v,
			CVaR:       tailMean(sorted, v),
		})
	}

	return &MonteCarloResult{
		RunID:       uuid.New().String(),
		Config:      mc.config,
		MeanReturn:  mean,
		StdDev:      stdDev,
		Tails:       tails,
		Percentiles: Percentiles(simulated, []int{1, 5, 10, 25, 50, 75, 90, 95, 99}),
		CreatedAt:   time.Now(),
	}
}
