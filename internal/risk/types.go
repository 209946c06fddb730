package risk

import (
	"errors"
	"time"
)

// =============================================================================
// Convention
// =============================================================================

// DefaultConfidence 기본 신뢰수준
const DefaultConfidence = 0.95

// VaRConvention VaR 부호 규약
// ⭐ SSOT: 모든 VaR/CVaR 는 일간 수익률 분위수 (음수 = 손실)
// 한도(RiskLimits)만 손실 크기를 양수로 표현
const VaRConvention = "return_quantile"

var (
	// ErrInvalidConfig 설정 오류
	ErrInvalidConfig = errors.New("invalid risk configuration")
)

// =============================================================================
// Monte Carlo Types (대체 추정기: 보유기간 VaR)
// =============================================================================

// MonteCarloMethod 시뮬레이션 방법
type MonteCarloMethod string

const (
	MethodHistoricalBootstrap MonteCarloMethod = "historical_bootstrap" // 과거 수익률 Bootstrap
	MethodParametricNormal    MonteCarloMethod = "parametric_normal"    // 정규분포 가정
)

// MonteCarloConfig Monte Carlo 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type MonteCarloConfig struct {
	NumSimulations   int              `json:"num_simulations"`   // 시뮬레이션 횟수 (기본: 10000)
	HoldingPeriod    int              `json:"holding_period"`    // 보유 기간 (일, 기본: 5)
	ConfidenceLevels []float64        `json:"confidence_levels"` // 신뢰수준 [0.95, 0.99]
	Method           MonteCarloMethod `json:"method"`            // bootstrap/normal
	Seed             uint64           `json:"seed"`              // 재현성용 시드 (0=랜덤)
	MinSamples       int              `json:"min_samples"`       // 최소 샘플 수 (fail-closed, 기본: 30)
}

// DefaultMonteCarloConfig 기본 Monte Carlo 설정
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		NumSimulations:   10000,
		HoldingPeriod:    5,
		ConfidenceLevels: []float64{0.95, 0.99},
		Method:           MethodHistoricalBootstrap,
		Seed:             0,  // 랜덤
		MinSamples:       30, // fail-closed: 30개 미만이면 실패
	}
}

// TailEstimate 신뢰수준별 VaR/CVaR (보유기간 수익률 기준)
type TailEstimate struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// MonteCarloResult Monte Carlo 시뮬레이션 결과
// ⭐ SSOT: 재현성을 위해 Config 포함, 추적을 위해 run_id 포함
type MonteCarloResult struct {
	RunID            string           `json:"run_id"`             // 실행 고유 ID
	Config           MonteCarloConfig `json:"config"`             // 재현성용 설정 기록
	InputSampleCount int              `json:"input_sample_count"` // 입력 샘플 수
	MeanReturn       float64          `json:"mean_return"`        // 시뮬레이션 평균 수익률
	StdDev           float64          `json:"std_dev"`            // 시뮬레이션 표준편차
	Tails            []TailEstimate   `json:"tails"`
	Percentiles      map[int]float64  `json:"percentiles"` // 1, 5, 10, 25, 50, 75, 90, 95, 99
	CreatedAt        time.Time        `json:"created_at"`
}

// Tail returns the estimate for a confidence level
func (r *MonteCarloResult) Tail(confidence float64) (TailEstimate, bool) {
	for _, t := range r.Tails {
		if t.Confidence == confidence {
			return t, true
		}
	}
	return TailEstimate{}, false
}

// =============================================================================
// Risk Check Types
// =============================================================================

// RiskLimits 리스크 한도 설정 (손실 크기, 양수)
type RiskLimits struct {
	MaxVaR      float64 `json:"max_var"`      // 최대 VaR 손실 (예: 0.05 = 5%)
	MaxCVaR     float64 `json:"max_cvar"`     // 최대 CVaR 손실
	MaxDrawdown float64 `json:"max_drawdown"` // 최대 MDD
}

// DefaultRiskLimits 기본 리스크 한도
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxVaR:      0.05, // 5% VaR
		MaxCVaR:     0.07, // 7% CVaR
		MaxDrawdown: 0.15, // 15% MDD
	}
}

// RiskCheckResult 리스크 체크 결과
type RiskCheckResult struct {
	Passed     bool       `json:"passed"`
	Limits     RiskLimits `json:"limits"`
	VaR        float64    `json:"var"`          // 보고서 값 (음수 = 손실)
	CVaR       float64    `json:"cvar"`         // 보고서 값 (음수 = 손실)
	Drawdown   float64    `json:"max_drawdown"` // ≤ 0
	Violations []string   `json:"violations"`
	CheckedAt  time.Time  `json:"checked_at"`
}
