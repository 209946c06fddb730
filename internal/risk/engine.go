package risk

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/returns"
)

// =============================================================================
// RiskEngine - 순수 계산기
// =============================================================================

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 데이터 수집/포트폴리오 구성은 상위 레이어에서 조립
// internal/risk는 순수 계산만 담당
type Engine struct{}

// NewEngine 새 리스크 엔진 생성
func NewEngine() *Engine {
	return &Engine{}
}

// =============================================================================
// RiskReport (Historical + Parametric)
// =============================================================================

// Compute 일간 수익률 시계열로 RiskReport 계산
// - 빈 입력: ErrInsufficientData
// - 분산 0: 네 지표 모두 0, Degenerate=true
func (e *Engine) Compute(dailyReturns []float64, confidence float64) (*contracts.RiskReport, error) {
	return Compute(dailyReturns, confidence)
}

// Compute 패키지 함수 버전 (Engine 없이 사용)
func Compute(dailyReturns []float64, confidence float64) (*contracts.RiskReport, error) {
	if len(dailyReturns) == 0 {
		return nil, fmt.Errorf("%w: risk metrics need at least 1 return", contracts.ErrInsufficientData)
	}
	if err := validateConfidence(confidence); err != nil {
		return nil, err
	}
	for i, r := range dailyReturns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: non-finite return at %d", contracts.ErrMisaligned, i)
		}
	}

	report := &contracts.RiskReport{
		Confidence:   confidence,
		Observations: len(dailyReturns),
	}

	// 모집단 표준편차 (ddof=0)
	mean, std := stat.PopMeanStdDev(dailyReturns, nil)
	report.Mean = mean

	if returns.ZeroVariance(dailyReturns) {
		report.Degenerate = true
		return report, nil
	}
	report.StdDev = std

	report.VaRHistorical = HistoricalVaR(dailyReturns, confidence)
	report.CVaRHistorical = HistoricalCVaR(dailyReturns, confidence)
	report.VaRParametric = ParametricVaR(mean, std, confidence)
	report.CVaRParametric = ParametricCVaR(mean, std, confidence)

	return report, nil
}

func validateConfidence(confidence float64) error {
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1, got %v", ErrInvalidConfig, confidence)
	}
	return nil
}

// =============================================================================
// Monte Carlo Simulation (대체 추정기)
// =============================================================================

// MonteCarlo 포트폴리오 수익률 Bootstrap/정규 Monte Carlo (보유기간 VaR)
// input: 포트폴리오 일간 수익률 (상위 레이어에서 조립해서 전달)
func (e *Engine) MonteCarlo(portfolioReturns []float64, config MonteCarloConfig) (*MonteCarloResult, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	// Fail-closed: 최소 샘플 수 체크
	if len(portfolioReturns) < config.MinSamples {
		return nil, fmt.Errorf("%w: got %d, need %d",
			contracts.ErrInsufficientData, len(portfolioReturns), config.MinSamples)
	}

	simulator := NewMonteCarloSimulator(config)
	result, err := simulator.SimulateSeries(portfolioReturns)
	if err != nil {
		return nil, err
	}

	result.InputSampleCount = len(portfolioReturns)
	return result, nil
}

// =============================================================================
// Risk Check (한도 게이트)
// =============================================================================

// CheckLimits 리스크 한도 체크 (순수 계산)
// report: Compute 결과, maxDrawdown: 시뮬레이션 MDD (≤ 0)
func (e *Engine) CheckLimits(report *contracts.RiskReport, maxDrawdown float64, limits RiskLimits) *RiskCheckResult {
	result := &RiskCheckResult{
		Passed:     true,
		Limits:     limits,
		VaR:        report.VaRHistorical,
		CVaR:       report.CVaRHistorical,
		Drawdown:   maxDrawdown,
		Violations: make([]string, 0),
		CheckedAt:  time.Now(),
	}

	// 보수적으로 두 추정치 중 더 큰 손실 사용
	varLoss := -report.WorstVaR()
	cvarLoss := -report.WorstCVaR()

	if varLoss > limits.MaxVaR {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("VaR loss %.4f exceeds limit %.4f", varLoss, limits.MaxVaR))
	}

	if cvarLoss > limits.MaxCVaR {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("CVaR loss %.4f exceeds limit %.4f", cvarLoss, limits.MaxCVaR))
	}

	if -maxDrawdown > limits.MaxDrawdown {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("drawdown %.4f exceeds limit %.4f", -maxDrawdown, limits.MaxDrawdown))
	}

	return result
}

// =============================================================================
// Utility Functions
// =============================================================================

// ValidateConfig 설정 유효성 검사
func ValidateConfig(config MonteCarloConfig) error {
	if config.NumSimulations <= 0 {
		return fmt.Errorf("%w: NumSimulations must be > 0", ErrInvalidConfig)
	}
	if config.HoldingPeriod <= 0 {
		return fmt.Errorf("%w: HoldingPeriod must be > 0", ErrInvalidConfig)
	}
	if config.MinSamples <= 0 {
		return fmt.Errorf("%w: MinSamples must be > 0", ErrInvalidConfig)
	}
	if len(config.ConfidenceLevels) == 0 {
		return fmt.Errorf("%w: ConfidenceLevels cannot be empty", ErrInvalidConfig)
	}
	for _, cl := range config.ConfidenceLevels {
		if err := validateConfidence(cl); err != nil {
			return err
		}
	}
	switch config.Method {
	case MethodHistoricalBootstrap, MethodParametricNormal:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, config.Method)
	}
	return nil
}
