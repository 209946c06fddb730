package contracts

// PerformanceMetrics summarizes a single cumulative equity curve
// ⭐ SSOT: 시뮬레이터/백테스터 공통 성과 지표
type PerformanceMetrics struct {
	Empty bool `json:"empty"` // 입력이 비어 있으면 true, 나머지 필드는 0

	// 수익률
	TotalReturn  float64 `json:"total_return"`  // 누적 수익률 (마지막 값 - 1)
	AnnualReturn float64 `json:"annual_return"` // mean × 252

	// 리스크
	Volatility  float64 `json:"volatility"`   // 연환산 변동성 (표본 표준편차 × √252)
	Sharpe      float64 `json:"sharpe"`       // (AnnualReturn - rf) / Volatility, 변동성 0 → 0
	MaxDrawdown float64 `json:"max_drawdown"` // 항상 ≤ 0

	// 백테스트 전용
	HitRatio    float64 `json:"hit_ratio,omitempty"`   // 포지션 보유일 중 수익일 비율
	ActiveDays  int     `json:"active_days,omitempty"` // 포지션 보유일 수
	TradingDays int     `json:"trading_days"`          // 수익률 관측치 수
}

// IsOutperforming checks whether these metrics beat a benchmark on total return
func (pm *PerformanceMetrics) IsOutperforming(benchmark PerformanceMetrics) bool {
	return pm.TotalReturn > benchmark.TotalReturn
}

// IsHealthy checks for a positive risk-adjusted return with a bounded drawdown
func (pm *PerformanceMetrics) IsHealthy() bool {
	return !pm.Empty && pm.Sharpe > 1.0 && pm.MaxDrawdown > -0.30
}
