package contracts

// RiskReport holds one-day VaR/CVaR estimates at a fixed confidence
// ⭐ SSOT: 모든 값은 일간 수익률 분위수 (음수 = 손실)
type RiskReport struct {
	Confidence     float64 `json:"confidence"` // 기본 0.95
	Observations   int     `json:"observations"`
	Mean           float64 `json:"mean"`   // 일간 평균 수익률
	StdDev         float64 `json:"stddev"` // 모집단 표준편차
	VaRHistorical  float64 `json:"var_historical"`
	CVaRHistorical float64 `json:"cvar_historical"`
	VaRParametric  float64 `json:"var_parametric"`
	CVaRParametric float64 `json:"cvar_parametric"`
	Degenerate     bool    `json:"degenerate"` // 분산 0 → 모든 지표 0
}

// WorstVaR returns the more conservative (more negative) of the two VaR estimates
func (r *RiskReport) WorstVaR() float64 {
	if r.VaRParametric < r.VaRHistorical {
		return r.VaRParametric
	}
	return r.VaRHistorical
}

// WorstCVaR returns the more conservative of the two CVaR estimates
func (r *RiskReport) WorstCVaR() float64 {
	if r.CVaRParametric < r.CVaRHistorical {
		return r.CVaRParametric
	}
	return r.CVaRHistorical
}
