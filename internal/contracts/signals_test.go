package contracts

import "testing"

func TestRiskReport_Worst(t *testing.T) {
	r := &RiskReport{
		VaRHistorical:  -0.05,
		CVaRHistorical: -0.05,
		VaRParametric:  -0.061,
		CVaRParametric: -0.072,
	}

	if got := r.WorstVaR(); got != -0.061 {
		t.Errorf("WorstVaR() = %v, want -0.061", got)
	}
	if got := r.WorstCVaR(); got != -0.072 {
		t.Errorf("WorstCVaR() = %v, want -0.072", got)
	}
}

func TestBacktestResult_Excess(t *testing.T) {
	r := &BacktestResult{
		Metrics:          PerformanceMetrics{TotalReturn: 0.25},
		BenchmarkMetrics: PerformanceMetrics{TotalReturn: 0.10},
	}

	excess := r.Excess()
	if diff := excess - 0.15; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Excess() = %v, want 0.15", excess)
	}
}
