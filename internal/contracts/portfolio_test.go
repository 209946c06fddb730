package contracts

import "testing"

func TestWeights_Sum(t *testing.T) {
	w := Weights{0.30, 0.25, 0.45}
	if sum := w.Sum(); sum < 0.9999 || sum > 1.0001 {
		t.Errorf("Sum() = %v, want 1.0", sum)
	}
}

func TestWeights_IsNormalized(t *testing.T) {
	tests := []struct {
		name string
		w    Weights
		want bool
	}{
		{name: "normalized", w: Weights{0.5, 0.5}, want: true},
		{name: "sum above one", w: Weights{0.6, 0.6}, want: false},
		{name: "negative entry", w: Weights{1.2, -0.2}, want: false},
		{name: "empty", w: Weights{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.IsNormalized(1e-9); got != tt.want {
				t.Errorf("IsNormalized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptimizationResult_WeightsByAsset(t *testing.T) {
	r := &OptimizationResult{
		Assets:  []string{"AAPL", "MSFT"},
		Weights: Weights{0.7, 0.3},
	}

	byAsset := r.WeightsByAsset()
	if byAsset["AAPL"] != 0.7 || byAsset["MSFT"] != 0.3 {
		t.Errorf("WeightsByAsset() = %v", byAsset)
	}
}

func TestPerformanceMetrics_IsHealthy(t *testing.T) {
	tests := []struct {
		name string
		m    PerformanceMetrics
		want bool
	}{
		{name: "healthy", m: PerformanceMetrics{Sharpe: 1.5, MaxDrawdown: -0.10}, want: true},
		{name: "low sharpe", m: PerformanceMetrics{Sharpe: 0.5, MaxDrawdown: -0.10}, want: false},
		{name: "deep drawdown", m: PerformanceMetrics{Sharpe: 2.0, MaxDrawdown: -0.45}, want: false},
		{name: "empty", m: PerformanceMetrics{Empty: true, Sharpe: 2.0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsHealthy(); got != tt.want {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.want)
			}
		})
	}
}
