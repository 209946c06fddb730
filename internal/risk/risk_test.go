package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantfolio/internal/contracts"
)

var scenarioReturns = []float64{-0.05, -0.03, 0.01, 0.02, 0.04}

func TestCompute_HistoricalScenario(t *testing.T) {
	report, err := Compute(scenarioReturns, 0.95)
	require.NoError(t, err)

	// numpy.percentile(x, 5) = -0.05*0.8 + -0.03*0.2
	assert.InDelta(t, -0.046, report.VaRHistorical, 1e-12)
	// 임계값 이하 수익률은 -0.05 하나
	assert.InDelta(t, -0.05, report.CVaRHistorical, 1e-12)
	assert.LessOrEqual(t, report.CVaRHistorical, report.VaRHistorical)
	assert.False(t, report.Degenerate)
	assert.Equal(t, 5, report.Observations)
}

func TestCompute_ParametricScenario(t *testing.T) {
	report, err := Compute(scenarioReturns, 0.95)
	require.NoError(t, err)

	mean := -0.002
	std := math.Sqrt(0.00548 / 5) // 모집단 표준편차
	z := -1.6448536269514729
	phi := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)

	assert.InDelta(t, mean, report.Mean, 1e-12)
	assert.InDelta(t, std, report.StdDev, 1e-12)
	assert.InDelta(t, mean+std*z, report.VaRParametric, 1e-9)
	assert.InDelta(t, mean-std*phi/0.05, report.CVaRParametric, 1e-9)
	assert.Less(t, report.CVaRParametric, report.VaRParametric)
}

func TestCompute_ZeroVariance(t *testing.T) {
	report, err := Compute([]float64{0.01, 0.01, 0.01, 0.01}, 0.95)
	require.NoError(t, err)

	assert.True(t, report.Degenerate)
	assert.Equal(t, 0.0, report.VaRHistorical)
	assert.Equal(t, 0.0, report.CVaRHistorical)
	assert.Equal(t, 0.0, report.VaRParametric)
	assert.Equal(t, 0.0, report.CVaRParametric)
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(nil, 0.95)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	_, err = Compute(scenarioReturns, 1.0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Compute([]float64{0.01, math.NaN()}, 0.95)
	assert.Error(t, err)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "min", p: 0, want: 1},
		{name: "max", p: 100, want: 5},
		{name: "median", p: 50, want: 3},
		{name: "interpolated", p: 10, want: 1.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-12)
		})
	}

	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestHistoricalHelpers(t *testing.T) {
	assert.InDelta(t, -0.046, HistoricalVaR(scenarioReturns, 0.95), 1e-12)
	assert.InDelta(t, -0.05, HistoricalCVaR(scenarioReturns, 0.95), 1e-12)
	assert.Equal(t, 0.0, HistoricalVaR(nil, 0.95))

	// 입력 슬라이스는 정렬되지 않아야 함
	in := []float64{0.03, -0.01, 0.02}
	HistoricalVaR(in, 0.95)
	assert.Equal(t, []float64{0.03, -0.01, 0.02}, in)
}

func TestCompute_UsesHistoricalHelpers(t *testing.T) {
	for _, c := range []float64{0.9, 0.95, 0.99} {
		report, err := Compute(scenarioReturns, c)
		require.NoError(t, err)
		assert.Equal(t, HistoricalVaR(scenarioReturns, c), report.VaRHistorical)
		assert.Equal(t, HistoricalCVaR(scenarioReturns, c), report.CVaRHistorical)
	}
}

func TestParametric_ZeroStdDev(t *testing.T) {
	assert.Equal(t, 0.0, ParametricVaR(0.01, 0, 0.95))
	assert.Equal(t, 0.0, ParametricCVaR(0.01, 0, 0.95))
}

func TestEngine_CheckLimits(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name       string
		report     contracts.RiskReport
		drawdown   float64
		wantPassed bool
		violations int
	}{
		{
			name:       "within limits",
			report:     contracts.RiskReport{VaRHistorical: -0.02, CVaRHistorical: -0.03, VaRParametric: -0.021, CVaRParametric: -0.028},
			drawdown:   -0.05,
			wantPassed: true,
		},
		{
			name:       "var breach via parametric",
			report:     contracts.RiskReport{VaRHistorical: -0.02, CVaRHistorical: -0.03, VaRParametric: -0.06, CVaRParametric: -0.04},
			drawdown:   -0.05,
			wantPassed: false,
			violations: 1,
		},
		{
			name:       "all breached",
			report:     contracts.RiskReport{VaRHistorical: -0.08, CVaRHistorical: -0.10, VaRParametric: -0.07, CVaRParametric: -0.09},
			drawdown:   -0.30,
			wantPassed: false,
			violations: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.CheckLimits(&tt.report, tt.drawdown, DefaultRiskLimits())
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Len(t, result.Violations, tt.violations)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultMonteCarloConfig()))

	bad := DefaultMonteCarloConfig()
	bad.NumSimulations = 0
	assert.ErrorIs(t, ValidateConfig(bad), ErrInvalidConfig)

	bad = DefaultMonteCarloConfig()
	bad.ConfidenceLevels = []float64{1.2}
	assert.ErrorIs(t, ValidateConfig(bad), ErrInvalidConfig)

	bad = DefaultMonteCarloConfig()
	bad.Method = "parametric_t"
	assert.ErrorIs(t, ValidateConfig(bad), ErrInvalidConfig)
}
