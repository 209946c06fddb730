package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantfolio/internal/contracts"
)

func sampleReturns(n int) []float64 {
	out := make([]float64, n)
	pattern := []float64{0.012, -0.008, 0.004, -0.015, 0.009, 0.002, -0.003}
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

func TestEngine_MonteCarlo_Reproducible(t *testing.T) {
	e := NewEngine()
	cfg := DefaultMonteCarloConfig()
	cfg.Seed = 42
	cfg.NumSimulations = 2000

	a, err := e.MonteCarlo(sampleReturns(60), cfg)
	require.NoError(t, err)
	b, err := e.MonteCarlo(sampleReturns(60), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.MeanReturn, b.MeanReturn)
	assert.Equal(t, a.Tails, b.Tails)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, 60, a.InputSampleCount)
}

func TestEngine_MonteCarlo_TailOrdering(t *testing.T) {
	e := NewEngine()

	for _, method := range []MonteCarloMethod{MethodHistoricalBootstrap, MethodParametricNormal} {
		t.Run(string(method), func(t *testing.T) {
			cfg := DefaultMonteCarloConfig()
			cfg.Seed = 7
			cfg.Method = method

			result, err := e.MonteCarlo(sampleReturns(90), cfg)
			require.NoError(t, err)

			t95, ok := result.Tail(0.95)
			require.True(t, ok)
			t99, ok := result.Tail(0.99)
			require.True(t, ok)

			assert.LessOrEqual(t, t95.CVaR, t95.VaR)
			assert.LessOrEqual(t, t99.VaR, t95.VaR)
			assert.LessOrEqual(t, result.Percentiles[1], result.Percentiles[99])
		})
	}
}

func TestEngine_MonteCarlo_InsufficientSamples(t *testing.T) {
	e := NewEngine()
	_, err := e.MonteCarlo(sampleReturns(10), DefaultMonteCarloConfig())
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestSimulator_ConstantSeries(t *testing.T) {
	cfg := DefaultMonteCarloConfig()
	cfg.Seed = 1
	cfg.NumSimulations = 100
	cfg.Method = MethodParametricNormal

	result, err := NewMonteCarloSimulator(cfg).SimulateSeries([]float64{0.001, 0.001, 0.001})
	require.NoError(t, err)
	assert.InDelta(t, 0.005, result.MeanReturn, 1e-12)
	assert.InDelta(t, 0.0, result.StdDev, 1e-12)
}
