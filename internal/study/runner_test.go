package study

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/strategyconfig"
	"github.com/wonny/quantfolio/pkg/logger"
)

// waveProvider serves deterministic price paths; unknown tickers are skipped
type waveProvider struct {
	days int
	fail bool
}

var phases = map[string]float64{"AAPL": 0, "MSFT": 1.1, "GOOG": 2.3}

func (p waveProvider) Prices(ctx context.Context, tickers []string, _ string) (*contracts.PriceMatrix, error) {
	if p.fail {
		return nil, errors.New("upstream unavailable")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &contracts.PriceMatrix{}
	for _, t := range tickers {
		if _, ok := phases[t]; ok {
			m.Assets = append(m.Assets, t)
		}
	}
	if len(m.Assets) == 0 {
		return &contracts.PriceMatrix{}, nil
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < p.days; d++ {
		x := float64(d)
		row := make([]float64, len(m.Assets))
		for j, a := range m.Assets {
			ph := phases[a]
			row[j] = 100 * math.Exp(0.0008*x*(1+ph)+0.04*math.Sin(0.5*x+ph)+0.015*math.Sin(0.17*x*(1+ph)))
		}
		m.Dates = append(m.Dates, start.AddDate(0, 0, d))
		m.Prices = append(m.Prices, row)
	}
	return m, nil
}

const studyYAML = `
meta:
  strategy_id: wave_study
  version: "1"
universe:
  tickers: [AAPL, MSFT, GOOG, NOPE]
  period: 1y
portfolio:
  weights: {AAPL: 0.4, MSFT: 0.3, GOOG: 0.2, NOPE: 0.1}
  risk_free_rate: 0.02
optimizer:
  enable: true
  samples: 2000
  seed: 11
  workers: 2
risk:
  confidence: 0.95
  monte_carlo:
    enable: true
    simulations: 2000
    holding_period: 5
    seed: 3
backtest:
  lag: 1
  runs:
    - ticker: AAPL
      strategy: ma
      short: 5
      long: 20
    - ticker: MSFT
      strategy: bollinger
    - ticker: GOOG
      strategy: buyhold
`

func newRunner(p waveProvider) *Runner {
	return NewRunner(p, optimizer.DefaultConfig(), logger.Nop())
}

func parse(t *testing.T) (*strategyconfig.Config, *strategyconfig.DecisionSnapshot) {
	t.Helper()
	cfg, err := strategyconfig.Parse([]byte(studyYAML))
	require.NoError(t, err)
	snap, err := strategyconfig.NewDecisionSnapshot(cfg, []byte(studyYAML), "")
	require.NoError(t, err)
	return cfg, snap
}

func TestRunner_Run(t *testing.T) {
	cfg, snap := parse(t)

	result, err := newRunner(waveProvider{days: 250}).Run(context.Background(), cfg, snap)
	require.NoError(t, err)

	assert.Equal(t, snap.ConfigHash, result.Snapshot.ConfigHash)
	assert.Equal(t, []string{"NOPE"}, result.Dropped)

	// NOPE 비중 제거 후 정규화
	require.NotNil(t, result.Simulation)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, result.Simulation.Assets)
	assert.InDelta(t, 1.0, result.Simulation.Weights.Sum(), 1e-9)
	assert.InDelta(t, 0.4/0.9, result.Simulation.Weights[0], 1e-9)

	require.NotNil(t, result.Optimization)
	assert.True(t, result.Optimization.Weights.IsNormalized(1e-6))
	assert.Len(t, result.Optimization.Frontier, 2000)

	require.NotNil(t, result.Risk)
	assert.Equal(t, 0.95, result.Risk.Confidence)
	assert.LessOrEqual(t, result.Risk.CVaRHistorical, result.Risk.VaRHistorical)
	require.NotNil(t, result.Check)

	require.NotNil(t, result.MonteCarlo)
	assert.Equal(t, 2000, result.MonteCarlo.Config.NumSimulations)

	require.Len(t, result.Backtests, 3)
	assert.Equal(t, "AAPL", result.Backtests[0].Asset)
	assert.Equal(t, contracts.StrategyMACross, result.Backtests[0].Strategy)
	assert.Equal(t, contracts.StrategyBollinger, result.Backtests[1].Strategy)

	// buy & hold == 벤치마크
	bh := result.Backtests[2]
	assert.InDeltaSlice(t, bh.Benchmark[1:], bh.Equity[1:], 1e-12)
}

func TestRunner_OptionalStages(t *testing.T) {
	cfg, snap := parse(t)
	cfg.Optimizer.Enable = false
	cfg.Risk.MonteCarlo.Enable = false
	cfg.Backtest.Runs = nil

	result, err := newRunner(waveProvider{days: 120}).Run(context.Background(), cfg, snap)
	require.NoError(t, err)

	assert.Nil(t, result.Optimization)
	assert.Nil(t, result.MonteCarlo)
	assert.Empty(t, result.Backtests)
	assert.NotNil(t, result.Risk)
}

func TestRunner_Errors(t *testing.T) {
	cfg, snap := parse(t)

	_, err := newRunner(waveProvider{fail: true}).Run(context.Background(), cfg, snap)
	assert.Error(t, err)

	cfg.Universe.Tickers = []string{"NOPE"}
	cfg.Portfolio.Weights = nil
	_, err = newRunner(waveProvider{days: 50}).Run(context.Background(), cfg, snap)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	cfg, snap = parse(t)
	cfg.Optimizer.Enable = false
	cfg.Backtest.Runs = []strategyconfig.BacktestRun{{Ticker: "NOPE", Strategy: "buyhold"}}
	_, err = newRunner(waveProvider{days: 50}).Run(context.Background(), cfg, snap)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestMissing(t *testing.T) {
	assert.Equal(t, []string{"B"}, missing([]string{"A", "B", "C"}, []string{"C", "A"}))
	assert.Nil(t, missing([]string{"A"}, []string{"A"}))
}
