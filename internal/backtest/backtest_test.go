package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/pkg/logger"
)

var closes = []float64{100, 102, 101, 105, 103, 108, 110, 107, 111, 115}

func TestBacktest_AlwaysLongMatchesBenchmark(t *testing.T) {
	result, err := Backtest(closes, BuyAndHold(len(closes)), 1, 0.02)
	require.NoError(t, err)

	assert.Equal(t, result.Benchmark, result.Equity)
	assert.Equal(t, 1.0, result.Equity[0])
	assert.Len(t, result.Equity, len(closes))
	assert.InDelta(t, 115.0/100-1, result.Metrics.TotalReturn, 1e-12)
	assert.Equal(t, result.BenchmarkMetrics.Sharpe, result.Metrics.Sharpe)
}

func TestBacktest_LagPreventsLookAhead(t *testing.T) {
	prices := []float64{100, 110, 99, 108.9}
	// 오늘 수익률의 부호를 그대로 쓰는 "미래 참조" 시그널
	signal := []float64{0, 1, -1, 1}

	lagged, err := Backtest(prices, signal, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, -1}, lagged.Position)
	assert.InDelta(t, -0.10, lagged.StrategyReturns[2], 1e-12)
	assert.InDelta(t, -0.10, lagged.StrategyReturns[3], 1e-12)

	// lag=0 이면 미래 정보로 모든 날 수익
	cheat, err := Backtest(prices, signal, 0, 0)
	require.NoError(t, err)
	assert.Greater(t, cheat.Metrics.TotalReturn, lagged.Metrics.TotalReturn)
}

func TestBacktest_HitRatio(t *testing.T) {
	prices := []float64{100, 101, 100, 102, 103}
	signal := []float64{1, 1, 0, 1, 1}

	result, err := Backtest(prices, signal, 1, 0)
	require.NoError(t, err)

	// position[1..4] = 1, 1, 0, 1 → returns +1%, -0.99%, (flat), +0.98%
	assert.Equal(t, 3, result.Metrics.ActiveDays)
	assert.InDelta(t, 2.0/3.0, result.Metrics.HitRatio, 1e-12)
}

func TestBacktest_Errors(t *testing.T) {
	empty, err := Backtest(nil, nil, 1, 0.02)
	require.NoError(t, err)
	assert.True(t, empty.Metrics.Empty)

	_, err = Backtest([]float64{100}, []float64{1}, 1, 0.02)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	_, err = Backtest(closes, []float64{1}, 1, 0.02)
	assert.ErrorIs(t, err, contracts.ErrMisaligned)

	_, err = Backtest(closes, BuyAndHold(len(closes)), -1, 0.02)
	assert.Error(t, err)
}

func TestMACrossover(t *testing.T) {
	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
	}

	signal, err := MACrossover(up, 3, 10)
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		assert.Equal(t, contracts.Short, signal[i], "warm-up %d", i)
	}
	for i := 9; i < 30; i++ {
		assert.Equal(t, contracts.Long, signal[i], "day %d", i)
	}

	down := make([]float64, 30)
	for i := range down {
		down[i] = 200 - float64(i)
	}
	signal, err = MACrossover(down, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, contracts.Short, signal[29])

	_, err = MACrossover(up, 10, 5)
	assert.Error(t, err)

	short, err := MACrossover(up[:5], 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, -1, -1, -1}, short)
}

func TestBollinger(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 100
		if i%2 == 1 {
			prices[i] = 101
		}
	}
	prices[20] = 80  // 하단 밴드 이탈 → long
	prices[22] = 130 // 상단 밴드 돌파 → short

	signal, err := Bollinger(prices, 20, 2.0)
	require.NoError(t, err)

	for i := 0; i < 19; i++ {
		assert.Equal(t, contracts.Flat, signal[i])
	}
	assert.Equal(t, contracts.Flat, signal[19])
	assert.Equal(t, contracts.Long, signal[20])
	assert.Equal(t, contracts.Short, signal[22])

	_, err = Bollinger(prices, 1, 2.0)
	assert.Error(t, err)
}

func TestThresholdSignal(t *testing.T) {
	signal := ThresholdSignal([]float64{0.60, 0.55, 0.54, 0.2, math.NaN()}, 0.55)
	assert.Equal(t, []float64{1, 1, -1, -1, 0}, signal)
}

func TestEnsemble(t *testing.T) {
	ctx := context.Background()
	fixed := func(p float64) contracts.Predictor {
		return PredictorFunc(func(context.Context, []float64) (float64, error) { return p, nil })
	}

	e := NewEnsemble(fixed(0.4), fixed(0.8), fixed(1.5))
	p, err := e.Predict(ctx, nil)
	require.NoError(t, err)
	assert.InDelta(t, (0.4+0.8+1.0)/3, p, 1e-12)

	_, err = NewEnsemble().Predict(ctx, nil)
	assert.ErrorIs(t, err, ErrNoPredictors)

	boom := errors.New("model offline")
	failing := PredictorFunc(func(context.Context, []float64) (float64, error) { return 0, boom })
	_, err = NewEnsemble(fixed(0.5), failing).Predict(ctx, nil)
	assert.ErrorIs(t, err, boom)
}

func TestLogisticMomentum(t *testing.T) {
	m := LogisticMomentum{Scale: 2}

	up, err := m.Predict(context.Background(), []float64{0.01, 0.02, 0.015})
	require.NoError(t, err)
	assert.Greater(t, up, 0.5)

	down, err := m.Predict(context.Background(), []float64{-0.01, -0.02, -0.015})
	require.NoError(t, err)
	assert.Less(t, down, 0.5)

	flat, err := m.Predict(context.Background(), []float64{0.01, 0.01})
	require.NoError(t, err)
	assert.Equal(t, 0.5, flat)
}

func TestModelSignal(t *testing.T) {
	var seen [][]float64
	recorder := PredictorFunc(func(_ context.Context, f []float64) (float64, error) {
		seen = append(seen, f)
		return 0.9, nil
	})

	signal, err := ModelSignal(context.Background(), closes, recorder, 3, 0.55)
	require.NoError(t, err)

	// 처음 3일은 특징량 부족 → flat
	assert.Equal(t, []float64{0, 0, 0}, signal[:3])
	for _, s := range signal[3:] {
		assert.Equal(t, contracts.Long, s)
	}
	require.Len(t, seen, len(closes)-3)
	// 최근 수익률이 먼저
	assert.InDelta(t, closes[3]/closes[2]-1, seen[0][0], 1e-12)
	assert.InDelta(t, closes[1]/closes[0]-1, seen[0][2], 1e-12)
}

func TestModelSignal_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ModelSignal(ctx, closes, DefaultModel(), 3, 0.55)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_RunStrategy(t *testing.T) {
	dates := make([]time.Time, len(closes))
	for i := range dates {
		dates[i] = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	prices := &contracts.PriceMatrix{Dates: dates, Assets: []string{"SPY"}}
	for _, c := range closes {
		prices.Prices = append(prices.Prices, []float64{c})
	}

	engine := NewEngine(DefaultConfig(), logger.Nop())

	for _, st := range []contracts.Strategy{
		contracts.StrategyBuyAndHold,
		contracts.StrategyMACross,
		contracts.StrategyBollinger,
		contracts.StrategyModel,
	} {
		t.Run(string(st), func(t *testing.T) {
			result, err := engine.RunStrategy(context.Background(), prices, "SPY", StrategySpec{
				Strategy:    st,
				ShortWindow: 2,
				LongWindow:  4,
				Window:      5,
			})
			require.NoError(t, err)
			assert.Equal(t, st, result.Strategy)
			assert.Equal(t, "SPY", result.Asset)
			assert.Equal(t, 1.0, result.Equity[0])
			assert.Equal(t, 1.0, result.Benchmark[0])
			assert.LessOrEqual(t, result.Metrics.MaxDrawdown, 0.0)
		})
	}

	_, err := engine.RunStrategy(context.Background(), prices, "QQQ", StrategySpec{})
	assert.ErrorIs(t, err, contracts.ErrMisaligned)

	_, err = engine.RunStrategy(context.Background(), prices, "SPY", StrategySpec{Strategy: "rsi"})
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	st, err := ParseStrategy("bollinger")
	require.NoError(t, err)
	assert.Equal(t, contracts.StrategyBollinger, st)

	_, err = ParseStrategy("macd")
	assert.Error(t, err)
}
