package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantfolio/internal/api/handlers"
	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/returns"
	"github.com/wonny/quantfolio/pkg/logger"
)

// synthProvider serves deterministic oscillating price paths for known tickers
type synthProvider struct {
	days int
}

var synthTickers = map[string]float64{"AAPL": 0, "MSFT": 1.3, "BTC-USD": 2.1}

func (p synthProvider) Prices(_ context.Context, tickers []string, _ string) (*contracts.PriceMatrix, error) {
	m := &contracts.PriceMatrix{}
	for _, t := range tickers {
		if _, ok := synthTickers[t]; ok {
			m.Assets = append(m.Assets, t)
		}
	}
	if len(m.Assets) == 0 {
		return &contracts.PriceMatrix{}, nil
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < p.days; d++ {
		row := make([]float64, len(m.Assets))
		for j, a := range m.Assets {
			phase := synthTickers[a]
			x := float64(d)
			row[j] = 100 * math.Exp(0.001*x*(1+phase)+0.03*math.Sin(0.7*x+phase)+0.02*math.Sin(0.23*x*(1+phase)))
		}
		m.Dates = append(m.Dates, start.AddDate(0, 0, d))
		m.Prices = append(m.Prices, row)
	}
	return m, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, days int) http.Handler {
	t.Helper()
	log := logger.Nop()
	provider := synthProvider{days: days}

	optCfg := optimizer.DefaultConfig()
	optCfg.Samples = optimizer.MinSamples
	optCfg.Seed = 7

	return NewRouter(Handlers{
		Health:    handlers.NewHealthHandler(nil),
		Prices:    handlers.NewPriceHandler(provider, "1y", log),
		Portfolio: handlers.NewPortfolioHandler(provider, "1y", 0.02, optCfg, log),
		Risk:      handlers.NewRiskHandler(provider, "1y", 0.02, 0.95, log),
		Backtest:  handlers.NewBacktestHandler(provider, "1y", 0.02, log),
	}, true, log)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, 10)

	rec := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])

	degraded := handlers.NewHealthHandler(failingPinger{})
	rec = httptest.NewRecorder()
	degraded.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetPrices(t *testing.T) {
	router := newTestRouter(t, 10)

	rec := do(t, router, http.MethodGet, "/api/prices?tickers=aapl,msft&period=3mo", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.PricesResponse
	decode(t, rec, &body)
	assert.Equal(t, "3mo", body.Period)
	assert.Equal(t, []string{"AAPL", "MSFT"}, body.Prices.Assets)
	assert.Equal(t, 10, body.Prices.Len())
	assert.InDelta(t, 100.0, body.Normalized.Prices[0][1], 1e-9)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/prices", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/prices?tickers=AAPL&period=max", "").Code)
}

func TestGetCorrelation(t *testing.T) {
	router := newTestRouter(t, 40)

	rec := do(t, router, http.MethodGet, "/api/correlation?tickers=AAPL,MSFT,BTC-USD", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.CorrelationResponse
	decode(t, rec, &body)
	require.Len(t, body.Matrix, 3)
	assert.Equal(t, returns.KindSimple, body.Returns)
	assert.Equal(t, 39, body.Observations)
	for i := range body.Matrix {
		assert.Equal(t, 1.0, body.Matrix[i][i])
		for j := range body.Matrix {
			assert.InDelta(t, body.Matrix[i][j], body.Matrix[j][i], 1e-12)
			assert.LessOrEqual(t, math.Abs(body.Matrix[i][j]), 1.0)
		}
	}

	// 로그 수익률
	rec = do(t, router, http.MethodGet, "/api/correlation?tickers=AAPL,MSFT&returns=log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var logBody handlers.CorrelationResponse
	decode(t, rec, &logBody)
	assert.Equal(t, returns.KindLog, logBody.Returns)
	require.Len(t, logBody.Matrix, 2)
	assert.Equal(t, 1.0, logBody.Matrix[0][0])

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/correlation?tickers=AAPL,MSFT&returns=excess", "").Code)

	// 2일치 → 수익률 1행 → 공분산 불가
	short := newTestRouter(t, 2)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, short, http.MethodGet, "/api/correlation?tickers=AAPL,MSFT", "").Code)
}

func TestSimulate(t *testing.T) {
	router := newTestRouter(t, 30)

	rec := do(t, router, http.MethodPost, "/api/portfolio/simulate", `{"tickers":["AAPL","MSFT"],"weights":{"aapl":3,"MSFT":1}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result contracts.SimulationResult
	decode(t, rec, &result)
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, result.Weights, 1e-12)
	assert.True(t, result.Rescaled)
	assert.Equal(t, 1.0, result.CumulativeReturns[0])
	assert.Len(t, result.CumulativeReturns, 30)
	assert.LessOrEqual(t, result.Metrics.MaxDrawdown, 0.0)

	// 비중 없음 → 동일 비중
	rec = do(t, router, http.MethodPost, "/api/portfolio/simulate", `{"tickers":["AAPL","MSFT"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result = contracts.SimulationResult{}
	decode(t, rec, &result)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, result.Weights, 1e-12)
	assert.False(t, result.Rescaled)
}

func TestSimulate_BadInput(t *testing.T) {
	router := newTestRouter(t, 30)

	rec := do(t, router, http.MethodPost, "/api/portfolio/simulate", `{"tickers":["AAPL","MSFT"],"weights":{"AAPL":0,"MSFT":0}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/portfolio/simulate", `{"tickers":["AAPL"],"weights":{"AAPL":-1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/portfolio/simulate", `{"tickers":["AAPL"],"unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/portfolio/simulate", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimize(t *testing.T) {
	router := newTestRouter(t, 120)

	rec := do(t, router, http.MethodPost, "/api/portfolio/optimize", `{"tickers":["AAPL","MSFT","BTC-USD"],"seed":42}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result contracts.OptimizationResult
	decode(t, rec, &result)
	assert.True(t, result.Weights.IsNormalized(1e-6))
	assert.Len(t, result.Frontier, optimizer.MinSamples)
	assert.Nil(t, result.Frontier[0].Weights)
	assert.GreaterOrEqual(t, result.Sharpe, result.BestSample.Sharpe-1e-6)

	rec = do(t, router, http.MethodPost, "/api/portfolio/optimize", `{"tickers":["AAPL"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/portfolio/optimize", `{"tickers":["AAPL","MSFT"],"samples":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRisk(t *testing.T) {
	router := newTestRouter(t, 60)

	rec := do(t, router, http.MethodPost, "/api/risk", `{"tickers":["AAPL","MSFT"],"confidence":0.95,"monte_carlo":true,"simulations":500,"seed":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Report      contracts.RiskReport `json:"report"`
		MaxDrawdown float64              `json:"max_drawdown"`
		MonteCarlo  *struct {
			Tails []interface{} `json:"tails"`
		} `json:"monte_carlo"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 59, body.Report.Observations)
	assert.LessOrEqual(t, body.Report.CVaRHistorical, body.Report.VaRHistorical)
	assert.LessOrEqual(t, body.Report.CVaRParametric, body.Report.VaRParametric)
	require.NotNil(t, body.MonteCarlo)

	rec = do(t, router, http.MethodPost, "/api/risk", `{"tickers":["AAPL"],"confidence":1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/risk", `{"tickers":["NOPE"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBacktest(t *testing.T) {
	router := newTestRouter(t, 60)

	rec := do(t, router, http.MethodPost, "/api/backtest", `{"ticker":"AAPL","strategy":"ma","short":3,"long":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result contracts.BacktestResult
	decode(t, rec, &result)
	assert.Equal(t, contracts.StrategyMACross, result.Strategy)
	assert.Equal(t, 1, result.Lag)
	assert.Len(t, result.Equity, 60)

	// 항상 매수 → 벤치마크와 동일
	rec = do(t, router, http.MethodPost, "/api/backtest", `{"ticker":"MSFT","strategy":"buyhold","lag":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &result)
	assert.Equal(t, result.Benchmark, result.Equity)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/backtest", `{"ticker":"AAPL","strategy":"rsi"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/backtest", `{"ticker":"AAPL","strategy":"ma","short":10,"long":5}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, router, http.MethodPost, "/api/backtest", `{"ticker":"NOPE"}`).Code)
}

func TestNotFoundAndMetrics(t *testing.T) {
	router := newTestRouter(t, 10)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/nothing", "").Code)

	do(t, router, http.MethodGet, "/api/prices?tickers=AAPL", "")
	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/prices"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
