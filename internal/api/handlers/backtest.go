package handlers

import (
	"net/http"

	"github.com/wonny/quantfolio/internal/backtest"
	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/pkg/logger"
)

// BacktestHandler serves single-asset signal backtests
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	base
	riskFreeRate float64
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(provider contracts.PriceProvider, defaultPeriod string, riskFreeRate float64, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		base:         base{provider: provider, defaultPeriod: defaultPeriod, logger: log},
		riskFreeRate: riskFreeRate,
	}
}

// BacktestRequest selects the asset, strategy and its parameters
type BacktestRequest struct {
	Ticker    string  `json:"ticker"`
	Period    string  `json:"period,omitempty"`
	Strategy  string  `json:"strategy,omitempty"` // buyhold|ma|bollinger|model
	Short     int     `json:"short,omitempty"`
	Long      int     `json:"long,omitempty"`
	Window    int     `json:"window,omitempty"`
	K         float64 `json:"k,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Lag       *int    `json:"lag,omitempty"` // 기본 1
}

// Run backtests the strategy on one asset
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tickers := TickersRequest{Tickers: []string{req.Ticker}, Period: req.Period}
	if err := tickers.normalize(h.defaultPeriod); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Strategy == "" {
		req.Strategy = string(contracts.StrategyBuyAndHold)
	}
	strategy, err := backtest.ParseStrategy(req.Strategy)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := backtest.DefaultConfig()
	cfg.RiskFreeRate = h.riskFreeRate
	if req.Lag != nil {
		if *req.Lag < 0 {
			respondError(w, http.StatusBadRequest, "lag must be >= 0")
			return
		}
		cfg.Lag = *req.Lag
	}

	m, err := h.load(r.Context(), tickers)
	if err != nil {
		h.respondFailure(w, "load prices", err)
		return
	}
	if m.IsEmpty() {
		respondError(w, http.StatusUnprocessableEntity, "no price data for "+tickers.Tickers[0])
		return
	}

	spec := backtest.StrategySpec{
		Strategy:    strategy,
		ShortWindow: req.Short,
		LongWindow:  req.Long,
		Window:      req.Window,
		K:           req.K,
		Threshold:   req.Threshold,
	}

	result, err := backtest.NewEngine(cfg, h.logger).RunStrategy(r.Context(), m, tickers.Tickers[0], spec)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			// 잘못된 윈도우 등 파라미터 오류
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondFailure(w, "backtest", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
