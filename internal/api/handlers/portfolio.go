package handlers

import (
	"net/http"
	"strings"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/portfolio"
	"github.com/wonny/quantfolio/pkg/logger"
)

// PortfolioHandler serves simulation and optimization
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	base
	riskFreeRate float64
	optConfig    optimizer.Config
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(provider contracts.PriceProvider, defaultPeriod string, riskFreeRate float64, optConfig optimizer.Config, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		base:         base{provider: provider, defaultPeriod: defaultPeriod, logger: log},
		riskFreeRate: riskFreeRate,
		optConfig:    optConfig,
	}
}

// SimulateRequest selects assets and optional weights by ticker
type SimulateRequest struct {
	TickersRequest
	Weights map[string]float64 `json:"weights,omitempty"` // 없으면 동일 비중
}

// resolveWeights maps requested weights onto the loaded assets
// 다운로드 실패로 빠진 티커의 비중은 버리고 나머지를 정규화
func resolveWeights(m *contracts.PriceMatrix, byTicker map[string]float64) (contracts.Weights, error) {
	w, _, err := portfolio.ResolveWeights(m.Assets, byTicker)
	return w, err
}

// Simulate runs a static-weight portfolio over the period
// POST /api/portfolio/simulate
func (h *PortfolioHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.normalize(h.defaultPeriod); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Weights = upperKeys(req.Weights)

	m, err := h.load(r.Context(), req.TickersRequest)
	if err != nil {
		h.respondFailure(w, "load prices", err)
		return
	}

	weights, err := resolveWeights(m, req.Weights)
	if err != nil {
		h.respondFailure(w, "simulate", err)
		return
	}

	result, err := portfolio.NewSimulator(h.riskFreeRate, h.logger).Simulate(m, weights)
	if err != nil {
		h.respondFailure(w, "simulate", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// OptimizeRequest selects assets and optional optimizer overrides
type OptimizeRequest struct {
	TickersRequest
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty"`
	Samples      int      `json:"samples,omitempty"`
	Seed         uint64   `json:"seed,omitempty"`
	KeepWeights  bool     `json:"keep_weights,omitempty"` // frontier 점별 비중 포함
}

// Optimize finds the max-Sharpe long-only allocation
// POST /api/portfolio/optimize
func (h *PortfolioHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.normalize(h.defaultPeriod); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.optConfig
	if req.RiskFreeRate != nil {
		cfg.RiskFreeRate = *req.RiskFreeRate
	}
	if req.Samples > 0 {
		cfg.Samples = req.Samples
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	cfg.KeepWeights = req.KeepWeights
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.load(r.Context(), req.TickersRequest)
	if err != nil {
		h.respondFailure(w, "load prices", err)
		return
	}

	result, err := optimizer.New(cfg, h.logger).Optimize(r.Context(), m)
	if err != nil {
		h.respondFailure(w, "optimize", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func upperKeys(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return in
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToUpper(strings.TrimSpace(k))] += v
	}
	return out
}
