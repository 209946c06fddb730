package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/portfolio"
	"github.com/wonny/quantfolio/internal/risk"
	"github.com/wonny/quantfolio/pkg/logger"
)

// RiskHandler serves VaR/CVaR of a simulated portfolio
// ⭐ SSOT: 리스크 API 핸들러는 이 구조체에서만
type RiskHandler struct {
	base
	engine       *risk.Engine
	riskFreeRate float64
	confidence   float64
	limits       risk.RiskLimits
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(provider contracts.PriceProvider, defaultPeriod string, riskFreeRate, confidence float64, log *logger.Logger) *RiskHandler {
	return &RiskHandler{
		base:         base{provider: provider, defaultPeriod: defaultPeriod, logger: log},
		engine:       risk.NewEngine(),
		riskFreeRate: riskFreeRate,
		confidence:   confidence,
		limits:       risk.DefaultRiskLimits(),
	}
}

// RiskRequest selects the portfolio and estimator options
type RiskRequest struct {
	SimulateRequest
	Confidence    float64 `json:"confidence,omitempty"`
	MonteCarlo    bool    `json:"monte_carlo,omitempty"`
	Simulations   int     `json:"simulations,omitempty"`
	HoldingPeriod int     `json:"holding_period,omitempty"`
	Seed          uint64  `json:"seed,omitempty"`
}

// RiskResponse bundles the risk report, the limit check and the optional Monte Carlo estimate
type RiskResponse struct {
	Assets      []string               `json:"assets"`
	Weights     contracts.Weights      `json:"weights"`
	Report      *contracts.RiskReport  `json:"report"`
	MaxDrawdown float64                `json:"max_drawdown"`
	Check       *risk.RiskCheckResult  `json:"check"`
	MonteCarlo  *risk.MonteCarloResult `json:"monte_carlo,omitempty"`
}

// Compute returns the risk of the portfolio's daily returns
// POST /api/risk
func (h *RiskHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req RiskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.normalize(h.defaultPeriod); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Weights = upperKeys(req.Weights)
	if req.Confidence == 0 {
		req.Confidence = h.confidence
	}

	m, err := h.load(r.Context(), req.TickersRequest)
	if err != nil {
		h.respondFailure(w, "load prices", err)
		return
	}

	weights, err := resolveWeights(m, req.Weights)
	if err != nil {
		h.respondFailure(w, "risk", err)
		return
	}

	sim, err := portfolio.Simulate(m, weights, h.riskFreeRate)
	if err != nil {
		h.respondFailure(w, "risk", err)
		return
	}

	report, err := h.engine.Compute(sim.DailyReturns, req.Confidence)
	if err != nil {
		if isConfigError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondFailure(w, "risk", err)
		return
	}

	resp := RiskResponse{
		Assets:      sim.Assets,
		Weights:     sim.Weights,
		Report:      report,
		MaxDrawdown: sim.Metrics.MaxDrawdown,
		Check:       h.engine.CheckLimits(report, sim.Metrics.MaxDrawdown, h.limits),
	}

	if req.MonteCarlo {
		cfg := risk.DefaultMonteCarloConfig()
		if req.Simulations > 0 {
			cfg.NumSimulations = req.Simulations
		}
		if req.HoldingPeriod > 0 {
			cfg.HoldingPeriod = req.HoldingPeriod
		}
		cfg.Seed = req.Seed

		mc, err := h.engine.MonteCarlo(sim.DailyReturns, cfg)
		if err != nil {
			if isConfigError(err) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.respondFailure(w, "monte carlo", err)
			return
		}
		resp.MonteCarlo = mc
	}

	respondJSON(w, http.StatusOK, resp)
}

func isConfigError(err error) bool {
	return errors.Is(err, risk.ErrInvalidConfig)
}
