package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/returns"
	"github.com/wonny/quantfolio/pkg/logger"
)

// PriceHandler serves aligned prices and correlation
// ⭐ SSOT: 시세/상관관계 API 핸들러는 이 구조체에서만
type PriceHandler struct {
	base
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(provider contracts.PriceProvider, defaultPeriod string, log *logger.Logger) *PriceHandler {
	return &PriceHandler{base{provider: provider, defaultPeriod: defaultPeriod, logger: log}}
}

// PricesResponse is the aligned matrix plus a base-100 view
type PricesResponse struct {
	Period     string                 `json:"period"`
	Prices     *contracts.PriceMatrix `json:"prices"`
	Normalized *contracts.PriceMatrix `json:"normalized"` // 첫 행 = 100
}

// GetPrices returns the aligned close matrix
// GET /api/prices?tickers=AAPL,MSFT&period=1y
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	req, err := tickersFromQuery(r, h.defaultPeriod)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.load(r.Context(), req)
	if err != nil {
		h.respondFailure(w, "load prices", err)
		return
	}

	respondJSON(w, http.StatusOK, PricesResponse{
		Period:     req.Period,
		Prices:     m,
		Normalized: returns.Normalize(m, 100),
	})
}

// CorrelationResponse is the pairwise correlation of daily returns
type CorrelationResponse struct {
	Returns      returns.Kind `json:"returns"` // simple | log
	Assets       []string     `json:"assets"`
	Matrix       [][]float64  `json:"matrix"`
	Observations int          `json:"observations"`
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
}

// GetCorrelation returns the correlation matrix of daily returns
// GET /api/correlation?tickers=AAPL,MSFT&period=1y&returns=log
func (h *PriceHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	req, err := tickersFromQuery(r, h.defaultPeriod)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := returns.ParseKind(r.URL.Query().Get("returns"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.load(r.Context(), req)
	if err != nil {
		h.respondFailure(w, "load prices", err)
		return
	}

	ret, err := returns.ComputeKind(m, kind)
	if err != nil {
		h.respondFailure(w, "correlation", err)
		return
	}
	corr, err := returns.Correlation(ret)
	if err != nil {
		h.respondFailure(w, "correlation", err)
		return
	}

	respondJSON(w, http.StatusOK, CorrelationResponse{
		Returns:      kind,
		Assets:       ret.Assets,
		Matrix:       returns.ToSlice(corr),
		Observations: ret.Len(),
		From:         ret.Dates[0],
		To:           ret.Dates[len(ret.Dates)-1],
	})
}
