package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/marketdata"
)

// maxBodyBytes request body limit
const maxBodyBytes = 1 << 20

// TickersRequest is the common ticker selection of every analytics request
type TickersRequest struct {
	Tickers []string `json:"tickers"`
	Period  string   `json:"period,omitempty"`
}

// normalize upper-cases tickers and fills the default period
func (t *TickersRequest) normalize(defaultPeriod string) error {
	t.Tickers = marketdata.NormalizeTickers(t.Tickers)
	if len(t.Tickers) == 0 {
		return errors.New("tickers is required")
	}
	if t.Period == "" {
		t.Period = defaultPeriod
	}
	return marketdata.ValidatePeriod(t.Period)
}

// tickersFromQuery reads ?tickers=AAPL,MSFT&period=1y
func tickersFromQuery(r *http.Request, defaultPeriod string) (TickersRequest, error) {
	q := r.URL.Query()
	req := TickersRequest{
		Tickers: marketdata.ParseTickers(q.Get("tickers")),
		Period:  strings.TrimSpace(q.Get("period")),
	}
	return req, req.normalize(defaultPeriod)
}

// decodeJSON decodes a bounded JSON body, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps the quant error taxonomy onto HTTP status codes
// - 데이터 부족/비중 오류/정렬 오류: 422
// - 그 외: 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInsufficientData),
		errors.Is(err, contracts.ErrBadWeights),
		errors.Is(err, contracts.ErrMisaligned),
		errors.Is(err, contracts.ErrDegenerateInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondFailure logs unexpected errors and writes the mapped status
func (b *base) respondFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		b.logger.WithError(err).WithField("op", op).Error("Request failed")
		respondError(w, status, fmt.Sprintf("%s failed", op))
		return
	}
	respondError(w, status, err.Error())
}
