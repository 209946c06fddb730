package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quantfolio/internal/api/handlers"
	"github.com/wonny/quantfolio/internal/monitoring"
	"github.com/wonny/quantfolio/pkg/logger"
)

// Handlers groups every endpoint handler
type Handlers struct {
	Health    *handlers.HealthHandler
	Prices    *handlers.PriceHandler
	Portfolio *handlers.PortfolioHandler
	Risk      *handlers.RiskHandler
	Backtest  *handlers.BacktestHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, metricsEnabled bool, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Health).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", monitoring.NewMetricsHandler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Data endpoints
	api.HandleFunc("/prices", h.Prices.GetPrices).Methods("GET")
	api.HandleFunc("/correlation", h.Prices.GetCorrelation).Methods("GET")

	// Portfolio endpoints
	api.HandleFunc("/portfolio/simulate", h.Portfolio.Simulate).Methods("POST")
	api.HandleFunc("/portfolio/optimize", h.Portfolio.Optimize).Methods("POST")

	// Risk / backtest endpoints
	api.HandleFunc("/risk", h.Risk.Compute).Methods("POST")
	api.HandleFunc("/backtest", h.Backtest.Run).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Apply middleware (recovery 가 가장 안쪽)
	r.Use(loggingMiddleware(log))
	if metricsEnabled {
		r.Use(metricsMiddleware)
	}
	r.Use(recoveryMiddleware(log))

	return r
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Not found",
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// metricsMiddleware counts requests by route template
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		monitoring.RecordRequest(route, r.Method, rec.status, time.Since(start))
	})
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
