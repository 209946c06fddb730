package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/api"
	"github.com/wonny/quantfolio/internal/api/handlers"
	"github.com/wonny/quantfolio/internal/optimizer"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                - Health check (Redis 포함)
  GET  /metrics               - Prometheus metrics
  GET  /api/prices            - 정렬된 종가 (?tickers=AAPL,MSFT&period=1y)
  GET  /api/correlation       - 수익률 상관행렬
  POST /api/portfolio/simulate - 고정 비중 시뮬레이션
  POST /api/portfolio/optimize - 최대 Sharpe 최적화
  POST /api/risk              - VaR/CVaR (+ Monte Carlo)
  POST /api/backtest          - 단일 자산 시그널 백테스트

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quantfolio API Server ===")

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	optConfig := optimizer.FromConfig(a.cfg)
	if err := optConfig.Validate(); err != nil {
		return fmt.Errorf("optimizer config: %w", err)
	}

	period := a.cfg.Data.DefaultPeriod
	rf := a.cfg.Quant.RiskFreeRate
	log := a.log.Component("api")

	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(a.redis),
		Prices:    handlers.NewPriceHandler(a.prices, period, log),
		Portfolio: handlers.NewPortfolioHandler(a.prices, period, rf, optConfig, log),
		Risk:      handlers.NewRiskHandler(a.prices, period, rf, a.cfg.Quant.Confidence, log),
		Backtest:  handlers.NewBacktestHandler(a.prices, period, rf, log),
	}, a.cfg.MetricsEnabled, log)

	server := api.New(a.cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or startup failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
