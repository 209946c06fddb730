package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/marketdata"
	"github.com/wonny/quantfolio/pkg/config"
	"github.com/wonny/quantfolio/pkg/httputil"
	"github.com/wonny/quantfolio/pkg/logger"
	"github.com/wonny/quantfolio/pkg/redis"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Quantfolio - 포트폴리오 분석 퀀트 엔진",
	Long: `Quantfolio Unified CLI

Yahoo Finance 일봉 종가 기반 포트폴리오 분석 엔진.
시뮬레이션, 최적화, 리스크, 백테스트, 일일 리포트.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant prices AAPL,MSFT --period 6mo
  go run ./cmd/quant portfolio optimize AAPL,MSFT,GOOG
  go run ./cmd/quant risk AAPL,MSFT --weights AAPL=0.7,MSFT=0.3
  go run ./cmd/quant backtest run AAPL --strategy ma
  go run ./cmd/quant report daily
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app bundles the dependencies shared by every command
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	redis  *redis.Client
	prices *marketdata.Service
}

// newApp loads config and wires logger → redis → http → yahoo → price service
// 로그는 stderr (stdout 은 표/JSON 출력 전용)
func newApp() (*app, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}

	log := logger.NewWithWriter(cfg, os.Stderr)

	rc, err := redis.New(cfg)
	if err != nil {
		// Redis 장애 시 메모리 캐시만 사용
		log.WithError(err).Warn("Redis unavailable, using in-memory price cache only")
		cfg.Redis.Enabled = false
		rc, _ = redis.New(cfg)
	}

	httpClient := httputil.New(cfg, log.Component("http"))
	source := marketdata.NewYahooClient(httpClient, cfg.Yahoo.BaseURL, log.Component("yahoo"))
	service := marketdata.NewService(source, redis.NewCache(rc, ""), cfg.Data.CacheTTL, log.Component("marketdata"))

	return &app{
		cfg:    cfg,
		log:    log,
		redis:  rc,
		prices: service,
	}, nil
}

// Close releases the redis connection
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
