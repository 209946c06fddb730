package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/backtest"
	"github.com/wonny/quantfolio/internal/marketdata"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "단일 자산 시그널 백테스트",
	Long: `과거 종가에 시그널 전략을 적용하고 단순 보유와 비교합니다.

시그널은 --lag 일 만큼 밀려 적용됩니다 (기본 1, look-ahead 방지).

Strategies:
  buyhold    - 항상 매수
  ma         - 단기/장기 SMA 교차
  bollinger  - 볼린저 밴드 평균회귀
  model      - 확률 모델 (P(up) ≥ threshold → 매수)

Example:
  go run ./cmd/quant backtest run AAPL --strategy ma --short 20 --long 100
  go run ./cmd/quant backtest run MSFT --strategy bollinger --window 20 --k 2
  go run ./cmd/quant backtest run BTC-USD --strategy model --threshold 0.55 --period 2y`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run [ticker]",
		Short: "백테스트 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runBacktest,
	}

	// Flags
	backtestPeriod    string
	backtestStrategy  string
	backtestShort     int
	backtestLong      int
	backtestWindow    int
	backtestK         float64
	backtestThreshold float64
	backtestLag       int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestPeriod, "period", "", "조회 기간 (기본: DATA_DEFAULT_PERIOD)")
	backtestRunCmd.Flags().StringVar(&backtestStrategy, "strategy", "buyhold", "전략 (buyhold|ma|bollinger|model)")
	backtestRunCmd.Flags().IntVar(&backtestShort, "short", backtest.DefaultShortWindow, "단기 SMA 윈도우")
	backtestRunCmd.Flags().IntVar(&backtestLong, "long", backtest.DefaultLongWindow, "장기 SMA 윈도우")
	backtestRunCmd.Flags().IntVar(&backtestWindow, "window", backtest.DefaultBollingerWindow, "볼린저 윈도우")
	backtestRunCmd.Flags().Float64Var(&backtestK, "k", backtest.DefaultBollingerK, "볼린저 밴드 폭 (표준편차 배수)")
	backtestRunCmd.Flags().Float64Var(&backtestThreshold, "threshold", backtest.DefaultThreshold, "모델 매수 임계값")
	backtestRunCmd.Flags().IntVar(&backtestLag, "lag", 1, "시그널 적용 지연 (일)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	strategy, err := backtest.ParseStrategy(backtestStrategy)
	if err != nil {
		return err
	}
	if backtestLag < 0 {
		return fmt.Errorf("lag must be >= 0, got %d", backtestLag)
	}

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	tickers := marketdata.ParseTickers(args[0])
	if len(tickers) != 1 {
		return fmt.Errorf("backtest takes exactly one ticker, got %v", tickers)
	}

	m, period, err := a.loadPrices(cmd.Context(), tickers[0], backtestPeriod)
	if err != nil {
		return err
	}

	cfg := backtest.DefaultConfig()
	cfg.Lag = backtestLag
	cfg.RiskFreeRate = a.cfg.Quant.RiskFreeRate

	spec := backtest.StrategySpec{
		Strategy:    strategy,
		ShortWindow: backtestShort,
		LongWindow:  backtestLong,
		Window:      backtestWindow,
		K:           backtestK,
		Threshold:   backtestThreshold,
	}

	result, err := backtest.NewEngine(cfg, a.log).RunStrategy(cmd.Context(), m, m.Assets[0], spec)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	PrintHeader("Backtest",
		"Asset", result.Asset,
		"Strategy", string(result.Strategy),
		"Period", period,
		"Lag", strconv.Itoa(result.Lag),
	)

	t := newTable("Metric", "Strategy", "Buy & Hold")
	t.AppendRow([]interface{}{"Total Return", formatPercent(result.Metrics.TotalReturn), formatPercent(result.BenchmarkMetrics.TotalReturn)})
	t.AppendRow([]interface{}{"Annual Return", formatPercent(result.Metrics.AnnualReturn), formatPercent(result.BenchmarkMetrics.AnnualReturn)})
	t.AppendRow([]interface{}{"Volatility", formatPercent(result.Metrics.Volatility), formatPercent(result.BenchmarkMetrics.Volatility)})
	t.AppendRow([]interface{}{"Sharpe", formatFloat(result.Metrics.Sharpe), formatFloat(result.BenchmarkMetrics.Sharpe)})
	t.AppendRow([]interface{}{"Max Drawdown", formatPercent(result.Metrics.MaxDrawdown), formatPercent(result.BenchmarkMetrics.MaxDrawdown)})
	t.AppendRow([]interface{}{"Hit Ratio", formatPercent(result.Metrics.HitRatio), "-"})
	t.AppendRow([]interface{}{"Active Days", result.Metrics.ActiveDays, result.BenchmarkMetrics.TradingDays})
	t.Render()

	if result.Excess() > 0 {
		PrintSuccess(fmt.Sprintf("Outperformed buy & hold by %s", formatPercent(result.Excess())))
	} else {
		PrintInfo(fmt.Sprintf("Underperformed buy & hold by %s", formatPercent(-result.Excess())))
	}
	return nil
}
