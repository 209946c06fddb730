package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/portfolio"
)

// portfolioCmd represents the portfolio command
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "포트폴리오 시뮬레이션/최적화",
	Long: `고정 비중 포트폴리오를 시뮬레이션하거나 최대 Sharpe 비중을 찾습니다.

Subcommands:
  simulate  - 고정 비중 누적 수익률 및 성과 지표
  optimize  - 최대 Sharpe 비중 + Monte Carlo frontier

Example:
  go run ./cmd/quant portfolio simulate AAPL,MSFT --weights AAPL=0.6,MSFT=0.4
  go run ./cmd/quant portfolio optimize AAPL,MSFT,GOOG --samples 5000 --seed 42`,
}

var (
	portfolioSimulateCmd = &cobra.Command{
		Use:   "simulate [tickers]",
		Short: "고정 비중 시뮬레이션",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioSimulate,
	}

	portfolioOptimizeCmd = &cobra.Command{
		Use:   "optimize [tickers]",
		Short: "최대 Sharpe 최적화",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioOptimize,
	}

	// Flags
	portfolioPeriod  string
	portfolioWeights string
	portfolioSamples int
	portfolioSeed    uint64
)

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioSimulateCmd)
	portfolioCmd.AddCommand(portfolioOptimizeCmd)

	portfolioCmd.PersistentFlags().StringVar(&portfolioPeriod, "period", "", "조회 기간 (기본: DATA_DEFAULT_PERIOD)")

	portfolioSimulateCmd.Flags().StringVar(&portfolioWeights, "weights", "", "비중 (AAPL=0.6,MSFT=0.4, 기본: 동일 비중)")

	portfolioOptimizeCmd.Flags().IntVar(&portfolioSamples, "samples", 0, "Monte Carlo 포트폴리오 수 (기본: MC_SAMPLES)")
	portfolioOptimizeCmd.Flags().Uint64Var(&portfolioSeed, "seed", 0, "난수 시드 (0 = MC_SEED)")
}

func runPortfolioSimulate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	byTicker, err := parseWeights(portfolioWeights)
	if err != nil {
		return err
	}

	m, period, err := a.loadPrices(cmd.Context(), args[0], portfolioPeriod)
	if err != nil {
		return err
	}

	weights, err := resolveWeights(m, byTicker)
	if err != nil {
		return err
	}

	sim, err := portfolio.NewSimulator(a.cfg.Quant.RiskFreeRate, a.log).Simulate(m, weights)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	PrintHeader("Portfolio Simulation",
		"Period", period,
		"Weights", formatWeights(sim.Assets, sim.Weights),
		"From", sim.Dates[0].Format("2006-01-02"),
		"To", sim.Dates[len(sim.Dates)-1].Format("2006-01-02"),
	)
	if sim.Rescaled {
		PrintWarning("입력 비중 합계가 1이 아니어서 정규화했습니다")
	}
	printMetrics(sim.Metrics)
	return nil
}

func runPortfolioOptimize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	cfg := optimizer.FromConfig(a.cfg)
	if portfolioSamples > 0 {
		cfg.Samples = portfolioSamples
	}
	if portfolioSeed != 0 {
		cfg.Seed = portfolioSeed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, period, err := a.loadPrices(cmd.Context(), args[0], portfolioPeriod)
	if err != nil {
		return err
	}

	result, err := optimizer.New(cfg, a.log).Optimize(cmd.Context(), m)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	PrintHeader("Max-Sharpe Optimization",
		"Period", period,
		"Run ID", result.RunID,
		"Samples", strconv.Itoa(len(result.Frontier)),
		"Solver", result.SolverStatus,
	)
	if result.Approximate {
		PrintWarning("Solver did not converge; using the best Monte Carlo sample")
	}

	t := newTable("Asset", "Weight")
	for i, asset := range result.Assets {
		t.AppendRow([]interface{}{asset, formatPercent(result.Weights[i])})
	}
	t.AppendFooter([]interface{}{"Total", formatPercent(result.Weights.Sum())})
	t.Render()

	PrintKeyValue("Expected Return", formatPercent(result.Return), 16)
	PrintKeyValue("Volatility", formatPercent(result.Volatility), 16)
	PrintKeyValue("Sharpe", formatFloat(result.Sharpe), 16)
	PrintKeyValue("Risk-free Rate", formatPercent(result.RiskFreeRate), 16)
	return nil
}

// printMetrics renders one PerformanceMetrics block
func printMetrics(pm contracts.PerformanceMetrics) {
	if pm.Empty {
		PrintInfo("No return observations")
		return
	}

	t := newTable("Metric", "Value")
	t.AppendRow([]interface{}{"Total Return", formatPercent(pm.TotalReturn)})
	t.AppendRow([]interface{}{"Annual Return", formatPercent(pm.AnnualReturn)})
	t.AppendRow([]interface{}{"Volatility", formatPercent(pm.Volatility)})
	t.AppendRow([]interface{}{"Sharpe", formatFloat(pm.Sharpe)})
	t.AppendRow([]interface{}{"Max Drawdown", formatPercent(pm.MaxDrawdown)})
	t.AppendRow([]interface{}{"Trading Days", pm.TradingDays})
	t.Render()
}

// parseWeights parses "AAPL=0.6,MSFT=0.4" into an upper-cased ticker map
// 빈 문자열 → nil (동일 비중)
func parseWeights(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]float64)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ticker, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q (expected TICKER=WEIGHT)", part)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %s: %w", ticker, err)
		}
		out[strings.ToUpper(strings.TrimSpace(ticker))] = w
	}
	return out, nil
}

// resolveWeights maps ticker weights onto the loaded assets
// 데이터가 없어 빠진 티커의 비중은 경고 후 버림
func resolveWeights(m *contracts.PriceMatrix, byTicker map[string]float64) (contracts.Weights, error) {
	w, dropped, err := portfolio.ResolveWeights(m.Assets, byTicker)
	if len(dropped) > 0 {
		PrintWarning(fmt.Sprintf("Ignoring weights for tickers without data: %v", dropped))
	}
	return w, err
}
