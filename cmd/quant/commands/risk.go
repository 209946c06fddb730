package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/portfolio"
	"github.com/wonny/quantfolio/internal/risk"
)

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk [tickers]",
	Short: "포트폴리오 VaR/CVaR",
	Long: `포트폴리오 일간 수익률의 VaR/CVaR (역사적/모수적)를 계산하고
리스크 한도를 점검합니다. --monte-carlo 는 보유기간 시뮬레이션을 추가합니다.

Example:
  go run ./cmd/quant risk AAPL,MSFT --weights AAPL=0.7,MSFT=0.3
  go run ./cmd/quant risk AAPL,MSFT,GOOG --confidence 0.99
  go run ./cmd/quant risk AAPL,MSFT --monte-carlo --simulations 20000 --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runRisk,
}

var (
	riskPeriod        string
	riskWeights       string
	riskConfidence    float64
	riskMonteCarlo    bool
	riskSimulations   int
	riskHoldingPeriod int
	riskSeed          uint64
)

func init() {
	rootCmd.AddCommand(riskCmd)

	// Flags
	riskCmd.Flags().StringVar(&riskPeriod, "period", "", "조회 기간 (기본: DATA_DEFAULT_PERIOD)")
	riskCmd.Flags().StringVar(&riskWeights, "weights", "", "비중 (AAPL=0.6,MSFT=0.4, 기본: 동일 비중)")
	riskCmd.Flags().Float64Var(&riskConfidence, "confidence", 0, "신뢰수준 (기본: RISK_CONFIDENCE)")
	riskCmd.Flags().BoolVar(&riskMonteCarlo, "monte-carlo", false, "Monte Carlo 보유기간 VaR 추가")
	riskCmd.Flags().IntVar(&riskSimulations, "simulations", 0, "시뮬레이션 횟수 (기본: 10000)")
	riskCmd.Flags().IntVar(&riskHoldingPeriod, "holding-period", 0, "보유 기간 (일, 기본: 5)")
	riskCmd.Flags().Uint64Var(&riskSeed, "seed", 0, "난수 시드 (0 = 랜덤)")
}

func runRisk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	byTicker, err := parseWeights(riskWeights)
	if err != nil {
		return err
	}
	confidence := riskConfidence
	if confidence == 0 {
		confidence = a.cfg.Quant.Confidence
	}

	m, period, err := a.loadPrices(cmd.Context(), args[0], riskPeriod)
	if err != nil {
		return err
	}
	weights, err := resolveWeights(m, byTicker)
	if err != nil {
		return err
	}

	sim, err := portfolio.Simulate(m, weights, a.cfg.Quant.RiskFreeRate)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	engine := risk.NewEngine()
	report, err := engine.Compute(sim.DailyReturns, confidence)
	if err != nil {
		return fmt.Errorf("risk: %w", err)
	}

	PrintHeader("Portfolio Risk",
		"Period", period,
		"Weights", formatWeights(sim.Assets, sim.Weights),
		"Conf.", formatPercent(report.Confidence),
		"Obs.", strconv.Itoa(report.Observations),
	)
	if report.Degenerate {
		PrintWarning("Zero-variance returns; all risk measures are 0")
	}

	t := newTable("Method", "VaR (1D)", "CVaR (1D)")
	t.AppendRow([]interface{}{"Historical", formatPercent(report.VaRHistorical), formatPercent(report.CVaRHistorical)})
	t.AppendRow([]interface{}{"Parametric", formatPercent(report.VaRParametric), formatPercent(report.CVaRParametric)})
	t.Render()

	check := engine.CheckLimits(report, sim.Metrics.MaxDrawdown, risk.DefaultRiskLimits())
	PrintKeyValue("Max Drawdown", formatPercent(sim.Metrics.MaxDrawdown), 14)
	if check.Passed {
		PrintSuccess("Risk limits passed")
	} else {
		PrintError("Risk limits violated")
		PrintList(check.Violations)
	}

	if !riskMonteCarlo {
		return nil
	}

	mcConfig := risk.DefaultMonteCarloConfig()
	if riskSimulations > 0 {
		mcConfig.NumSimulations = riskSimulations
	}
	if riskHoldingPeriod > 0 {
		mcConfig.HoldingPeriod = riskHoldingPeriod
	}
	mcConfig.Seed = riskSeed

	mc, err := engine.MonteCarlo(sim.DailyReturns, mcConfig)
	if err != nil {
		return fmt.Errorf("monte carlo: %w", err)
	}

	fmt.Println()
	mt := newTable("Confidence", fmt.Sprintf("VaR (%dD)", mc.Config.HoldingPeriod), fmt.Sprintf("CVaR (%dD)", mc.Config.HoldingPeriod))
	for _, tail := range mc.Tails {
		mt.AppendRow([]interface{}{formatPercent(tail.Confidence), formatPercent(tail.VaR), formatPercent(tail.CVaR)})
	}
	mt.SetTitle(fmt.Sprintf("Monte Carlo (%d sims, run %s)", mc.Config.NumSimulations, mc.RunID))
	mt.Render()
	return nil
}
