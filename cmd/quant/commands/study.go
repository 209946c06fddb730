package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/strategyconfig"
	"github.com/wonny/quantfolio/internal/study"
)

// studyCmd represents the study command
var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "YAML 프리셋 기반 분석",
	Long: `YAML 프리셋 하나로 시뮬레이션, 최적화, 리스크, 백테스트를 한 번에 실행합니다.

알 수 없는 필드는 즉시 실패하며, 결과에는 설정 해시가 기록됩니다.

Subcommands:
  validate  - 프리셋 검증 및 해시 출력
  run       - 프리셋 실행

Example:
  go run ./cmd/quant study validate config/study/us_megacap.yaml
  go run ./cmd/quant study run config/study/us_megacap.yaml
  go run ./cmd/quant study run config/study/us_megacap.yaml --json > result.json`,
}

var (
	studyValidateCmd = &cobra.Command{
		Use:   "validate [file]",
		Short: "프리셋 검증",
		Args:  cobra.ExactArgs(1),
		RunE:  runStudyValidate,
	}

	studyRunCmd = &cobra.Command{
		Use:   "run [file]",
		Short: "프리셋 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runStudy,
	}

	// Flags
	studyJSON      bool
	studyGitCommit string
)

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyValidateCmd)
	studyCmd.AddCommand(studyRunCmd)

	studyRunCmd.Flags().BoolVar(&studyJSON, "json", false, "결과를 JSON 으로 출력")
	studyRunCmd.Flags().StringVar(&studyGitCommit, "git-commit", "", "스냅샷에 기록할 커밋 해시")
}

func runStudyValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(args[0])
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s v%s is valid", cfg.Meta.StrategyID, cfg.Meta.Version))
	PrintKeyValue("Config Hash", hash, 12)
	PrintKeyValue("Tickers", fmt.Sprintf("%v", cfg.Universe.Tickers), 12)
	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	return nil
}

func runStudy(cmd *cobra.Command, args []string) error {
	cfg, data, err := strategyconfig.Load(args[0])
	if err != nil {
		return fmt.Errorf("load study: %w", err)
	}
	snapshot, err := strategyconfig.NewDecisionSnapshot(cfg, data, studyGitCommit)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	runner := study.NewRunner(a.prices, optimizer.FromConfig(a.cfg), a.log.Component("study"))
	result, err := runner.Run(cmd.Context(), cfg, snapshot)
	if err != nil {
		return err
	}

	if studyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printStudy(result)
	return nil
}

func printStudy(r *study.Result) {
	PrintHeader(fmt.Sprintf("Study %s v%s", r.Snapshot.StrategyID, r.Snapshot.Version),
		"Hash", r.Snapshot.ConfigHash[:12],
		"Assets", fmt.Sprintf("%v", r.Simulation.Assets),
		"Duration", r.Duration.String(),
	)
	for _, w := range r.Warnings {
		PrintInfo(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	if len(r.Dropped) > 0 {
		PrintWarning(fmt.Sprintf("No data for %v", r.Dropped))
	}

	fmt.Println("\n[Simulation] " + formatWeights(r.Simulation.Assets, r.Simulation.Weights))
	printMetrics(r.Simulation.Metrics)

	if opt := r.Optimization; opt != nil {
		fmt.Println("\n[Max Sharpe] " + formatWeights(opt.Assets, opt.Weights))
		PrintKeyValue("Return", formatPercent(opt.Return), 10)
		PrintKeyValue("Volatility", formatPercent(opt.Volatility), 10)
		PrintKeyValue("Sharpe", formatFloat(opt.Sharpe), 10)
		if opt.Approximate {
			PrintWarning("Solver did not converge; best Monte Carlo sample shown")
		}
	}

	fmt.Println("\n[Risk]")
	t := newTable("Method", "VaR (1D)", "CVaR (1D)")
	t.AppendRow([]interface{}{"Historical", formatPercent(r.Risk.VaRHistorical), formatPercent(r.Risk.CVaRHistorical)})
	t.AppendRow([]interface{}{"Parametric", formatPercent(r.Risk.VaRParametric), formatPercent(r.Risk.CVaRParametric)})
	if mc := r.MonteCarlo; mc != nil {
		if tail, ok := mc.Tail(r.Risk.Confidence); ok {
			t.AppendRow([]interface{}{"MC " + strconv.Itoa(mc.Config.HoldingPeriod) + "D", formatPercent(tail.VaR), formatPercent(tail.CVaR)})
		}
	}
	t.Render()
	if r.Check.Passed {
		PrintSuccess("Risk limits passed")
	} else {
		PrintError("Risk limits violated")
		PrintList(r.Check.Violations)
	}

	if len(r.Backtests) > 0 {
		fmt.Println("\n[Backtests]")
		bt := newTable("Asset", "Strategy", "Total", "Buy & Hold", "Sharpe", "Max DD", "Hit Ratio")
		for _, b := range r.Backtests {
			bt.AppendRow([]interface{}{
				b.Asset,
				string(b.Strategy),
				formatPercent(b.Metrics.TotalReturn),
				formatPercent(b.BenchmarkMetrics.TotalReturn),
				formatFloat(b.Metrics.Sharpe),
				formatPercent(b.Metrics.MaxDrawdown),
				formatPercent(b.Metrics.HitRatio),
			})
		}
		bt.Render()
	}
}
