package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/marketdata"
	"github.com/wonny/quantfolio/internal/report"
	"github.com/wonny/quantfolio/pkg/redis"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "일일 리포트",
	Long: `관심 종목의 종가, 1일 수익률, 변동성을 표로 정리한 일일 리포트를 생성합니다.

기본 종목은 REPORT_TICKERS, 저장 위치는 REPORT_DIR 입니다.

Example:
  go run ./cmd/quant report daily
  go run ./cmd/quant report daily --tickers AAPL,MSFT,BTC-USD --stdout
  go run ./cmd/quant report daily --date 2024-06-07 --dir /tmp/reports`,
}

var (
	reportDailyCmd = &cobra.Command{
		Use:   "daily",
		Short: "일일 리포트 생성",
		RunE:  runDailyReport,
	}

	// Flags
	reportDate    string
	reportTickers string
	reportDir     string
	reportPeriod  string
	reportStdout  bool
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDailyCmd)

	reportDailyCmd.Flags().StringVar(&reportDate, "date", "", "리포트 날짜 (YYYY-MM-DD, 기본: 오늘)")
	reportDailyCmd.Flags().StringVar(&reportTickers, "tickers", "", "종목 (기본: REPORT_TICKERS)")
	reportDailyCmd.Flags().StringVar(&reportDir, "dir", "", "저장 디렉토리 (기본: REPORT_DIR)")
	reportDailyCmd.Flags().StringVar(&reportPeriod, "period", "", "변동성 기간 (기본: REPORT_PERIOD)")
	reportDailyCmd.Flags().BoolVar(&reportStdout, "stdout", false, "파일 대신 표준출력")
}

func runDailyReport(cmd *cobra.Command, args []string) error {
	date := time.Now()
	if reportDate != "" {
		d, err := time.Parse("2006-01-02", reportDate)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", reportDate, err)
		}
		date = d
	}

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	cfg := a.cfg.Report
	if reportTickers != "" {
		cfg.Tickers = marketdata.ParseTickers(reportTickers)
	}
	if reportDir != "" {
		cfg.Dir = reportDir
	}
	if reportPeriod != "" {
		cfg.Period = reportPeriod
	}
	if err := marketdata.ValidatePeriod(cfg.Period); err != nil {
		return err
	}

	generator := report.NewGenerator(a.prices, cfg, a.log.Component("report"))

	if reportStdout {
		r, err := generator.Build(cmd.Context(), date)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		return report.Render(os.Stdout, r)
	}

	if a.redis.Enabled() {
		generator.WithSnapshots(redis.NewCache(a.redis, ""), redis.TTLReport)
	}

	path, r, err := generator.Generate(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Report saved: %s (%d assets)", path, len(r.Rows)))
	if len(r.Skipped) > 0 {
		PrintWarning(fmt.Sprintf("Skipped: %v", r.Skipped))
	}
	return nil
}
