package commands

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/marketdata"
	"github.com/wonny/quantfolio/internal/returns"
)

// pricesCmd represents the prices command
var pricesCmd = &cobra.Command{
	Use:   "prices [tickers]",
	Short: "정렬된 종가 조회",
	Long: `티커별 일봉 종가를 받아 공통 거래일로 정렬한 가격 행렬을 출력합니다.

다운로드에 실패한 티커는 경고 후 제외됩니다.

Example:
  go run ./cmd/quant prices AAPL,MSFT --period 6mo
  go run ./cmd/quant prices AAPL,MSFT,GOOG --normalize --tail 20
  go run ./cmd/quant prices AAPL,MSFT,BTC-USD --correlation
  go run ./cmd/quant prices AAPL,MSFT,BTC-USD --correlation --log-returns`,
	Args: cobra.ExactArgs(1),
	RunE: runPrices,
}

var (
	pricesPeriod      string
	pricesTail        int
	pricesNormalize   bool
	pricesCorrelation bool
	pricesLogReturns  bool
)

func init() {
	rootCmd.AddCommand(pricesCmd)

	// Flags
	pricesCmd.Flags().StringVar(&pricesPeriod, "period", "", "조회 기간 (5d|1mo|3mo|6mo|1y|2y|5y, 기본: DATA_DEFAULT_PERIOD)")
	pricesCmd.Flags().IntVar(&pricesTail, "tail", 10, "출력할 최근 행 수 (0 = 전체)")
	pricesCmd.Flags().BoolVar(&pricesNormalize, "normalize", false, "첫 날 100 기준 지수화")
	pricesCmd.Flags().BoolVar(&pricesCorrelation, "correlation", false, "수익률 상관행렬 출력")
	pricesCmd.Flags().BoolVar(&pricesLogReturns, "log-returns", false, "상관행렬에 로그 수익률 사용")
}

func runPrices(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	m, period, err := a.loadPrices(cmd.Context(), args[0], pricesPeriod)
	if err != nil {
		return err
	}

	PrintHeader("Aligned Prices",
		"Period", period,
		"Assets", fmt.Sprintf("%v", m.Assets),
		"Rows", fmt.Sprintf("%d", m.Len()),
	)

	shown := m
	if pricesNormalize {
		shown = returns.Normalize(m, 100)
	}
	printPriceTable(shown, pricesTail)

	if pricesCorrelation {
		kind := returns.KindSimple
		if pricesLogReturns {
			kind = returns.KindLog
		}
		r, err := returns.ComputeKind(m, kind)
		if err != nil {
			return fmt.Errorf("compute returns: %w", err)
		}
		corr, err := returns.Correlation(r)
		if err != nil {
			return fmt.Errorf("correlation: %w", err)
		}

		fmt.Println()
		header := append([]interface{}{""}, toRow(m.Assets)...)
		t := newTable(header...)
		for i, row := range returns.ToSlice(corr) {
			cells := table.Row{m.Assets[i]}
			for _, v := range row {
				cells = append(cells, fmt.Sprintf("%.3f", v))
			}
			t.AppendRow(cells)
		}
		t.SetTitle(fmt.Sprintf("Correlation (%s returns)", kind))
		t.Render()
	}

	return nil
}

// loadPrices parses a comma separated ticker list and loads the aligned matrix
// 빈 행렬 (모든 티커 실패) → ErrInsufficientData
func (a *app) loadPrices(ctx context.Context, raw, period string) (*contracts.PriceMatrix, string, error) {
	if period == "" {
		period = a.cfg.Data.DefaultPeriod
	}

	tickers := marketdata.ParseTickers(raw)
	if len(tickers) == 0 {
		return nil, period, fmt.Errorf("no tickers given")
	}

	m, err := a.prices.Prices(ctx, tickers, period)
	if err != nil {
		return nil, period, fmt.Errorf("load prices: %w", err)
	}
	if m.Len() == 0 {
		return nil, period, fmt.Errorf("%w: no price data for %v", contracts.ErrInsufficientData, tickers)
	}
	if dropped := m.NumAssets(); dropped < len(tickers) {
		PrintWarning(fmt.Sprintf("%d of %d tickers had no data and were skipped", len(tickers)-dropped, len(tickers)))
	}
	return m, period, nil
}

func printPriceTable(m *contracts.PriceMatrix, tail int) {
	header := append([]interface{}{"Date"}, toRow(m.Assets)...)
	t := newTable(header...)

	start := 0
	if tail > 0 && m.Len() > tail {
		start = m.Len() - tail
	}
	for i := start; i < m.Len(); i++ {
		cells := table.Row{m.Dates[i].Format("2006-01-02")}
		for _, p := range m.Prices[i] {
			cells = append(cells, fmt.Sprintf("%.2f", p))
		}
		t.AppendRow(cells)
	}
	t.Render()
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
