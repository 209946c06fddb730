package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/pkg/config"
	"github.com/wonny/quantfolio/pkg/logger"
	"github.com/wonny/quantfolio/pkg/redis"
)

// Row is one asset line of the daily report
type Row struct {
	Ticker       string    `json:"ticker"`
	AsOf         time.Time `json:"as_of"`
	Close        float64   `json:"close"`
	Return1D     float64   `json:"return_1d"`
	Volatility   float64   `json:"volatility"`   // 기간 일간 수익률 표본 표준편차 (연환산 아님)
	Observations int       `json:"observations"` // 수익률 개수, 2 미만이면 Volatility 미정
}

// Report is the daily snapshot across configured tickers
type Report struct {
	Date        time.Time `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
	Period      string    `json:"period"`
	Rows        []Row     `json:"rows"`
	Skipped     []string  `json:"skipped,omitempty"` // 데이터 부족/다운로드 실패
}

// Generator builds and writes daily reports
// ⭐ SSOT: 일일 리포트 생성은 여기서만
type Generator struct {
	provider contracts.PriceProvider
	tickers  []string
	period   string
	dir      string
	logger   *logger.Logger
	now      func() time.Time

	snapshots   SnapshotStore
	snapshotTTL time.Duration
}

// SnapshotStore keeps the latest report per date
type SnapshotStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// NewGenerator creates a report generator from config
func NewGenerator(provider contracts.PriceProvider, cfg config.ReportConfig, log *logger.Logger) *Generator {
	return &Generator{
		provider: provider,
		tickers:  cfg.Tickers,
		period:   cfg.Period,
		dir:      cfg.Dir,
		logger:   log,
		now:      time.Now,
	}
}

// WithSnapshots also stores each generated report under redis.ReportKey
func (g *Generator) WithSnapshots(store SnapshotStore, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = redis.TTLReport
	}
	g.snapshots = store
	g.snapshotTTL = ttl
	return g
}

// FileName returns the report file name for date
func FileName(date time.Time) string {
	return fmt.Sprintf("report_%s.txt", date.Format("2006-01-02"))
}

// Build computes report rows; each ticker is loaded on its own calendar
// 코인/FX 는 주식과 거래일이 달라 개별 조회
func (g *Generator) Build(ctx context.Context, date time.Time) (*Report, error) {
	r := &Report{
		Date:        date,
		GeneratedAt: g.now(),
		Period:      g.period,
	}

	for _, ticker := range g.tickers {
		m, err := g.provider.Prices(ctx, []string{ticker}, g.period)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.WithError(err).WithField("ticker", ticker).Warn("Report ticker skipped")
			r.Skipped = append(r.Skipped, ticker)
			continue
		}
		if m.Len() < 2 || m.NumAssets() == 0 {
			r.Skipped = append(r.Skipped, ticker)
			continue
		}

		r.Rows = append(r.Rows, Summarize(m.Assets[0], m.Dates, m.Column(0)))
	}

	if len(r.Rows) == 0 {
		return nil, fmt.Errorf("%w: no ticker had at least 2 prices", contracts.ErrInsufficientData)
	}
	return r, nil
}

// Summarize computes the last close, 1-day return and return volatility of a series
// closes 는 2개 이상
func Summarize(ticker string, dates []time.Time, closes []float64) Row {
	n := len(closes)
	rets := make([]float64, n-1)
	for i := 1; i < n; i++ {
		rets[i-1] = closes[i]/closes[i-1] - 1
	}

	row := Row{
		Ticker:       ticker,
		Close:        closes[n-1],
		Return1D:     rets[len(rets)-1],
		Observations: len(rets),
	}
	if len(dates) == n {
		row.AsOf = dates[n-1]
	}
	if len(rets) >= 2 {
		row.Volatility = stat.StdDev(rets, nil)
	}
	return row
}

// Render writes the report as a text table
func Render(w io.Writer, r *Report) error {
	dateStr := r.Date.Format("2006-01-02")

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("DAILY FINANCIAL REPORT - %s", dateStr))
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Asset", "As Of", "Close", "Return 1D", fmt.Sprintf("Volatility (%s)", r.Period)})

	for _, row := range r.Rows {
		vol := "-"
		if row.Observations >= 2 {
			vol = formatPercent(row.Volatility)
		}
		asOf := "-"
		if !row.AsOf.IsZero() {
			asOf = row.AsOf.Format("2006-01-02")
		}
		t.AppendRow(table.Row{row.Ticker, asOf, fmt.Sprintf("%.2f", row.Close), formatPercent(row.Return1D), vol})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	if _, err := fmt.Fprintf(w, "Generated at: %s\n\n%s\n", r.GeneratedAt.Format("15:04:05"), t.Render()); err != nil {
		return err
	}
	if len(r.Skipped) > 0 {
		if _, err := fmt.Fprintf(w, "\nSkipped: %v\n", r.Skipped); err != nil {
			return err
		}
	}
	return nil
}

// Generate builds the report and writes it to <dir>/report_YYYY-MM-DD.txt
func (g *Generator) Generate(ctx context.Context, date time.Time) (string, *Report, error) {
	g.logger.WithFields(map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"tickers": len(g.tickers),
	}).Info("Starting daily report generation")

	r, err := g.Build(ctx, date)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(g.dir, FileName(date))
	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := Render(f, r); err != nil {
		return "", nil, fmt.Errorf("write report: %w", err)
	}

	g.logger.WithFields(map[string]interface{}{
		"path":    path,
		"rows":    len(r.Rows),
		"skipped": len(r.Skipped),
	}).Info("Report saved")

	if g.snapshots != nil {
		key := redis.ReportKey(date.Format("2006-01-02"))
		if err := g.snapshots.Set(ctx, key, r, g.snapshotTTL); err != nil {
			// 스냅샷 실패는 파일 저장 결과에 영향 없음
			g.logger.WithError(err).WithField("key", key).Warn("Report snapshot failed")
		}
	}

	return path, r, nil
}

func formatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
