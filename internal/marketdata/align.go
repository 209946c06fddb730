package marketdata

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/quantfolio/internal/contracts"
)

// SupportedPeriods lookback ranges accepted by the chart API
var SupportedPeriods = []string{"5d", "1mo", "3mo", "6mo", "1y", "2y", "5y"}

// ValidatePeriod checks a lookback range
func ValidatePeriod(period string) error {
	for _, p := range SupportedPeriods {
		if p == period {
			return nil
		}
	}
	return fmt.Errorf("unsupported period %q (%s)", period, strings.Join(SupportedPeriods, "|"))
}

// ParseTickers splits a comma/space separated list into upper-cased unique tickers
// 입력 순서 유지
func ParseTickers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return NormalizeTickers(fields)
}

// NormalizeTickers upper-cases, trims and de-duplicates tickers
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Align inner-joins per-ticker closes on date into a price matrix
// - 모든 자산에 유효한 (양수) 종가가 있는 날짜만 남김
// - 컬럼 순서는 order, series 에 없는 티커는 제외
func Align(order []string, series map[string][]contracts.Bar) (*contracts.PriceMatrix, error) {
	assets := make([]string, 0, len(order))
	for _, t := range order {
		if _, ok := series[t]; ok {
			assets = append(assets, t)
		}
	}

	m := &contracts.PriceMatrix{Assets: assets}
	if len(assets) == 0 {
		return m, nil
	}

	byDate := make(map[time.Time][]float64)
	counts := make(map[time.Time]int)
	for j, t := range assets {
		for _, bar := range series[t] {
			if bar.Close <= 0 || math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) {
				continue
			}
			row, ok := byDate[bar.Date]
			if !ok {
				row = make([]float64, len(assets))
				byDate[bar.Date] = row
			}
			if row[j] == 0 {
				counts[bar.Date]++
			}
			row[j] = bar.Close
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d, n := range counts {
		if n == len(assets) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	m.Dates = dates
	m.Prices = make([][]float64, len(dates))
	for i, d := range dates {
		m.Prices[i] = byDate[d]
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}
	return m, nil
}
