package contracts

import (
	"fmt"
	"math"
	"time"
)

// Bar is a single dated close delivered by a market data source
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceMatrix holds aligned closes: rows are trading dates, columns are assets
// ⭐ SSOT: 데이터 수집 레이어 → 퀀트 엔진 전달 포맷 (전달 이후 불변)
type PriceMatrix struct {
	Dates  []time.Time `json:"dates"`  // 오름차순, 중복 없음
	Assets []string    `json:"assets"` // 컬럼 순서
	Prices [][]float64 `json:"prices"` // [row][asset], 모두 양수
}

// Len returns the number of dated rows
func (m *PriceMatrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Prices)
}

// NumAssets returns the number of columns
func (m *PriceMatrix) NumAssets() int {
	if m == nil {
		return 0
	}
	return len(m.Assets)
}

// IsEmpty reports whether the matrix has no rows or no assets
func (m *PriceMatrix) IsEmpty() bool {
	return m.Len() == 0 || m.NumAssets() == 0
}

// AssetIndex returns the column index of an asset
func (m *PriceMatrix) AssetIndex(asset string) (int, bool) {
	for i, a := range m.Assets {
		if a == asset {
			return i, true
		}
	}
	return -1, false
}

// Column copies one asset's price series
func (m *PriceMatrix) Column(j int) []float64 {
	col := make([]float64, len(m.Prices))
	for t, row := range m.Prices {
		col[t] = row[j]
	}
	return col
}

// Select returns a new matrix restricted to the given assets, in the given order
func (m *PriceMatrix) Select(assets ...string) (*PriceMatrix, error) {
	idx := make([]int, len(assets))
	for k, a := range assets {
		j, ok := m.AssetIndex(a)
		if !ok {
			return nil, fmt.Errorf("%w: unknown asset %s", ErrMisaligned, a)
		}
		idx[k] = j
	}

	out := &PriceMatrix{
		Dates:  append([]time.Time(nil), m.Dates...),
		Assets: append([]string(nil), assets...),
		Prices: make([][]float64, len(m.Prices)),
	}
	for t, row := range m.Prices {
		r := make([]float64, len(idx))
		for k, j := range idx {
			r[k] = row[j]
		}
		out.Prices[t] = r
	}
	return out, nil
}

// Validate checks shape, date ordering and price positivity
func (m *PriceMatrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil price matrix", ErrInsufficientData)
	}
	if len(m.Dates) != len(m.Prices) {
		return fmt.Errorf("%w: %d dates for %d rows", ErrMisaligned, len(m.Dates), len(m.Prices))
	}

	for t, row := range m.Prices {
		if len(row) != len(m.Assets) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrMisaligned, t, len(row), len(m.Assets))
		}
		if t > 0 && !m.Dates[t].After(m.Dates[t-1]) {
			return fmt.Errorf("%w: dates not strictly increasing at row %d", ErrMisaligned, t)
		}
		for j, p := range row {
			if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("%w: invalid price %v for %s at row %d", ErrMisaligned, p, m.Assets[j], t)
			}
		}
	}

	return nil
}

// ReturnMatrix holds simple returns derived from a PriceMatrix
// 가격 행렬보다 한 행 적음 (첫 행은 수익률 없음)
type ReturnMatrix struct {
	Dates   []time.Time `json:"dates"` // 수익률이 실현된 날짜 (가격 행렬의 1..n)
	Assets  []string    `json:"assets"`
	Returns [][]float64 `json:"returns"` // [row][asset]
}

// Len returns the number of return rows
func (r *ReturnMatrix) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Returns)
}

// NumAssets returns the number of columns
func (r *ReturnMatrix) NumAssets() int {
	if r == nil {
		return 0
	}
	return len(r.Assets)
}

// Column copies one asset's return series
func (r *ReturnMatrix) Column(j int) []float64 {
	col := make([]float64, len(r.Returns))
	for t, row := range r.Returns {
		col[t] = row[j]
	}
	return col
}
