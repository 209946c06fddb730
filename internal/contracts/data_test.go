package contracts

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func sampleMatrix() *PriceMatrix {
	return &PriceMatrix{
		Dates:  []time.Time{day(0), day(1), day(2)},
		Assets: []string{"AAPL", "MSFT"},
		Prices: [][]float64{
			{100, 200},
			{110, 210},
			{121, 220.5},
		},
	}
}

func TestPriceMatrix_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *PriceMatrix)
		wantErr error
	}{
		{
			name:   "valid matrix",
			mutate: func(m *PriceMatrix) {},
		},
		{
			name:    "date count mismatch",
			mutate:  func(m *PriceMatrix) { m.Dates = m.Dates[:2] },
			wantErr: ErrMisaligned,
		},
		{
			name:    "duplicate date",
			mutate:  func(m *PriceMatrix) { m.Dates[2] = m.Dates[1] },
			wantErr: ErrMisaligned,
		},
		{
			name:    "non-positive price",
			mutate:  func(m *PriceMatrix) { m.Prices[1][0] = 0 },
			wantErr: ErrMisaligned,
		},
		{
			name:    "ragged row",
			mutate:  func(m *PriceMatrix) { m.Prices[0] = []float64{100} },
			wantErr: ErrMisaligned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMatrix()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceMatrix_NilIsEmpty(t *testing.T) {
	var m *PriceMatrix
	if !m.IsEmpty() {
		t.Error("Expected nil matrix to be empty")
	}
	if err := m.Validate(); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Validate() on nil = %v, want ErrInsufficientData", err)
	}
}

func TestPriceMatrix_ColumnAndSelect(t *testing.T) {
	m := sampleMatrix()

	col := m.Column(1)
	if len(col) != 3 || col[2] != 220.5 {
		t.Errorf("Column(1) = %v", col)
	}

	sel, err := m.Select("MSFT")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.NumAssets() != 1 || sel.Prices[1][0] != 210 {
		t.Errorf("Select() = %+v", sel)
	}

	// 원본은 변경되지 않아야 함
	sel.Prices[0][0] = 1
	if m.Prices[0][1] != 200 {
		t.Error("Select() must copy rows")
	}

	if _, err := m.Select("TSLA"); !errors.Is(err, ErrMisaligned) {
		t.Errorf("Select(unknown) error = %v, want ErrMisaligned", err)
	}
}

func TestPriceMatrix_JSON(t *testing.T) {
	m := sampleMatrix()

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded PriceMatrix
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Len() != m.Len() || !decoded.Dates[2].Equal(m.Dates[2]) {
		t.Errorf("Decoded matrix mismatch: %+v", decoded)
	}
}

func TestBadWeights_MatchesInsufficientData(t *testing.T) {
	err := BadWeights("zero sum")
	if !errors.Is(err, ErrBadWeights) {
		t.Error("Expected ErrBadWeights")
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Error("Expected ErrInsufficientData")
	}
	if errors.Is(err, ErrNonConvergence) {
		t.Error("Did not expect ErrNonConvergence")
	}
}
