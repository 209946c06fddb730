package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/pkg/config"
	"github.com/wonny/quantfolio/pkg/logger"
)

type stubProvider map[string][]float64

func (s stubProvider) Prices(_ context.Context, tickers []string, _ string) (*contracts.PriceMatrix, error) {
	closes, ok := s[tickers[0]]
	if !ok {
		return nil, errors.New("download failed")
	}
	m := &contracts.PriceMatrix{Assets: tickers}
	for i, c := range closes {
		m.Dates = append(m.Dates, time.Date(2024, 6, 3+i, 0, 0, 0, 0, time.UTC))
		m.Prices = append(m.Prices, []float64{c})
	}
	return m, nil
}

func TestSummarize(t *testing.T) {
	row := Summarize("AAPL", nil, []float64{100, 110, 99})

	assert.Equal(t, "AAPL", row.Ticker)
	assert.Equal(t, 99.0, row.Close)
	assert.InDelta(t, -0.10, row.Return1D, 1e-12)
	assert.Equal(t, 2, row.Observations)
	// std([0.1, -0.1], ddof=1)
	assert.InDelta(t, 0.141421356, row.Volatility, 1e-8)
	assert.True(t, row.AsOf.IsZero())

	single := Summarize("MSFT", nil, []float64{400, 404})
	assert.Equal(t, 1, single.Observations)
	assert.Equal(t, 0.0, single.Volatility)
}

func TestGenerator_Build(t *testing.T) {
	provider := stubProvider{
		"AAPL":     {100, 101, 102, 101},
		"BTC-USD":  {60000, 61000},
		"EURUSD=X": {1.08},
	}
	g := NewGenerator(provider, config.ReportConfig{
		Tickers: []string{"AAPL", "BTC-USD", "EURUSD=X", "GONE"},
		Period:  "5d",
	}, logger.Nop())

	r, err := g.Build(context.Background(), time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, r.Rows, 2)
	assert.Equal(t, "AAPL", r.Rows[0].Ticker)
	assert.Equal(t, time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), r.Rows[0].AsOf)
	assert.Equal(t, []string{"EURUSD=X", "GONE"}, r.Skipped)
}

func TestGenerator_BuildNothing(t *testing.T) {
	g := NewGenerator(stubProvider{}, config.ReportConfig{Tickers: []string{"AAPL"}, Period: "5d"}, logger.Nop())

	_, err := g.Build(context.Background(), time.Now())
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestRender(t *testing.T) {
	r := &Report{
		Date:        time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 6, 7, 18, 0, 5, 0, time.UTC),
		Period:      "5d",
		Rows: []Row{
			Summarize("AAPL", nil, []float64{100, 110, 99}),
			Summarize("MSFT", nil, []float64{400, 404}),
		},
		Skipped: []string{"GONE"},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "DAILY FINANCIAL REPORT - 2024-06-07")
	assert.Contains(t, out, "Generated at: 18:00:05")
	assert.Contains(t, out, "99.00")
	assert.Contains(t, out, "-10.00%")
	assert.Contains(t, out, "14.14%")
	assert.Contains(t, out, "1.00%")
	assert.Contains(t, out, "Skipped: [GONE]")
}

func TestGenerator_Generate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	g := NewGenerator(stubProvider{"AAPL": {100, 102}}, config.ReportConfig{
		Dir:     dir,
		Tickers: []string{"AAPL"},
		Period:  "5d",
	}, logger.Nop())

	date := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	path, r, err := g.Generate(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "report_2024-06-07.txt"), path)
	assert.Len(t, r.Rows, 1)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "AAPL")
	assert.Contains(t, string(content), "2.00%")
}

type memoryStore struct {
	keys []string
	ttl  time.Duration
	err  error
}

func (m *memoryStore) Set(_ context.Context, key string, _ interface{}, ttl time.Duration) error {
	m.keys = append(m.keys, key)
	m.ttl = ttl
	return m.err
}

func TestGenerator_Snapshots(t *testing.T) {
	date := time.Date(2024, 6, 7, 18, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	g := NewGenerator(stubProvider{"AAPL": {100, 102}}, config.ReportConfig{
		Dir:     t.TempDir(),
		Tickers: []string{"AAPL"},
		Period:  "5d",
	}, logger.Nop()).WithSnapshots(store, 0)

	_, _, err := g.Generate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, []string{"report:daily:2024-06-07"}, store.keys)
	assert.Equal(t, 24*time.Hour, store.ttl)

	// 스냅샷 실패해도 파일은 저장됨
	store.err = errors.New("redis down")
	path, _, err := g.Generate(context.Background(), date)
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
