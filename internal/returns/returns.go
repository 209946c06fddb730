package returns

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantfolio/internal/contracts"
)

// TradingDays is the annualization factor for daily data
const TradingDays = 252

// degenerateTol is the relative std below which a series is treated as constant
const degenerateTol = 1e-10

// Compute converts a price matrix into simple returns, dropping row 0
// ⭐ SSOT: R[t] = P[t+1]/P[t] - 1
func Compute(prices *contracts.PriceMatrix) (*contracts.ReturnMatrix, error) {
	return compute(prices, func(prev, cur float64) float64 { return cur/prev - 1 })
}

// ComputeLog converts a price matrix into log returns ln(P[t+1]/P[t])
func ComputeLog(prices *contracts.PriceMatrix) (*contracts.ReturnMatrix, error) {
	return compute(prices, func(prev, cur float64) float64 { return math.Log(cur / prev) })
}

// Kind selects the return definition
type Kind string

const (
	KindSimple Kind = "simple"
	KindLog    Kind = "log"
)

// ParseKind validates a return kind name; empty → simple
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case "", KindSimple:
		return KindSimple, nil
	case KindLog:
		return KindLog, nil
	default:
		return "", fmt.Errorf("unknown return kind %q (simple|log)", name)
	}
}

// ComputeKind dispatches to Compute or ComputeLog
func ComputeKind(prices *contracts.PriceMatrix, kind Kind) (*contracts.ReturnMatrix, error) {
	if kind == KindLog {
		return ComputeLog(prices)
	}
	return Compute(prices)
}

func compute(prices *contracts.PriceMatrix, fn func(prev, cur float64) float64) (*contracts.ReturnMatrix, error) {
	if prices.Len() < 2 || prices.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: returns need at least 2 aligned rows, got %d", contracts.ErrInsufficientData, prices.Len())
	}

	n := prices.Len() - 1
	out := &contracts.ReturnMatrix{
		Dates:   append(prices.Dates[:0:0], prices.Dates[1:]...),
		Assets:  append([]string(nil), prices.Assets...),
		Returns: make([][]float64, n),
	}

	for t := 0; t < n; t++ {
		prev, cur := prices.Prices[t], prices.Prices[t+1]
		if len(prev) != len(prices.Assets) || len(cur) != len(prices.Assets) {
			return nil, fmt.Errorf("%w: row %d width mismatch", contracts.ErrMisaligned, t+1)
		}
		row := make([]float64, len(cur))
		for j := range cur {
			row[j] = fn(prev[j], cur[j])
		}
		out.Returns[t] = row
	}

	return out, nil
}

// Means returns the mean daily return per asset
func Means(r *contracts.ReturnMatrix) []float64 {
	means := make([]float64, r.NumAssets())
	for j := range means {
		means[j] = stat.Mean(r.Column(j), nil)
	}
	return means
}

// Covariance returns the daily sample covariance matrix (N-1)
func Covariance(r *contracts.ReturnMatrix) (*mat.SymDense, error) {
	if r.Len() < 2 || r.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: covariance needs at least 2 return rows, got %d", contracts.ErrInsufficientData, r.Len())
	}

	n := r.NumAssets()
	data := mat.NewDense(r.Len(), n, nil)
	for t, row := range r.Returns {
		data.SetRow(t, row)
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, data, nil)
	return cov, nil
}

// AnnualizedCovariance scales the daily covariance by TradingDays
func AnnualizedCovariance(r *contracts.ReturnMatrix) (*mat.SymDense, error) {
	cov, err := Covariance(r)
	if err != nil {
		return nil, err
	}
	cov.ScaleSym(TradingDays, cov)
	return cov, nil
}

// Correlation returns the Pearson correlation over the full return history
// 대각선은 정확히 1.0, 대칭, 값은 [-1, 1]
// 분산이 0인 자산: 다른 상수 자산과는 1.0, 변동 자산과는 0.0
func Correlation(r *contracts.ReturnMatrix) (*mat.SymDense, error) {
	if r.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: correlation needs at least 1 asset", contracts.ErrInsufficientData)
	}
	cov, err := Covariance(r)
	if err != nil {
		return nil, err
	}

	n := r.NumAssets()
	constant := make([]bool, n)
	for j := 0; j < n; j++ {
		constant[j] = ZeroVariance(r.Column(j))
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1.0)
		for j := i + 1; j < n; j++ {
			var c float64
			switch {
			case constant[i] && constant[j]:
				c = 1.0
			case constant[i] || constant[j]:
				c = 0.0
			default:
				c = cov.At(i, j) / math.Sqrt(cov.At(i, i)*cov.At(j, j))
				c = math.Max(-1, math.Min(1, c))
			}
			corr.SetSym(i, j, c)
		}
	}

	return corr, nil
}

// ZeroVariance reports whether a series is constant within floating tolerance
func ZeroVariance(xs []float64) bool {
	if len(xs) < 2 {
		return true
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	return std <= degenerateTol*math.Max(1, math.Abs(mean))
}

// Normalize rebases every asset to base at row 0 (100 → 지수화 비교 차트)
func Normalize(prices *contracts.PriceMatrix, base float64) *contracts.PriceMatrix {
	out := &contracts.PriceMatrix{
		Dates:  append(prices.Dates[:0:0], prices.Dates...),
		Assets: append([]string(nil), prices.Assets...),
		Prices: make([][]float64, prices.Len()),
	}
	if prices.Len() == 0 {
		return out
	}

	first := prices.Prices[0]
	for t, row := range prices.Prices {
		r := make([]float64, len(row))
		for j, p := range row {
			r[j] = p / first[j] * base
		}
		out.Prices[t] = r
	}
	return out
}

// ToSlice converts a symmetric matrix into row-major [][]float64 for JSON output
func ToSlice(m mat.Symmetric) [][]float64 {
	n := m.SymmetricDim()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
