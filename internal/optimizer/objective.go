package optimizer

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/quantfolio/internal/portfolio"
)

// minVariance 분산이 이 값 이하이면 Sharpe 0 처리
const minVariance = 1e-18

// objective holds annualized inputs of the mean-variance problem
type objective struct {
	means *mat.VecDense // 252 × 일간 평균 수익률
	cov   *mat.SymDense // 252 × 일간 공분산
	rf    float64
	n     int
}

func newObjective(annualMeans []float64, annualCov *mat.SymDense, rf float64) *objective {
	return &objective{
		means: mat.NewVecDense(len(annualMeans), annualMeans),
		cov:   annualCov,
		rf:    rf,
		n:     len(annualMeans),
	}
}

// evaluate returns (annual return, annual volatility, Sharpe) for weights w
func (o *objective) evaluate(w []float64) (ret, vol, sharpe float64) {
	wv := mat.NewVecDense(o.n, w)
	ret = mat.Dot(o.means, wv)
	variance := mat.Inner(wv, o.cov, wv)
	if variance <= minVariance {
		return ret, 0, 0
	}
	vol = math.Sqrt(variance)
	return ret, vol, portfolio.SharpeRatio(ret, vol, o.rf)
}

// weights maps the unconstrained x onto the simplex: w_i = x_i² / Σx²
// Σw = 1, 0 ≤ w_i ≤ 1 이 항상 성립
func weights(x, w []float64) float64 {
	var s float64
	for _, v := range x {
		s += v * v
	}
	if s == 0 {
		for i := range w {
			w[i] = 1.0 / float64(len(w))
		}
		return 0
	}
	for i, v := range x {
		w[i] = v * v / s
	}
	return s
}

// radiusPenalty pins Σx² near n; Sharpe depends only on the direction of x
const radiusPenalty = 0.1

// negSharpe is the minimization target F(x) = -Sharpe(w(x)) + λ(Σx² - n)²
func (o *objective) negSharpe(x []float64) float64 {
	w := make([]float64, o.n)
	s := weights(x, w)
	_, _, sharpe := o.evaluate(w)
	d := s - float64(o.n)
	return -sharpe + radiusPenalty*d*d
}

// negSharpeGrad fills grad with dF/dx
// dS/dw = a/V - (R-rf)·Σw/V³, dF/dx_k = (2x_k/S)(g_k - Σ g_i w_i) + 4λ(S-n)x_k, g = -dS/dw
func (o *objective) negSharpeGrad(grad, x []float64) {
	w := make([]float64, o.n)
	s := weights(x, w)

	wv := mat.NewVecDense(o.n, w)
	var sw mat.VecDense
	sw.MulVec(o.cov, wv)

	variance := mat.Dot(wv, &sw)
	penalty := 4 * radiusPenalty * (s - float64(o.n))
	if s == 0 || variance <= minVariance {
		for k := range grad {
			grad[k] = penalty * x[k]
		}
		return
	}

	vol := math.Sqrt(variance)
	excess := mat.Dot(o.means, wv) - o.rf
	vol3 := vol * variance

	g := make([]float64, o.n)
	var gw float64
	for i := 0; i < o.n; i++ {
		g[i] = -(o.means.AtVec(i)/vol - excess*sw.AtVec(i)/vol3)
		gw += g[i] * w[i]
	}

	for k := range grad {
		grad[k] = 2*x[k]/s*(g[k]-gw) + penalty*x[k]
	}
}
