package optimizer

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// stationaryTol 라인서치 실패 시에도 ‖g‖∞ ≤ stationaryTol·max(1, |f|) 이면 수렴으로 인정
const stationaryTol = 1e-6

// successStatuses gonum 종료 상태 중 수렴으로 인정하는 것
var successStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
}

// solution is the outcome of the constrained max-Sharpe solve
// weights 는 종료 지점이 유한하면 converged 와 무관하게 채워진다
type solution struct {
	weights    []float64
	status     string
	iterations int
	converged  bool
}

// solveMaxSharpe minimizes -Sharpe on the simplex with BFGS, starting at equal weights
// 동일 입력 → 동일 결과 (결정적)
func (o *objective) solveMaxSharpe(maxIterations int) solution {
	initial := make([]float64, o.n)
	for i := range initial {
		initial[i] = 1 // w = 1/n
	}

	problem := optimize.Problem{
		Func: o.negSharpe,
		Grad: o.negSharpeGrad,
	}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if result == nil {
		return solution{status: "Failure", converged: false}
	}

	sol := solution{
		status:     result.Status.String(),
		iterations: result.Stats.MajorIterations,
		converged:  err == nil && successStatuses[result.Status],
	}
	if !sol.converged && result.X != nil && o.stationary(result.X) {
		sol.converged = true
	}
	if result.X == nil || !finite(result.X) {
		sol.converged = false
		return sol
	}

	sol.weights = make([]float64, o.n)
	weights(result.X, sol.weights)
	cleanWeights(sol.weights)
	return sol
}

// stationary reports whether the gradient at x is small relative to the objective
func (o *objective) stationary(x []float64) bool {
	f := o.negSharpe(x)
	if math.IsNaN(f) {
		return false
	}
	tol := stationaryTol * math.Max(1, math.Abs(f))

	grad := make([]float64, len(x))
	o.negSharpeGrad(grad, x)
	for _, g := range grad {
		if math.IsNaN(g) || math.Abs(g) > tol {
			return false
		}
	}
	return true
}

func finite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// cleanWeights zeroes numerically negligible weights and renormalizes
func cleanWeights(w []float64) {
	var sum float64
	for i, v := range w {
		if v < 1e-10 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum == 0 {
		return
	}
	for i := range w {
		w[i] /= sum
	}
}
