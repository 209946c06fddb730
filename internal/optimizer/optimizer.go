package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/monitoring"
	"github.com/wonny/quantfolio/internal/returns"
	"github.com/wonny/quantfolio/pkg/logger"
)

// Optimizer searches the long-only weight simplex for the max-Sharpe allocation
// ⭐ SSOT: Monte Carlo frontier (시각화/대체) + BFGS 제약 최적화 (정답)
type Optimizer struct {
	cfg    Config
	solve  func(o *objective, maxIterations int) solution
	logger *logger.Logger
}

// New creates an optimizer
func New(cfg Config, log *logger.Logger) *Optimizer {
	return &Optimizer{
		cfg:    cfg,
		solve:  (*objective).solveMaxSharpe,
		logger: log,
	}
}

// Config returns the optimizer settings
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize computes returns from prices and runs both search strategies
func (o *Optimizer) Optimize(ctx context.Context, prices *contracts.PriceMatrix) (*contracts.OptimizationResult, error) {
	if prices.NumAssets() < 2 {
		return nil, fmt.Errorf("%w: optimization needs at least 2 assets, got %d", contracts.ErrInsufficientData, prices.NumAssets())
	}

	r, err := returns.Compute(prices)
	if err != nil {
		return nil, err
	}

	return o.OptimizeReturns(ctx, r)
}

// OptimizeReturns runs the optimizer on a precomputed return matrix
func (o *Optimizer) OptimizeReturns(ctx context.Context, r *contracts.ReturnMatrix) (*contracts.OptimizationResult, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer config: %w", err)
	}
	if r.NumAssets() < 2 {
		return nil, fmt.Errorf("%w: optimization needs at least 2 assets, got %d", contracts.ErrInsufficientData, r.NumAssets())
	}

	cov, err := returns.AnnualizedCovariance(r)
	if err != nil {
		return nil, err
	}
	means := returns.Means(r)
	for i := range means {
		means[i] *= returns.TradingDays
	}

	startTime := time.Now()
	obj := newObjective(means, cov, o.cfg.RiskFreeRate)

	// (a) Monte Carlo frontier
	seed := o.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	frontier, err := obj.sampleFrontier(ctx, o.cfg.Samples, o.cfg.Workers, seed)
	if err != nil {
		return nil, fmt.Errorf("monte carlo sampling aborted: %w", err)
	}
	best := frontier[bestSample(frontier)]

	// (b) Constrained solve
	sol := o.solve(obj, o.cfg.MaxIterations)

	result := &contracts.OptimizationResult{
		RunID:        uuid.New().String(),
		Assets:       append([]string(nil), r.Assets...),
		RiskFreeRate: o.cfg.RiskFreeRate,
		SolverStatus: sol.status,
		Iterations:   sol.iterations,
		BestSample:   best,
		CreatedAt:    time.Now(),
	}

	if accepted(obj, sol, best) {
		result.Weights = sol.weights
		result.Return, result.Volatility, result.Sharpe = obj.evaluate(sol.weights)
	} else {
		// 솔버 실패 → MC 최선 샘플, 근사치 표시
		result.Approximate = true
		result.Weights = append(contracts.Weights(nil), best.Weights...)
		result.Return, result.Volatility, result.Sharpe = best.Return, best.Volatility, best.Sharpe

		o.logger.WithFields(map[string]interface{}{
			"status":     sol.status,
			"iterations": sol.iterations,
			"error":      contracts.ErrNonConvergence.Error(),
		}).Warn("Solver did not converge, using best Monte Carlo sample")
	}

	if !o.cfg.KeepWeights {
		for i := range frontier {
			frontier[i].Weights = nil
		}
	}
	result.Frontier = frontier

	monitoring.RecordOptimization(time.Since(startTime), result.Approximate)

	o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"assets":      len(result.Assets),
		"samples":     len(frontier),
		"sharpe":      result.Sharpe,
		"best_sample": best.Sharpe,
		"approximate": result.Approximate,
		"duration":    time.Since(startTime),
	}).Info("Portfolio optimization completed")

	return result, nil
}

// accepted reports whether the solver's point is authoritative
// 상태가 실패여도 MC 최선 샘플 이상의 Sharpe 면 채택
func accepted(obj *objective, sol solution, best contracts.FrontierPoint) bool {
	if len(sol.weights) != obj.n {
		return false
	}
	if sol.converged {
		return true
	}
	_, _, sharpe := obj.evaluate(sol.weights)
	return !math.IsNaN(sharpe) && sharpe >= best.Sharpe
}

// Evaluate returns annualized (return, volatility, Sharpe) of weights over r
func Evaluate(r *contracts.ReturnMatrix, w []float64, riskFreeRate float64) (ret, vol, sharpe float64, err error) {
	if len(w) != r.NumAssets() {
		return 0, 0, 0, fmt.Errorf("%w: %d weights for %d assets", contracts.ErrMisaligned, len(w), r.NumAssets())
	}
	cov, err := returns.AnnualizedCovariance(r)
	if err != nil {
		return 0, 0, 0, err
	}
	means := returns.Means(r)
	for i := range means {
		means[i] *= returns.TradingDays
	}
	ret, vol, sharpe = newObjective(means, cov, riskFreeRate).evaluate(w)
	return ret, vol, sharpe, nil
}
