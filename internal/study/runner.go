package study

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantfolio/internal/backtest"
	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/portfolio"
	"github.com/wonny/quantfolio/internal/risk"
	"github.com/wonny/quantfolio/internal/strategyconfig"
	"github.com/wonny/quantfolio/pkg/logger"
)

// maxConcurrentBacktests bounds per-ticker backtest loads
const maxConcurrentBacktests = 4

// Result is one full preset run
// ⭐ SSOT: 스냅샷 해시로 같은 설정의 결과를 비교
type Result struct {
	Snapshot     *strategyconfig.DecisionSnapshot `json:"snapshot"`
	Warnings     []strategyconfig.Warning         `json:"warnings,omitempty"`
	Dropped      []string                         `json:"dropped,omitempty"` // 데이터 없는 티커
	Simulation   *contracts.SimulationResult      `json:"simulation"`
	Optimization *contracts.OptimizationResult    `json:"optimization,omitempty"`
	Risk         *contracts.RiskReport            `json:"risk"`
	Check        *risk.RiskCheckResult            `json:"check"`
	MonteCarlo   *risk.MonteCarloResult           `json:"monte_carlo,omitempty"`
	Backtests    []*contracts.BacktestResult      `json:"backtests,omitempty"`
	Duration     time.Duration                    `json:"duration"`
}

// Runner executes study presets against a price provider
type Runner struct {
	provider contracts.PriceProvider
	optBase  optimizer.Config
	engine   *risk.Engine
	logger   *logger.Logger
}

// NewRunner creates a new study runner
func NewRunner(provider contracts.PriceProvider, optBase optimizer.Config, log *logger.Logger) *Runner {
	return &Runner{
		provider: provider,
		optBase:  optBase,
		engine:   risk.NewEngine(),
		logger:   log,
	}
}

// Run loads the universe and runs simulation → optimization → risk → backtests
func (r *Runner) Run(ctx context.Context, cfg *strategyconfig.Config, snapshot *strategyconfig.DecisionSnapshot) (*Result, error) {
	startTime := time.Now()
	log := r.logger.WithField("strategy_id", cfg.Meta.StrategyID)
	if snapshot != nil {
		log = log.WithField("config_hash", snapshot.ConfigHash)
	}
	log.Info("Study started")

	m, err := r.provider.Prices(ctx, cfg.Universe.Tickers, cfg.Universe.Period)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("%w: no price data for %v", contracts.ErrInsufficientData, cfg.Universe.Tickers)
	}

	weights, dropped, err := portfolio.ResolveWeights(m.Assets, cfg.Portfolio.Weights)
	if err != nil {
		return nil, fmt.Errorf("resolve weights: %w", err)
	}

	result := &Result{
		Snapshot: snapshot,
		Warnings: strategyconfig.Warn(cfg),
		Dropped:  missing(cfg.Universe.Tickers, m.Assets),
	}
	if len(dropped) > 0 {
		log.WithField("tickers", dropped).Warn("Weights dropped for tickers without data")
	}

	// === Simulation ===
	sim, err := portfolio.Simulate(m, weights, cfg.Portfolio.RiskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	result.Simulation = sim

	// === Optimization ===
	if cfg.Optimizer.Enable {
		optCfg := cfg.OptimizerConfig(r.optBase)
		if err := optCfg.Validate(); err != nil {
			return nil, fmt.Errorf("optimizer config: %w", err)
		}
		opt, err := optimizer.New(optCfg, r.logger).Optimize(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}
		result.Optimization = opt
	}

	// === Risk ===
	report, err := r.engine.Compute(sim.DailyReturns, cfg.Risk.Confidence)
	if err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}
	result.Risk = report
	result.Check = r.engine.CheckLimits(report, sim.Metrics.MaxDrawdown, cfg.RiskLimits())

	if cfg.Risk.MonteCarlo.Enable {
		mc, err := r.engine.MonteCarlo(sim.DailyReturns, cfg.MonteCarloConfig())
		if err != nil {
			return nil, fmt.Errorf("monte carlo: %w", err)
		}
		result.MonteCarlo = mc
	}

	// === Backtests ===
	backtests, err := r.backtests(ctx, cfg)
	if err != nil {
		return nil, err
	}
	result.Backtests = backtests

	result.Duration = time.Since(startTime)
	log.WithFields(map[string]interface{}{
		"assets":       len(m.Assets),
		"total_return": sim.Metrics.TotalReturn,
		"risk_passed":  result.Check.Passed,
		"backtests":    len(backtests),
		"duration_ms":  result.Duration.Milliseconds(),
	}).Info("Study completed")

	return result, nil
}

// backtests runs every configured backtest, each on its own ticker calendar
func (r *Runner) backtests(ctx context.Context, cfg *strategyconfig.Config) ([]*contracts.BacktestResult, error) {
	if len(cfg.Backtest.Runs) == 0 {
		return nil, nil
	}

	btCfg := backtest.DefaultConfig()
	btCfg.Lag = cfg.Backtest.Lag
	btCfg.RiskFreeRate = cfg.Portfolio.RiskFreeRate
	engine := backtest.NewEngine(btCfg, r.logger)

	results := make([]*contracts.BacktestResult, len(cfg.Backtest.Runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBacktests)

	for i, run := range cfg.Backtest.Runs {
		i, run := i, run
		g.Go(func() error {
			m, err := r.provider.Prices(gctx, []string{run.Ticker}, cfg.Universe.Period)
			if err != nil {
				return fmt.Errorf("backtest %s: load prices: %w", run.Ticker, err)
			}
			if m.IsEmpty() {
				return fmt.Errorf("%w: backtest %s has no price data", contracts.ErrInsufficientData, run.Ticker)
			}

			res, err := engine.RunStrategy(gctx, m, run.Ticker, run.StrategySpec())
			if err != nil {
				return fmt.Errorf("backtest %s/%s: %w", run.Ticker, run.Strategy, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// missing returns requested tickers absent from loaded
func missing(requested, loaded []string) []string {
	have := make(map[string]bool, len(loaded))
	for _, a := range loaded {
		have[a] = true
	}
	var out []string
	for _, t := range requested {
		if !have[t] {
			out = append(out, t)
		}
	}
	return out
}
