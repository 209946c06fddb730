package strategyconfig

import (
	"time"

	"github.com/wonny/quantfolio/internal/backtest"
	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/risk"
)

// Config는 하나의 포트폴리오 분석 프리셋 (YAML)
// 유니버스 → 시뮬레이션/최적화 → 리스크 → 백테스트를 한 번에 재현
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Optimizer Optimizer `yaml:"optimizer" json:"optimizer"`
	Risk      Risk      `yaml:"risk" json:"risk"`
	Backtest  Backtest  `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Universe 분석 대상 티커와 기간
type Universe struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
	Period  string   `yaml:"period" json:"period"` // 5d|1mo|3mo|6mo|1y|2y|5y
}

// Portfolio 고정 비중 (비어 있으면 동일 비중)
type Portfolio struct {
	Weights      map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	RiskFreeRate float64            `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// Optimizer 최대 Sharpe 설정 (enable=false 이면 생략)
type Optimizer struct {
	Enable  bool   `yaml:"enable" json:"enable"`
	Samples int    `yaml:"samples" json:"samples"`
	Seed    uint64 `yaml:"seed" json:"seed"`
	Workers int    `yaml:"workers" json:"workers"`
}

// Risk VaR/CVaR 와 한도
type Risk struct {
	Confidence float64    `yaml:"confidence" json:"confidence"`
	Limits     RiskLimits `yaml:"limits" json:"limits"`
	MonteCarlo MonteCarlo `yaml:"monte_carlo" json:"monte_carlo"`
}

// RiskLimits 손실 한도 (양수)
type RiskLimits struct {
	MaxVaRPct      float64 `yaml:"max_var_pct" json:"max_var_pct"`
	MaxCVaRPct     float64 `yaml:"max_cvar_pct" json:"max_cvar_pct"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
}

// MonteCarlo 보유기간 시뮬레이션
type MonteCarlo struct {
	Enable        bool   `yaml:"enable" json:"enable"`
	Simulations   int    `yaml:"simulations" json:"simulations"`
	HoldingPeriod int    `yaml:"holding_period" json:"holding_period"`
	Method        string `yaml:"method" json:"method"` // historical_bootstrap|parametric_normal
	Seed          uint64 `yaml:"seed" json:"seed"`
}

// Backtest 단일 자산 시그널 백테스트 목록
type Backtest struct {
	Lag  int           `yaml:"lag" json:"lag"`
	Runs []BacktestRun `yaml:"runs" json:"runs"`
}

// BacktestRun 자산 하나 × 전략 하나
type BacktestRun struct {
	Ticker    string  `yaml:"ticker" json:"ticker"`
	Strategy  string  `yaml:"strategy" json:"strategy"` // buyhold|ma|bollinger|model
	Short     int     `yaml:"short,omitempty" json:"short,omitempty"`
	Long      int     `yaml:"long,omitempty" json:"long,omitempty"`
	Window    int     `yaml:"window,omitempty" json:"window,omitempty"`
	K         float64 `yaml:"k,omitempty" json:"k,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// StrategySpec converts a run into backtest parameters (zero → defaults)
func (r BacktestRun) StrategySpec() backtest.StrategySpec {
	return backtest.StrategySpec{
		Strategy:    contracts.Strategy(r.Strategy),
		ShortWindow: r.Short,
		LongWindow:  r.Long,
		Window:      r.Window,
		K:           r.K,
		Threshold:   r.Threshold,
	}.WithDefaults()
}

// OptimizerConfig overlays the preset on base optimizer settings
func (c *Config) OptimizerConfig(base optimizer.Config) optimizer.Config {
	base.RiskFreeRate = c.Portfolio.RiskFreeRate
	if c.Optimizer.Samples > 0 {
		base.Samples = c.Optimizer.Samples
	}
	if c.Optimizer.Seed != 0 {
		base.Seed = c.Optimizer.Seed
	}
	if c.Optimizer.Workers > 0 {
		base.Workers = c.Optimizer.Workers
	}
	return base
}

// MonteCarloConfig builds the risk engine simulation settings
func (c *Config) MonteCarloConfig() risk.MonteCarloConfig {
	mc := risk.DefaultMonteCarloConfig()
	if c.Risk.MonteCarlo.Simulations > 0 {
		mc.NumSimulations = c.Risk.MonteCarlo.Simulations
	}
	if c.Risk.MonteCarlo.HoldingPeriod > 0 {
		mc.HoldingPeriod = c.Risk.MonteCarlo.HoldingPeriod
	}
	if c.Risk.MonteCarlo.Method != "" {
		mc.Method = risk.MonteCarloMethod(c.Risk.MonteCarlo.Method)
	}
	mc.Seed = c.Risk.MonteCarlo.Seed
	return mc
}

// RiskLimits converts the preset limits (0 → default)
func (c *Config) RiskLimits() risk.RiskLimits {
	limits := risk.DefaultRiskLimits()
	if c.Risk.Limits.MaxVaRPct > 0 {
		limits.MaxVaR = c.Risk.Limits.MaxVaRPct
	}
	if c.Risk.Limits.MaxCVaRPct > 0 {
		limits.MaxCVaR = c.Risk.Limits.MaxCVaRPct
	}
	if c.Risk.Limits.MaxDrawdownPct > 0 {
		limits.MaxDrawdown = c.Risk.Limits.MaxDrawdownPct
	}
	return limits
}

// DecisionSnapshot 실행 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	Version    string    `json:"version"`
	GitCommit  string    `json:"git_commit,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
