package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/wonny/quantfolio/internal/backtest"
	"github.com/wonny/quantfolio/internal/marketdata"
	"github.com/wonny/quantfolio/internal/optimizer"
	"github.com/wonny/quantfolio/internal/risk"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var strategyIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// normalize upper-cases tickers and weight keys
func (c *Config) normalize() {
	c.Universe.Tickers = marketdata.NormalizeTickers(c.Universe.Tickers)

	if len(c.Portfolio.Weights) > 0 {
		weights := make(map[string]float64, len(c.Portfolio.Weights))
		for t, w := range c.Portfolio.Weights {
			weights[strings.ToUpper(strings.TrimSpace(t))] = w
		}
		c.Portfolio.Weights = weights
	}

	for i := range c.Backtest.Runs {
		c.Backtest.Runs[i].Ticker = strings.ToUpper(strings.TrimSpace(c.Backtest.Runs[i].Ticker))
	}
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if !strategyIDPattern.MatchString(cfg.Meta.StrategyID) {
		return ValidationError{"meta.strategy_id", "must be lowercase [a-z0-9_-]"}
	}

	// === Universe ===
	if len(cfg.Universe.Tickers) == 0 {
		return ValidationError{"universe.tickers", "required"}
	}
	if err := marketdata.ValidatePeriod(cfg.Universe.Period); err != nil {
		return ValidationError{"universe.period", err.Error()}
	}

	// === Portfolio ===
	if len(cfg.Portfolio.Weights) > 0 {
		inUniverse := make(map[string]bool, len(cfg.Universe.Tickers))
		for _, t := range cfg.Universe.Tickers {
			inUniverse[t] = true
		}
		weights := make([]float64, 0, len(cfg.Portfolio.Weights))
		for t, w := range cfg.Portfolio.Weights {
			if !inUniverse[t] {
				return ValidationError{"portfolio.weights", fmt.Sprintf("%s is not in universe.tickers", t)}
			}
			if err := validatePctRange(w, "portfolio.weights."+t); err != nil {
				return err
			}
			weights = append(weights, w)
		}
		if err := validateWeightsSum(weights, 1.0, 1e-6); err != nil {
			return ValidationError{"portfolio.weights", err.Error()}
		}
	}
	if err := validatePctRange(cfg.Portfolio.RiskFreeRate, "portfolio.risk_free_rate"); err != nil {
		return err
	}

	// === Optimizer ===
	if cfg.Optimizer.Enable {
		if cfg.Optimizer.Samples != 0 && cfg.Optimizer.Samples < optimizer.MinSamples {
			return ValidationError{"optimizer.samples", fmt.Sprintf("must be >= %d", optimizer.MinSamples)}
		}
		if cfg.Optimizer.Workers < 0 {
			return ValidationError{"optimizer.workers", "must be >= 0"}
		}
	}

	// === Risk ===
	if cfg.Risk.Confidence <= 0 || cfg.Risk.Confidence >= 1 {
		return ValidationError{"risk.confidence", "must be in (0, 1)"}
	}
	for field, v := range map[string]float64{
		"risk.limits.max_var_pct":      cfg.Risk.Limits.MaxVaRPct,
		"risk.limits.max_cvar_pct":     cfg.Risk.Limits.MaxCVaRPct,
		"risk.limits.max_drawdown_pct": cfg.Risk.Limits.MaxDrawdownPct,
	} {
		if err := validatePctRange(v, field); err != nil {
			return err
		}
	}
	if cfg.Risk.MonteCarlo.Enable {
		if err := risk.ValidateConfig(cfg.MonteCarloConfig()); err != nil {
			return ValidationError{"risk.monte_carlo", err.Error()}
		}
	}

	// === Backtest ===
	if cfg.Backtest.Lag < 0 {
		return ValidationError{"backtest.lag", "must be >= 0"}
	}
	for i, run := range cfg.Backtest.Runs {
		field := fmt.Sprintf("backtest.runs[%d]", i)
		if run.Ticker == "" {
			return ValidationError{field + ".ticker", "required"}
		}
		if _, err := backtest.ParseStrategy(run.Strategy); err != nil {
			return ValidationError{field + ".strategy", err.Error()}
		}
		spec := run.StrategySpec()
		if spec.LongWindow <= spec.ShortWindow {
			return ValidationError{field, "long must be > short"}
		}
		if spec.Threshold <= 0 || spec.Threshold >= 1 {
			return ValidationError{field + ".threshold", "must be in (0, 1)"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 짧은 기간 → 연환산 지표 불안정
	if cfg.Universe.Period == "5d" || cfg.Universe.Period == "1mo" {
		warnings = append(warnings, Warning{
			Code:    "SHORT_PERIOD",
			Message: "기간 1개월 이하: 연환산 수익률/변동성 신뢰도 낮음",
		})
	}

	// 시드 미지정 → 재현 불가
	if cfg.Optimizer.Enable && cfg.Optimizer.Seed == 0 {
		warnings = append(warnings, Warning{
			Code:    "RANDOM_SEED",
			Message: "optimizer.seed 미지정: frontier 재현 불가",
		})
	}

	// look-ahead
	if cfg.Backtest.Lag == 0 && len(cfg.Backtest.Runs) > 0 {
		warnings = append(warnings, Warning{
			Code:    "ZERO_LAG",
			Message: "backtest.lag=0: 당일 시그널로 당일 수익 (look-ahead)",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 퍼센트 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
