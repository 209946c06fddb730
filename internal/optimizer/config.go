package optimizer

import (
	"fmt"

	"github.com/wonny/quantfolio/pkg/config"
)

// MinSamples lower bound on Monte Carlo portfolios
const MinSamples = 2000

// Config holds optimizer settings
type Config struct {
	Samples       int     // Monte Carlo 포트폴리오 수 (기본 5000)
	Seed          uint64  // 0 = 실행마다 다른 시드
	Workers       int     // Monte Carlo 병렬 샤드 수
	RiskFreeRate  float64 // 연 무위험 수익률
	MaxIterations int     // BFGS 최대 major iteration
	KeepWeights   bool    // Frontier 샘플에 비중 포함 여부
}

// DefaultConfig returns the default optimizer settings
func DefaultConfig() Config {
	return Config{
		Samples:       5000,
		Seed:          0,
		Workers:       4,
		RiskFreeRate:  0.02,
		MaxIterations: 500,
		KeepWeights:   false,
	}
}

// FromConfig builds optimizer settings from application config
func FromConfig(cfg *config.Config) Config {
	c := DefaultConfig()
	c.Samples = cfg.Quant.MCSamples
	c.Seed = cfg.Quant.MCSeed
	c.Workers = cfg.Quant.MCWorkers
	c.RiskFreeRate = cfg.Quant.RiskFreeRate
	return c
}

// Validate checks optimizer settings
func (c Config) Validate() error {
	if c.Samples < MinSamples {
		return fmt.Errorf("samples must be at least %d, got %d", MinSamples, c.Samples)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}
