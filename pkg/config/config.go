package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Redis (결과 캐시)
	Redis RedisConfig

	// Market data
	Yahoo YahooConfig
	Data  DataConfig

	// Quant engine
	Quant QuantConfig

	// Daily report
	Report ReportConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string
	RateLimit float64 // 초당 요청 수
	Timeout   time.Duration
}

// DataConfig holds price loading defaults
type DataConfig struct {
	CacheTTL      time.Duration // get-or-compute TTL (기본 5분)
	DefaultPeriod string        // 1y
}

// QuantConfig holds quant engine defaults
type QuantConfig struct {
	RiskFreeRate float64 // 연 무위험 수익률 (기본 0.02)
	Confidence   float64 // VaR 신뢰수준 (기본 0.95)
	MCSamples    int     // Monte Carlo 포트폴리오 수 (기본 5000, 최소 2000)
	MCSeed       uint64  // 0 = 랜덤
	MCWorkers    int     // Monte Carlo 병렬 워커 수
}

// ReportConfig holds daily report configuration
type ReportConfig struct {
	Dir      string
	Tickers  []string
	Period   string
	Schedule string // cron (초 포함)
}

// LoadFile loads an explicit .env file first, then reads the environment
// 이미 설정된 환경변수는 덮어쓰지 않음
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Market data
		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RateLimit: getEnvAsFloat("YAHOO_RATE_LIMIT", 2),
			Timeout:   getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},
		Data: DataConfig{
			CacheTTL:      getEnvAsDuration("DATA_CACHE_TTL", "5m"),
			DefaultPeriod: getEnv("DATA_DEFAULT_PERIOD", "1y"),
		},

		// Quant engine
		Quant: QuantConfig{
			RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.02),
			Confidence:   getEnvAsFloat("RISK_CONFIDENCE", 0.95),
			MCSamples:    getEnvAsInt("MC_SAMPLES", 5000),
			MCSeed:       uint64(getEnvAsInt("MC_SEED", 0)),
			MCWorkers:    getEnvAsInt("MC_WORKERS", 4),
		},

		// Daily report
		Report: ReportConfig{
			Dir:      getEnv("REPORT_DIR", "data/reports"),
			Tickers:  getEnvAsList("REPORT_TICKERS", "AAPL,MSFT,BTC-USD,EURUSD=X"),
			Period:   getEnv("REPORT_PERIOD", "5d"),
			Schedule: getEnv("REPORT_SCHEDULE", "0 0 18 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Quant.Confidence <= 0 || c.Quant.Confidence >= 1 {
		return fmt.Errorf("RISK_CONFIDENCE must be between 0 and 1, got %v", c.Quant.Confidence)
	}

	if c.Quant.MCSamples < 2000 {
		return fmt.Errorf("MC_SAMPLES must be at least 2000, got %d", c.Quant.MCSamples)
	}

	if c.Quant.MCWorkers <= 0 {
		return fmt.Errorf("MC_WORKERS must be positive, got %d", c.Quant.MCWorkers)
	}

	if c.Data.CacheTTL <= 0 {
		return fmt.Errorf("DATA_CACHE_TTL must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, trimming blanks
func getEnvAsList(key string, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
