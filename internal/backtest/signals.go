package backtest

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/quantfolio/internal/contracts"
)

// Default rule parameters
const (
	DefaultShortWindow     = 20
	DefaultLongWindow      = 100
	DefaultBollingerWindow = 20
	DefaultBollingerK      = 2.0
	DefaultThreshold       = 0.55
)

// BuyAndHold returns a constant long signal
func BuyAndHold(n int) []float64 {
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = contracts.Long
	}
	return signal
}

// MACrossover is long when the short SMA is above the long SMA, short otherwise
// 장기 이평이 없는 warm-up 구간은 비교 불가 → short
func MACrossover(closes []float64, short, long int) ([]float64, error) {
	if short < 1 || long <= short {
		return nil, fmt.Errorf("invalid MA windows: short=%d long=%d", short, long)
	}

	signal := make([]float64, len(closes))
	for t := range signal {
		signal[t] = contracts.Short
	}
	if len(closes) < long {
		return signal, nil
	}

	shortMA := talib.Sma(closes, short)
	longMA := talib.Sma(closes, long)

	for t := long - 1; t < len(closes); t++ {
		if shortMA[t] > longMA[t] {
			signal[t] = contracts.Long
		} else {
			signal[t] = contracts.Short
		}
	}
	return signal, nil
}

// Bollinger is long below the lower band, short above the upper band, flat between
// 밴드 표준편차는 모집단 기준 (TA-Lib)
func Bollinger(closes []float64, window int, k float64) ([]float64, error) {
	if window < 2 || k <= 0 {
		return nil, fmt.Errorf("invalid bollinger params: window=%d k=%v", window, k)
	}

	signal := make([]float64, len(closes))
	if len(closes) < window {
		return signal, nil
	}

	upper, _, lower := talib.BBands(closes, window, k, k, talib.SMA)

	for t := window - 1; t < len(closes); t++ {
		switch {
		case closes[t] < lower[t]:
			signal[t] = contracts.Long
		case closes[t] > upper[t]:
			signal[t] = contracts.Short
		default:
			signal[t] = contracts.Flat
		}
	}
	return signal, nil
}

// ThresholdSignal maps P(up) to long when p ≥ threshold, short otherwise
// NaN (예측 없음) → flat
func ThresholdSignal(probabilities []float64, threshold float64) []float64 {
	signal := make([]float64, len(probabilities))
	for t, p := range probabilities {
		switch {
		case math.IsNaN(p):
			signal[t] = contracts.Flat
		case p >= threshold:
			signal[t] = contracts.Long
		default:
			signal[t] = contracts.Short
		}
	}
	return signal
}
