package contracts

import (
	"context"
	"time"
)

// PriceSource loads dated closes for one ticker
// ⭐ SSOT: 외부 시세 제공자 인터페이스
type PriceSource interface {
	FetchCloses(ctx context.Context, ticker string, period string) ([]Bar, error)
}

// PriceProvider returns an aligned price matrix for a ticker set
// ⭐ SSOT: 데이터 수집 레이어 → 퀀트 엔진 (캐시 포함)
type PriceProvider interface {
	Prices(ctx context.Context, tickers []string, period string) (*PriceMatrix, error)
}

// Predictor is an externally trained classifier emitting P(next day up) in [0,1]
// ⭐ SSOT: 모델 시그널 인터페이스 (학습은 외부)
type Predictor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

// Cache is a get-or-compute store with per-entry TTL
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error
}
