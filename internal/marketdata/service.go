package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/internal/monitoring"
	"github.com/wonny/quantfolio/pkg/logger"
	"github.com/wonny/quantfolio/pkg/redis"
)

// DefaultCacheTTL get-or-compute TTL for aligned price matrices
const DefaultCacheTTL = 5 * time.Minute

// maxConcurrentFetches 동시 티커 다운로드 수 (rate limiter 가 실제 속도 제한)
const maxConcurrentFetches = 4

// Service loads, aligns and caches price matrices
// ⭐ SSOT: 퀀트 엔진이 쓰는 가격 데이터는 모두 여기서 (contracts.PriceProvider 구현)
type Service struct {
	source contracts.PriceSource
	cache  contracts.Cache // nil 또는 비활성 → 메모리 캐시만
	memory *memoryCache
	group  singleflight.Group
	ttl    time.Duration
	logger *logger.Logger
}

// NewService creates a price service
func NewService(source contracts.PriceSource, cache contracts.Cache, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		source: source,
		cache:  cache,
		memory: newMemoryCache(),
		ttl:    ttl,
		logger: log,
	}
}

// Prices returns the aligned close matrix for tickers over period
// - 다운로드 실패 티커는 건너뜀 (로그)
// - 티커가 없으면 빈 행렬
// - 동일 요청 동시 호출은 singleflight 로 1회만 다운로드
// 반환된 행렬은 캐시와 공유되므로 수정 금지
func (s *Service) Prices(ctx context.Context, tickers []string, period string) (*contracts.PriceMatrix, error) {
	tickers = NormalizeTickers(tickers)
	if len(tickers) == 0 {
		return &contracts.PriceMatrix{}, nil
	}
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	key := redis.PricesKey(tickers, period)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.cached(ctx, key, tickers, period)
	})
	if err != nil {
		return nil, err
	}

	m := v.(*contracts.PriceMatrix)
	if shared {
		s.logger.WithField("key", key).Debug("Price load shared with in-flight request")
	}

	// 캐시 키는 정렬 순서 → 요청 순서로 컬럼 재배열
	return reorder(m, tickers)
}

// cached resolves key through the memory cache, then the shared cache, then the source
func (s *Service) cached(ctx context.Context, key string, tickers []string, period string) (*contracts.PriceMatrix, error) {
	if m, ok := s.memory.get(key); ok {
		monitoring.RecordCacheHit()
		return m, nil
	}

	loaded := false
	var m contracts.PriceMatrix
	if s.cache != nil {
		err := s.cache.GetOrSet(ctx, key, &m, s.ttl, func() (interface{}, error) {
			loaded = true
			return s.load(ctx, tickers, period)
		})
		if err != nil {
			return nil, err
		}
	} else {
		fresh, err := s.load(ctx, tickers, period)
		if err != nil {
			return nil, err
		}
		m, loaded = *fresh, true
	}

	if loaded {
		monitoring.RecordCacheMiss()
	} else {
		monitoring.RecordCacheHit()
	}

	if !m.IsEmpty() {
		s.memory.put(key, &m, s.ttl)
	}
	return &m, nil
}

// load downloads every ticker concurrently and aligns the survivors
func (s *Service) load(ctx context.Context, tickers []string, period string) (*contracts.PriceMatrix, error) {
	start := time.Now()

	var mu sync.Mutex
	series := make(map[string][]contracts.Bar, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, ticker := range tickers {
		g.Go(func() error {
			bars, err := s.source.FetchCloses(gctx, ticker, period)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				monitoring.RecordFetchError(ticker)
				s.logger.WithError(err).WithField("ticker", ticker).Warn("Skipping ticker: download failed")
				return nil
			}
			if len(bars) == 0 {
				s.logger.WithField("ticker", ticker).Warn("Skipping ticker: no data")
				return nil
			}

			mu.Lock()
			series[ticker] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	m, err := Align(tickers, series)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"tickers":  len(tickers),
		"assets":   m.NumAssets(),
		"rows":     m.Len(),
		"period":   period,
		"duration": time.Since(start),
	}).Info("Loaded price matrix")

	return m, nil
}

// reorder returns m with columns in the requested ticker order
func reorder(m *contracts.PriceMatrix, tickers []string) (*contracts.PriceMatrix, error) {
	order := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := m.AssetIndex(t); ok {
			order = append(order, t)
		}
	}
	if len(order) == 0 {
		return &contracts.PriceMatrix{}, nil
	}
	return m.Select(order...)
}
