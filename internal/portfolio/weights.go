package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/quantfolio/internal/contracts"
)

// NormalizeWeights divides every weight by the sum so the vector sums to 1.0
// ⭐ SSOT: 비중 정규화는 여기서만 (합계 0 이면 나누지 않음)
func NormalizeWeights(weights []float64) (contracts.Weights, error) {
	if len(weights) == 0 {
		return nil, contracts.BadWeights("empty weight vector")
	}

	total := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, contracts.BadWeights(fmt.Sprintf("non-finite weight at %d", i))
		}
		if w < 0 {
			return nil, contracts.BadWeights(fmt.Sprintf("negative weight %v at %d (long only)", w, i))
		}
		total += w
	}

	if total == 0 {
		return nil, contracts.BadWeights("weights sum to zero")
	}

	normalized := make(contracts.Weights, len(weights))
	for i, w := range weights {
		normalized[i] = w / total
	}

	return normalized, nil
}

// EqualWeights returns 1/n for each of n assets
func EqualWeights(n int) contracts.Weights {
	if n <= 0 {
		return contracts.Weights{}
	}
	w := make(contracts.Weights, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

// WeightsFromMap orders a ticker→weight map by assets; missing tickers get 0
func WeightsFromMap(assets []string, byAsset map[string]float64) (contracts.Weights, error) {
	known := make(map[string]bool, len(assets))
	w := make(contracts.Weights, len(assets))
	for i, a := range assets {
		known[a] = true
		w[i] = byAsset[a]
	}
	for a := range byAsset {
		if !known[a] {
			return nil, fmt.Errorf("%w: weight given for unknown asset %s", contracts.ErrMisaligned, a)
		}
	}
	return w, nil
}

// ResolveWeights maps requested ticker weights onto loaded assets
// 데이터가 없어 빠진 티커의 비중은 버리고 dropped 로 반환, 빈 요청 → 동일 비중
func ResolveWeights(assets []string, byTicker map[string]float64) (contracts.Weights, []string, error) {
	if len(byTicker) == 0 {
		return EqualWeights(len(assets)), nil, nil
	}

	loaded := make(map[string]bool, len(assets))
	for _, a := range assets {
		loaded[a] = true
	}

	kept := make(map[string]float64, len(byTicker))
	var dropped []string
	for t, w := range byTicker {
		if loaded[t] {
			kept[t] = w
		} else {
			dropped = append(dropped, t)
		}
	}
	sort.Strings(dropped)

	w, err := WeightsFromMap(assets, kept)
	return w, dropped, err
}

// RescaleTol 입력 비중 합계 허용 오차
const RescaleTol = 1e-6

// NeedsRescale reports whether a user-supplied vector is off from 1.0 by more than tol
// 입력 비중 합계가 1에서 벗어나면 경고 후 정규화
func NeedsRescale(weights []float64, tol float64) bool {
	return math.Abs(contracts.Weights(weights).Sum()-1) > tol
}
