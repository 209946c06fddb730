package optimizer

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantfolio/internal/contracts"
)

// sampleFrontier draws uniform weight vectors and evaluates each
// 샤드 k 는 (seed, k) PCG 스트림 사용 → 워커 수가 같으면 재현 가능
func (o *objective) sampleFrontier(ctx context.Context, samples, workers int, seed uint64) ([]contracts.FrontierPoint, error) {
	if workers > samples {
		workers = samples
	}

	frontier := make([]contracts.FrontierPoint, samples)
	g, ctx := errgroup.WithContext(ctx)

	per := samples / workers
	extra := samples % workers
	start := 0
	for k := 0; k < workers; k++ {
		count := per
		if k < extra {
			count++
		}
		lo, hi := start, start+count
		start = hi

		shard := uint64(k)
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, shard))
			w := make([]float64, o.n)

			for i := lo; i < hi; i++ {
				if (i-lo)%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}

				randomWeights(rng, w)
				ret, vol, sharpe := o.evaluate(w)

				frontier[i] = contracts.FrontierPoint{
					Volatility: vol,
					Return:     ret,
					Sharpe:     sharpe,
					Weights:    append(contracts.Weights(nil), w...),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frontier, nil
}

// randomWeights fills w with independent U[0,1) draws normalized by their sum
func randomWeights(rng *rand.Rand, w []float64) {
	for {
		var sum float64
		for i := range w {
			w[i] = rng.Float64()
			sum += w[i]
		}
		if sum > 0 {
			for i := range w {
				w[i] /= sum
			}
			return
		}
	}
}

// bestSample returns the index of the max-Sharpe sample (첫 번째 최댓값)
func bestSample(frontier []contracts.FrontierPoint) int {
	best := 0
	for i := 1; i < len(frontier); i++ {
		if frontier[i].Sharpe > frontier[best].Sharpe {
			best = i
		}
	}
	return best
}
