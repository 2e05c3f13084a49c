package hellwig

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goecon/timeseries"
)

// chunkSize is the number of subsets a worker scores per task.
const chunkSize = 4096

// SelectBestConcurrent is SelectBest with subsets scored by up to workers
// goroutines sharing the read-only correlation matrix. workers <= 0 uses
// GOMAXPROCS. The result is identical to SelectBest's. Cancelling ctx
// stops the scoring and returns ctx's error.
func SelectBestConcurrent(ctx context.Context, target []float64, predictors *timeseries.Table, workers int) ([]Combination, error) {
	m, err := prepare(target, predictors)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Combination, subsetCount(len(m.names)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// subsets are generated here and handed out in batches; g.Go blocks
	// while every worker is busy, so at most workers+1 batches are live.
	var (
		start int
		batch = make([][]int, 0, chunkSize)
	)
	dispatch := func() {
		offset, subsets := start, batch
		g.Go(func() error {
			for i, idx := range subsets {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				results[offset+i] = m.combination(idx)
			}
			return nil
		})
		start += len(subsets)
		batch = make([][]int, 0, chunkSize)
	}
	forEachSubset(len(m.names), func(idx []int) bool {
		batch = append(batch, append([]int(nil), idx...))
		if len(batch) == chunkSize {
			dispatch()
		}
		return gctx.Err() == nil
	})
	if len(batch) > 0 && gctx.Err() == nil {
		dispatch()
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rank(results)
	return results, nil
}
