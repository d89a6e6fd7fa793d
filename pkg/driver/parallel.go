// Package driver provides the collective parallel-for primitive used by
// passes that process a whole range up front (photon map construction,
// BVH build passes) as opposed to pkg/renderer's streaming tile queue.
package driver

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ParallelFor partitions [0, n) into contiguous chunks, one per worker
// goroutine (defaulting to runtime.NumCPU() workers), and runs f(i) for
// every index in the range. It blocks until every worker has finished. A
// worker whose f returns an error stops there; the other workers still run
// their remaining chunks, and the first error is returned once all are done.
func ParallelFor(n int, f func(i int) error) error {
	return ParallelForWorkers(n, runtime.NumCPU(), f)
}

// ParallelForWorkers is ParallelFor with an explicit worker count. A
// workers value <= 0 falls back to runtime.NumCPU().
func ParallelForWorkers(n, workers int, f func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers
	var next int64

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				start := atomic.AddInt64(&next, int64(chunkSize)) - int64(chunkSize)
				if start >= int64(n) {
					return nil
				}
				end := start + int64(chunkSize)
				if end > int64(n) {
					end = int64(n)
				}
				for i := start; i < end; i++ {
					if err := f(int(i)); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}
