package render

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerWorker keeps small frames, such as a terminal canvas, on one
// goroutine.
const minRowsPerWorker = 16

// parallelRows runs fn over [0, n) in contiguous chunks, one per worker.
func parallelRows(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n/minRowsPerWorker < workers {
		workers = n / minRowsPerWorker
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
