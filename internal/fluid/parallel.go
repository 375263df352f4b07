package fluid

import "golang.org/x/sync/errgroup"

// minChunk is the smallest index range worth handing to its own goroutine.
const minChunk = 64

// parallelFor splits [0, n) into contiguous chunks and runs fn on each,
// returning once all chunks are done. fn must only write to its own range.
func parallelFor(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n <= minChunk {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
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
