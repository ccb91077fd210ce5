package mcc

import (
	"runtime"
	"sync"
)

// parallelFor splits [0, n) into contiguous ranges and runs fn on each from
// its own goroutine. fn must only write to per-index state inside its range;
// results are therefore independent of scheduling order.
func parallelFor(n int, fn func(lo, hi int)) {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
