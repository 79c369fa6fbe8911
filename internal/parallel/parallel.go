// Package parallel partitions row ranges across worker goroutines.
package parallel

import "sync"

// Rows splits [0, n) into at most workers contiguous ranges and calls fn once
// per range concurrently. It returns after every call has finished, which
// makes it a barrier between pipeline stages. fn must only write state owned
// by its own range.
func Rows(n, workers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
