// Package compute runs data-parallel passes over element ranges.
//
// A pass is a parallel-for over n elements. Every element is handled by
// exactly one call of the pass function, chunks run on a bounded set of
// goroutines, and For returns only after all of them finished, so passes
// issued one after another never overlap.
package compute

import (
	"runtime"
	"sync"
)

// DefaultGrain is the smallest chunk handed to a worker. Ranges below it
// run on the calling goroutine.
const DefaultGrain = 2048

// Dispatcher splits element ranges across worker goroutines.
type Dispatcher struct {
	workers int
	grain   int
}

// New creates a dispatcher with the given worker count.
// workers <= 0 uses GOMAXPROCS.
func New(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{
		workers: workers,
		grain:   DefaultGrain,
	}
}

// Serial returns a dispatcher that runs every pass on the caller.
func Serial() *Dispatcher {
	return &Dispatcher{workers: 1, grain: DefaultGrain}
}

// WithGrain returns a copy of d using the given minimum chunk size.
func (d *Dispatcher) WithGrain(grain int) *Dispatcher {
	if grain < 1 {
		grain = 1
	}
	return &Dispatcher{workers: d.workers, grain: grain}
}

// Workers returns the configured worker count.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// chunks returns how many chunks a range of n elements is split into.
func (d *Dispatcher) chunks(n int) int {
	if n <= 0 {
		return 0
	}
	c := (n + d.grain - 1) / d.grain
	if c > d.workers {
		c = d.workers
	}
	return c
}

// ForRange calls fn once per chunk with a half-open range [lo, hi).
// Chunks are contiguous, ordered and cover [0, n) exactly once.
func (d *Dispatcher) ForRange(n int, fn func(chunk, lo, hi int)) {
	c := d.chunks(n)
	if c == 0 {
		return
	}
	if c == 1 {
		fn(0, 0, n)
		return
	}

	size := (n + c - 1) / c
	var wg sync.WaitGroup
	for k := 0; k < c; k++ {
		lo := k * size
		hi := lo + size
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(k, lo, hi int) {
			defer wg.Done()
			fn(k, lo, hi)
		}(k, lo, hi)
	}
	wg.Wait()
}

// For calls fn for every index in [0, n).
func (d *Dispatcher) For(n int, fn func(i int)) {
	d.ForRange(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}
