// Package batch drives a per-element kernel over [0, n) under a selected
// execution strategy. Parallel paths split the index range into contiguous,
// disjoint chunks; each chunk writes only its own output slice and collects
// its own flags, so no locks are needed and results are index-stable no
// matter which goroutine ran which chunk.
package batch

import (
	"sync"

	"github.com/marlinquant/marlin/internal/strategy"
)

// Flag is the outcome of one kernel invocation.
type Flag uint8

const (
	// OK means the element computed normally.
	OK Flag = iota
	// Invalid means the element failed validation or convergence; the kernel
	// has written NaN into the output slot.
	Invalid
	// Fallback means an approximation fallback produced the value; it is
	// usable but callers may want to know.
	Fallback
)

// Kernel computes element i, writing results into caller-owned buffers.
// Kernels must be pure per element: no shared mutable state, no retained
// references across elements.
type Kernel func(i int) Flag

// Report lists the element indices that failed or fell back, in ascending
// order. Empty slices mean a clean batch.
type Report struct {
	Invalid  []int
	Fallback []int
}

func (r *Report) merge(other Report) {
	r.Invalid = append(r.Invalid, other.Invalid...)
	r.Fallback = append(r.Fallback, other.Fallback...)
}

func (r *Report) record(i int, f Flag) {
	switch f {
	case Invalid:
		r.Invalid = append(r.Invalid, i)
	case Fallback:
		r.Fallback = append(r.Fallback, i)
	}
}

// Run visits every index in [0, n) exactly once under the given strategy.
// Per-element failures never abort the batch.
func Run(n int, strat strategy.Strategy, kernel Kernel) Report {
	if n <= 0 {
		return Report{}
	}

	switch strat.Kind {
	case strategy.Sequential:
		return runRange(0, n, kernel)
	case strategy.CacheTiledL1, strategy.CacheTiledL2:
		return runTiled(n, strat.TileSize, kernel)
	case strategy.FullParallel:
		return runChunked(n, strat.ChunkSize, strat.Workers, kernel)
	case strategy.HybridParallel:
		return runPooled(n, strat.ChunkSize, strat.Workers, kernel)
	}
	return runRange(0, n, kernel)
}

func runRange(lo, hi int, kernel Kernel) Report {
	var rep Report
	for i := lo; i < hi; i++ {
		rep.record(i, kernel(i))
	}
	return rep
}

func runTiled(n, tile int, kernel Kernel) Report {
	if tile < 1 {
		tile = n
	}
	var rep Report
	for lo := 0; lo < n; lo += tile {
		hi := lo + tile
		if hi > n {
			hi = n
		}
		rep.merge(runRange(lo, hi, kernel))
	}
	return rep
}

// runChunked launches one goroutine per contiguous chunk and joins them all.
// Chunk reports are merged in chunk order, which keeps the index lists sorted
// without a post-pass.
func runChunked(n, chunk, workers int, kernel Kernel) Report {
	if workers < 2 || n <= chunk {
		return runRange(0, n, kernel)
	}
	if chunk < 1 {
		chunk = (n + workers - 1) / workers
	}

	numChunks := (n + chunk - 1) / chunk
	reports := make([]Report, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		lo := c * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(c, lo, hi int) {
			defer wg.Done()
			reports[c] = runRange(lo, hi, kernel)
		}(c, lo, hi)
	}
	wg.Wait()

	var rep Report
	for c := range reports {
		rep.merge(reports[c])
	}
	return rep
}

// runPooled keeps a fixed pool of workers pulling cache-sized chunks off a
// channel. Used for batches too large to split evenly without blowing L2.
func runPooled(n, chunk, workers int, kernel Kernel) Report {
	if chunk < 1 {
		chunk = n
	}
	numChunks := (n + chunk - 1) / chunk
	if workers < 2 || numChunks < 2 {
		return runTiled(n, chunk, kernel)
	}
	if workers > numChunks {
		workers = numChunks
	}

	reports := make([]Report, numChunks)
	jobs := make(chan int, numChunks)
	for c := 0; c < numChunks; c++ {
		jobs <- c
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				lo := c * chunk
				hi := lo + chunk
				if hi > n {
					hi = n
				}
				reports[c] = runRange(lo, hi, kernel)
			}
		}()
	}
	wg.Wait()

	// Merging in chunk index order keeps the flag lists sorted even though
	// chunks completed out of order.
	var rep Report
	for c := range reports {
		rep.merge(reports[c])
	}
	return rep
}
