// Package strategy picks an execution plan for a batch from its element count
// and the host's cache geometry. Selection is a pure function: same length and
// config always yield the same strategy.
package strategy

import "runtime"

// Kind enumerates the execution paths the orchestrator knows how to drive.
type Kind int

const (
	// Sequential walks the batch in one plain loop. Below roughly a thousand
	// elements the cost of waking workers exceeds the compute itself.
	Sequential Kind = iota
	// CacheTiledL1 walks the batch in L1-sized blocks on one goroutine.
	CacheTiledL1
	// CacheTiledL2 walks the batch in L2-sized blocks on one goroutine.
	CacheTiledL2
	// FullParallel splits the batch into one contiguous chunk per worker.
	FullParallel
	// HybridParallel feeds L2-sized chunks to a fixed worker pool, so each
	// worker's active window stays cache resident even on huge batches.
	HybridParallel
)

func (k Kind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case CacheTiledL1:
		return "cache-tiled-l1"
	case CacheTiledL2:
		return "cache-tiled-l2"
	case FullParallel:
		return "full-parallel"
	case HybridParallel:
		return "hybrid-parallel"
	}
	return "unknown"
}

// Batch size thresholds between strategies. Derived from typical cache sizes
// divided by the per-element working set (5-8 float64 fields, ~64 bytes).
const (
	sequentialMaxElements = 1_000
	l1TiledMaxElements    = 10_000
	l2TiledMaxElements    = 100_000

	// Minimum worker count for FullParallel to beat L2 tiling in the
	// 10k-100k range.
	fullParallelMinWorkers = 4
)

// Config carries the cache geometry and worker count used for selection.
// Passed explicitly (not a process global) so tests can force every path.
type Config struct {
	L1CacheBytes    int
	L2CacheBytes    int
	L3CacheBytes    int
	BytesPerElement int
	Workers         int
}

// DefaultConfig resolves the worker count from the machine once and assumes
// conventional 32KB/256KB/8MB cache sizes.
func DefaultConfig() Config {
	return Config{
		L1CacheBytes:    32 * 1024,
		L2CacheBytes:    256 * 1024,
		L3CacheBytes:    8 * 1024 * 1024,
		BytesPerElement: 64,
		Workers:         runtime.NumCPU(),
	}
}

// Strategy is the selected execution plan. TileSize applies to the tiled
// kinds, Workers and ChunkSize to the parallel kinds.
type Strategy struct {
	Kind      Kind
	TileSize  int
	Workers   int
	ChunkSize int
}

// Select maps a batch length to a strategy. Deterministic and side-effect
// free; never consults the OS.
func Select(n int, cfg Config) Strategy {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	switch {
	case n <= sequentialMaxElements:
		return Strategy{Kind: Sequential}
	case n <= l1TiledMaxElements:
		return Strategy{Kind: CacheTiledL1, TileSize: tileElements(cfg.L1CacheBytes, cfg.BytesPerElement)}
	case n <= l2TiledMaxElements:
		if workers >= fullParallelMinWorkers {
			return Strategy{Kind: FullParallel, Workers: workers, ChunkSize: chunkFor(n, workers)}
		}
		return Strategy{Kind: CacheTiledL2, TileSize: tileElements(cfg.L2CacheBytes, cfg.BytesPerElement)}
	default:
		if workers == 1 {
			return Strategy{Kind: CacheTiledL2, TileSize: tileElements(cfg.L2CacheBytes, cfg.BytesPerElement)}
		}
		return Strategy{
			Kind:      HybridParallel,
			Workers:   workers,
			ChunkSize: tileElements(cfg.L2CacheBytes, cfg.BytesPerElement),
		}
	}
}

func tileElements(cacheBytes, perElement int) int {
	if perElement <= 0 {
		perElement = 64
	}
	tile := cacheBytes / perElement
	if tile < 1 {
		tile = 1
	}
	return tile
}

func chunkFor(n, workers int) int {
	chunk := (n + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}
	return chunk
}
