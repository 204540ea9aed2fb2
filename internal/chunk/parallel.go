package chunk

import (
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rlm-project/rlm/internal/chunkutil"
)

// parallelStrategy implements §4.2.4: a data-parallel wrapper that fans a
// wrapped strategy out over W text segments and merges the results.
type parallelStrategy struct {
	inner Strategy
}

// NewParallel wraps inner in the data-parallel strategy.
func NewParallel(inner Strategy) Strategy {
	return parallelStrategy{inner: inner}
}

func (p parallelStrategy) Name() string         { return "parallel:" + p.inner.Name() }
func (parallelStrategy) SupportsParallel() bool { return false }

func (p parallelStrategy) Chunk(bufferID int64, text string, cfg Config) ([]Chunk, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return nil, nil
	}
	if !p.inner.SupportsParallel() {
		return p.inner.Chunk(bufferID, text, cfg)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}

	bounds := segmentBounds(text, cfg.ChunkSize, workers)
	if len(bounds) <= 2 {
		return p.inner.Chunk(bufferID, text, cfg)
	}

	type segResult struct {
		segStart int
		chunks   []Chunk
	}
	results := make([]segResult, len(bounds)-1)

	g := new(errgroup.Group)
	for i := 0; i < len(bounds)-1; i++ {
		i := i
		segStart := bounds[i]
		segEnd := bounds[i+1]
		fedEnd := segEnd
		if i < len(bounds)-2 {
			fedEnd = chunkutil.FloorBoundary(text, segEnd+cfg.Overlap)
			if fedEnd > len(text) {
				fedEnd = len(text)
			}
		}
		segText := text[segStart:fedEnd]

		g.Go(func() error {
			segChunks, err := p.inner.Chunk(bufferID, segText, cfg)
			if err != nil {
				return err
			}
			results[i] = segResult{segStart: segStart, chunks: segChunks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type globalChunk struct {
		start, end int
		c          Chunk
	}
	var all []globalChunk
	for i, r := range results {
		overlapFloor := r.segStart
		if i > 0 {
			overlapFloor = chunkutil.FloorBoundary(text, r.segStart+cfg.Overlap)
		}
		for _, c := range r.chunks {
			gs := c.ByteStart + r.segStart
			ge := c.ByteEnd + r.segStart
			if i > 0 && gs < overlapFloor {
				// Already covered by the previous segment's trailing
				// overlap context.
				continue
			}
			c.ByteStart = gs
			c.ByteEnd = ge
			all = append(all, globalChunk{start: gs, end: ge, c: c})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end < all[j].end
	})

	// Deduplicate by (start, end), keeping the earliest-index occurrence
	// (§9 open question resolution).
	seen := make(map[[2]int]bool, len(all))
	now := time.Now()
	var out []Chunk
	for _, gc := range all {
		key := [2]int{gc.start, gc.end}
		if seen[key] {
			continue
		}
		seen[key] = true
		c := gc.c
		c.Index = len(out)
		c.CreatedAt = now
		out = append(out, c)
	}

	return out, nil
}

// segmentBounds computes at most W+1 strictly increasing boundary offsets
// 0=b0<b1<...<len(text) (a cut that collapses onto the previous one or
// reaches len(text) is dropped),
// snapped to multiples of chunkSize (so that, with overlap=0, each
// segment's boundary coincides with a boundary the wrapped strategy
// would have produced running sequentially over the whole text) and
// then to the nearest UTF-8 codepoint boundary.
func segmentBounds(text string, chunkSize, workers int) []int {
	n := len(text)
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	bounds := []int{0}
	for k := 1; k < workers; k++ {
		raw := k * n / workers
		snapped := (raw / chunkSize) * chunkSize
		if snapped <= bounds[len(bounds)-1] {
			continue
		}
		if snapped >= n {
			break
		}
		bounds = append(bounds, chunkutil.FloorBoundary(text, snapped))
	}
	bounds = append(bounds, n)
	return bounds
}
